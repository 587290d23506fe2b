package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"whisperd/internal/scheduler"
	"whisperd/pkg/types"
)

// Service defines the methods required by the HTTP API layer. The scheduler
// satisfies it directly.
type Service interface {
	Submit(ctx context.Context, req types.SubmitRequest) (types.SubmitResponse, error)
	Job(id string) (types.JobView, error)
	Jobs() types.JobsResponse
	Cancel(id string) error
	Status(ctx context.Context) types.StatusResponse
	Models(ctx context.Context) types.ModelsResponse
	Devices(ctx context.Context) (types.DevicesResponse, error)
	Subscribe() (<-chan scheduler.Event, func())
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)

	r.With(rateLimitMiddleware).Post("/jobs", func(w http.ResponseWriter, r *http.Request) {
		handleSubmit(svc, w, r)
	})

	r.Get("/jobs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Jobs())
	})

	r.Get("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Job(chi.URLParam(r, "id"))
		if err != nil {
			writeSchedulerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	})

	r.Delete("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Cancel(chi.URLParam(r, "id")); err != nil {
			writeSchedulerError(w, err)
			return
		}
		// Cancellation is best-effort; the job finishes through its normal
		// terminal transition.
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "cancelling"})
	})

	r.Get("/jobs/{id}/transcript", func(w http.ResponseWriter, r *http.Request) {
		handleTranscript(svc, w, r)
	})

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := handlerCtx(r)
		defer cancel()
		writeJSON(w, http.StatusOK, svc.Models(ctx))
	})

	r.Get("/devices", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := handlerCtx(r)
		defer cancel()
		resp, err := svc.Devices(ctx)
		if err != nil {
			writeSchedulerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := handlerCtx(r)
		defer cancel()
		writeJSON(w, http.StatusOK, svc.Status(ctx))
	})

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		handleEvents(svc, w, r)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("draining"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

func handleSubmit(svc Service, w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// MaxBytesReader overflows surface here too; 400 avoids leaking
		// size details.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeJSONError(w, http.StatusBadRequest, "input is required")
		return
	}

	start := time.Now()
	ctx, cancel := handlerCtx(r)
	defer cancel()
	resp, err := svc.Submit(ctx, req)
	status := http.StatusAccepted
	if err != nil {
		status = writeSchedulerError(w, err)
	} else {
		writeJSON(w, http.StatusAccepted, resp)
	}
	if requestLogLevel(r) >= LevelInfo {
		logSubmit(r, req, resp, status, time.Since(start), err)
	}
}

func handleTranscript(svc Service, w http.ResponseWriter, r *http.Request) {
	v, err := svc.Job(chi.URLParam(r, "id"))
	if err != nil {
		writeSchedulerError(w, err)
		return
	}
	if v.Status != types.StatusCompleted || v.Output == "" {
		writeJSONError(w, http.StatusNotFound, "transcript not available")
		return
	}
	f, err := os.Open(v.Output)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "transcript not available")
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.Copy(w, f)
}

// handleEvents streams scheduler events as NDJSON, one object per line,
// flushed per event, until the client disconnects or the server drains.
func handleEvents(svc Service, w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	events, cancel := svc.Subscribe()
	defer cancel()
	eventSubscribers.Inc()
	defer eventSubscribers.Dec()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var sink io.Writer = w
	if requestLogLevel(r) >= LevelDebug {
		sink = io.MultiWriter(w, &loggingLineWriter{})
	}
	enc := json.NewEncoder(sink)

	ctx, stop := joinContexts(serverBaseCtx, r.Context())
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case e, open := <-events:
			if !open {
				return
			}
			if err := enc.Encode(eventView{
				Event:  e.Name,
				JobID:  e.JobID,
				Fields: e.Fields,
			}); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// eventView is the wire shape of one streamed event line.
type eventView struct {
	Event  string         `json:"event"`
	JobID  string         `json:"job_id,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// handlerCtx joins the request context with the process base context and the
// configured request timeout, so shutdown cancels in-flight handlers.
func handlerCtx(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	if requestTimeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, time.Duration(requestTimeout)*time.Second)
	return tctx, func() {
		tcancel()
		cancel()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Debug().Err(err).Msg("response encode failed")
	}
}

func logSubmit(r *http.Request, req types.SubmitRequest, resp types.SubmitResponse, status int, dur time.Duration, err error) {
	if zlog == nil {
		return
	}
	z := zlog.Info().Int("status", status).Str("model", req.Model).Dur("dur", dur)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	if resp.JobID != "" {
		z = z.Str("job", resp.JobID)
	}
	if err != nil {
		z = z.Err(err)
	}
	z.Msg("submit")
}
