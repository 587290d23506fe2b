package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"whisperd/internal/common/fsutil"
	"whisperd/internal/config"
	"whisperd/internal/engine"
	"whisperd/internal/gpu"
	"whisperd/internal/httpapi"
	"whisperd/internal/scheduler"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// Flags with environment variable defaults
	cfgPath := flag.String("config", envOr("WHISPERD_CONFIG", ""), "Config file (.yaml/.yml/.json/.toml)")
	addr := flag.String("addr", envOr("WHISPERD_ADDR", ""), "HTTP listen address, e.g. :5000")
	logLevel := flag.String("log-level", envOr("WHISPERD_LOG_LEVEL", ""), "Log level: debug, info, warn, error")
	engineKind := flag.String("engine", envOr("WHISPERD_ENGINE", "cli"), "Inference engine: cli or stub")
	whisperBin := flag.String("whisper-bin", envOr("WHISPERD_WHISPER_BIN", ""), "Path to the whisper-cli binary (default: PATH lookup)")
	smiBin := flag.String("nvidia-smi", envOr("WHISPERD_NVIDIA_SMI", ""), "Path to nvidia-smi (default: PATH lookup)")
	modelDir := flag.String("model-dir", envOr("WHISPERD_MODEL_DIR", ""), "Directory holding whisper model files")
	outputDir := flag.String("output-dir", envOr("WHISPERD_OUTPUT_DIR", ""), "Directory receiving transcript files")
	defaultModel := flag.String("default-model", "", "Default model when a submission omits one")
	devicesCSV := flag.String("devices", "", "Default device ids, comma separated (empty string keeps config)")
	flag.Parse()

	bootLog := zerolog.New(os.Stderr)
	cfg, err := config.LoadOrDefault(*cfgPath)
	if err != nil {
		bootLog.Fatal().Err(err).Str("path", *cfgPath).Msg("config load failed")
	}
	// Flags and env override the file.
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *whisperBin != "" {
		cfg.WhisperBin = *whisperBin
	}
	if *modelDir != "" {
		cfg.ModelDir = *modelDir
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *defaultModel != "" {
		cfg.DefaultModel = *defaultModel
	}
	if ids, ok := parseDeviceCSV(*devicesCSV); ok {
		cfg.DefaultDevices = ids
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	level, perr := zerolog.ParseLevel(cfg.LogLevel)
	if perr != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)

	if err := fsutil.EnsureDir(cfg.OutputDir); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.OutputDir).Msg("output dir unavailable")
	}

	var driver gpu.Driver
	if smi, err := gpu.NewSMIDriver(*smiBin); err == nil {
		driver = smi
	} else {
		logger.Warn().Err(err).Msg("no GPU driver available, running CPU-only")
		driver = gpu.NewStaticDriver()
	}
	reg := gpu.NewRegistry(driver)

	var eng engine.Engine
	switch *engineKind {
	case "stub":
		eng = &engine.StubEngine{}
		logger.Warn().Msg("using stub engine, transcripts are canned")
	default:
		eng = engine.NewCLIEngine(cfg.WhisperBin, cfg.ModelDir, cfg.Threads)
	}

	footprints := scheduler.DefaultFootprints()
	for name, mb := range cfg.Models {
		footprints[name] = mb
	}
	sched := scheduler.New(scheduler.Config{
		Footprints:     footprints,
		DefaultModel:   cfg.DefaultModel,
		DefaultDevices: cfg.DefaultDevices,
		Margin:         cfg.Margin,
		MaxConcurrency: cfg.MaxConcurrent,
		MaxQueueDepth:  cfg.QueueDepth,
		JobTimeout:     time.Duration(cfg.JobTimeoutSec) * time.Second,
		DrainGrace:     time.Duration(cfg.ShutdownGraceSec) * time.Second,
		OutputDir:      cfg.OutputDir,
		WatchInterval:  time.Duration(cfg.WatchIntervalSec) * time.Second,
		WatermarkMB:    cfg.WatermarkMB,
		Languages:      cfg.Languages,
	}, reg, eng)
	sched.SetLogger(logger.With().Str("component", "scheduler").Logger())
	sched.SetEventPublisher(scheduler.NewStreamPublisher())
	sched.Start()

	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetLogger(logger.With().Str("component", "http").Logger())
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetMaxBodyBytes(int64(cfg.MaxBodyMB) << 20)
	httpapi.SetCORSOptions(cfg.EnableCORS, cfg.AllowedOrigins,
		[]string{"GET", "POST", "DELETE", "OPTIONS"}, []string{"Content-Type"})
	httpapi.SetSubmitRateLimit(cfg.SubmitRate, cfg.SubmitBurst)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(sched),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("engine", *engineKind).
			Str("default_model", cfg.DefaultModel).Msg("whisperd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM); a second signal forces exit.
	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("signal received, shutting down")
	go func() {
		<-stop
		logger.Error().Msg("second signal, forcing exit")
		os.Exit(1)
	}()

	grace := time.Duration(cfg.ShutdownGraceSec)*time.Second + 5*time.Second
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	sched.Shutdown(ctx)
	baseCancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown incomplete")
	}
}

// parseDeviceCSV parses the --devices flag. ok is false when the flag was not
// given; "none" yields an explicit empty list for CPU-only operation.
func parseDeviceCSV(s string) (ids []int, ok bool) {
	if s == "" {
		return nil, false
	}
	if s == "none" {
		return []int{}, true
	}
	for _, part := range splitCSV(s) {
		n := 0
		for _, r := range part {
			if r < '0' || r > '9' {
				return nil, false
			}
			n = n*10 + int(r-'0')
		}
		ids = append(ids, n)
	}
	return ids, true
}

// splitCSV splits on commas, trims whitespace, and drops empty parts.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
