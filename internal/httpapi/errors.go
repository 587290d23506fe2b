package httpapi

import (
	"encoding/json"
	"net/http"

	"whisperd/internal/scheduler"
	"whisperd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeSchedulerError maps scheduler errors onto HTTP statuses and writes the
// payload. Admission rejections carry their structured detail so clients can
// pick a smaller model without a second round trip. Returns the status used.
func writeSchedulerError(w http.ResponseWriter, err error) int {
	switch {
	case scheduler.IsResourceExhausted(err):
		ins, rec, _ := scheduler.RejectionDetail(err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(types.ErrorResponse{
			Error:               err.Error(),
			Code:                http.StatusUnprocessableEntity,
			InsufficientDevices: ins,
			RecommendedModels:   rec,
		})
		return http.StatusUnprocessableEntity
	case scheduler.IsUnknownModel(err),
		scheduler.IsJobNotFound(err),
		scheduler.IsDeviceNotFound(err):
		writeJSONError(w, http.StatusNotFound, err.Error())
		return http.StatusNotFound
	case scheduler.IsJobDone(err):
		writeJSONError(w, http.StatusGone, err.Error())
		return http.StatusGone
	case scheduler.IsQueueFull(err):
		IncrementBackpressure("queue_full")
		writeJSONError(w, http.StatusTooManyRequests, err.Error())
		return http.StatusTooManyRequests
	case scheduler.IsShuttingDown(err):
		writeJSONError(w, http.StatusConflict, err.Error())
		return http.StatusConflict
	default:
		if he, ok := err.(HTTPError); ok {
			writeJSONError(w, he.StatusCode(), he.Error())
			return he.StatusCode()
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return http.StatusInternalServerError
	}
}
