// Package engine defines the opaque inference engine boundary: load a model
// onto a device, run it against an audio input, return a transcript or fail.
// The scheduler depends only on the interfaces here; concrete engines are the
// whisper-cli subprocess engine (CLIEngine) and an in-memory stub for tests
// and engineless deployments (StubEngine).
package engine

import (
	"context"
	"time"
)

// CPUDevice is the device id used for the CPU fallback path.
const CPUDevice = -1

// TranscribeRequest carries one transcription invocation.
type TranscribeRequest struct {
	// Input is an opaque path/reference to the source audio.
	Input string
	// Language hint; empty or "auto" lets the engine detect.
	Language string
}

// Result is a finished transcription.
type Result struct {
	Text     string
	Language string
	// Duration of the processed audio, when the engine reports it.
	Duration time.Duration
}

// Session is a model materialized on one device. Sessions are owned by the
// model cache and shared across jobs; implementations must tolerate
// sequential Transcribe calls from different jobs.
type Session interface {
	// Transcribe runs the engine on one input. onProgress, when non-nil,
	// receives coarse completion percentages in [0,100]; implementations
	// must return promptly when ctx is canceled.
	Transcribe(ctx context.Context, req TranscribeRequest, onProgress func(pct int)) (Result, error)
	// Close releases whatever the session holds on its device.
	Close() error
}

// Engine materializes models on devices. device is a registry id, or
// CPUDevice for the CPU fallback path.
type Engine interface {
	Load(ctx context.Context, model string, device int) (Session, error)
}
