package types

// SubmitRequest is the payload for POST /jobs.
type SubmitRequest struct {
	// Path or reference to the source audio. Owned by the caller; the
	// scheduler treats it as opaque.
	// example: /data/uploads/interview.wav
	Input string `json:"input" example:"/data/uploads/interview.wav"`
	// Model name. If empty, the server default is used.
	// example: large-v3
	Model string `json:"model,omitempty" example:"large-v3"`
	// Language hint. "auto" or empty lets the engine detect.
	// example: en
	Language string `json:"language,omitempty" example:"en"`
	// Devices to run on. Omitted means the server default devices; an
	// explicit empty list requests the CPU fallback path.
	// example: [0]
	DeviceIDs []int `json:"device_ids,omitempty" example:"0"`
}

// SubmitResponse is returned when a job is accepted.
type SubmitResponse struct {
	// Assigned job identifier.
	// example: 3b241101-e2bb-4255-8caf-4136c566a964
	JobID string `json:"job_id" example:"3b241101-e2bb-4255-8caf-4136c566a964"`
	// Initial job status (always queued on accept).
	// example: queued
	Status JobStatus `json:"status" example:"queued"`
	// Zero-based position in the queue at accept time.
	// example: 2
	QueuePosition int `json:"queue_position" example:"2"`
}

// JobView is the externally visible state of a job.
type JobView struct {
	// Job identifier.
	// example: 3b241101-e2bb-4255-8caf-4136c566a964
	ID string `json:"id" example:"3b241101-e2bb-4255-8caf-4136c566a964"`
	// Source audio reference, as submitted.
	// example: /data/uploads/interview.wav
	Input string `json:"input" example:"/data/uploads/interview.wav"`
	// Model name.
	// example: large-v3
	Model string `json:"model" example:"large-v3"`
	// Language hint, if any.
	// example: en
	Language string `json:"language,omitempty" example:"en"`
	// Devices the job runs on. Empty means CPU.
	// example: [0]
	DeviceIDs []int `json:"device_ids" example:"0"`
	// Current lifecycle state.
	// example: processing
	Status JobStatus `json:"status" example:"processing"`
	// Progress percentage, monotonically non-decreasing.
	// example: 45
	Progress int `json:"progress" example:"45"`
	// Human-readable status message.
	// example: transcribing
	Message string `json:"message,omitempty" example:"transcribing"`
	// Zero-based queue position while queued; -1 otherwise.
	// example: -1
	QueuePosition int `json:"queue_position" example:"-1"`
	// Submission time (unix seconds).
	// example: 1700000000
	QueuedUnix int64 `json:"queued_unix" example:"1700000000"`
	// Processing start time (unix seconds); 0 until started.
	// example: 1700000003
	StartedUnix int64 `json:"started_unix,omitempty" example:"1700000003"`
	// Terminal time (unix seconds); 0 until completed or failed.
	// example: 1700000100
	EndedUnix int64 `json:"ended_unix,omitempty" example:"1700000100"`
	// Transcript output path once completed.
	// example: /data/outputs/interview_3b241101.txt
	Output string `json:"output,omitempty" example:"/data/outputs/interview_3b241101.txt"`
	// Failure reason; set only in the failed state.
	// example: resource exhausted
	Error string `json:"error,omitempty" example:"resource exhausted"`
}

// JobsResponse is the aggregate view returned by GET /jobs.
type JobsResponse struct {
	// All known jobs: queued, processing, and recently finished.
	Jobs []JobView `json:"jobs"`
	// Number of queued jobs.
	// example: 3
	QueueDepth int `json:"queue_depth" example:"3"`
	// Number of jobs currently processing.
	// example: 1
	Running int `json:"running" example:"1"`
}

// ModelsResponse wraps the footprint table returned by GET /models.
type ModelsResponse struct {
	// Known models with footprints and fit flags.
	Models []ModelInfo `json:"models"`
	// Supported language hints.
	// example: ["auto","en","ja"]
	Languages []string `json:"languages,omitempty" example:"auto,en,ja"`
	// Server default model name.
	// example: large-v3
	DefaultModel string `json:"default_model,omitempty" example:"large-v3"`
}

// DevicesResponse wraps the device list returned by GET /devices.
type DevicesResponse struct {
	// Current per-device snapshots. Empty on CPU-only deployments.
	Devices []DeviceSnapshot `json:"devices"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall scheduler state (ready or draining).
	// example: ready
	State string `json:"state" example:"ready"`
	// Number of queued jobs.
	// example: 3
	QueueDepth int `json:"queue_depth" example:"3"`
	// Number of jobs currently processing.
	// example: 1
	Running int `json:"running" example:"1"`
	// Configured worker pool size.
	// example: 1
	MaxConcurrency int `json:"max_concurrency" example:"1"`
	// Completed jobs since start.
	// example: 12
	CompletedTotal uint64 `json:"completed_total" example:"12"`
	// Failed jobs since start (cancellations included).
	// example: 2
	FailedTotal uint64 `json:"failed_total" example:"2"`
	// Live model cache entries.
	LoadedModels []LoadedModel `json:"loaded_models"`
	// Current device snapshots. Empty on CPU-only deployments.
	Devices []DeviceSnapshot `json:"devices"`
	// Optional top-level error (e.g., device registry unavailable).
	Error string `json:"error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: unknown model: huge-v9
	Error string `json:"error" example:"unknown model: huge-v9"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
	// Devices that failed the admission check, for resource errors.
	InsufficientDevices []DeviceShortfall `json:"insufficient_devices,omitempty"`
	// Models that would fit the smallest free memory among the requested
	// devices, largest first. Populated for resource errors.
	// example: ["small","base","tiny"]
	RecommendedModels []string `json:"recommended_models,omitempty" example:"small,base,tiny"`
}
