package types

// JobStatus is the lifecycle state of a transcription job.
// Transitions are forward-only: queued -> processing -> completed|failed.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether s is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ModelInfo describes one entry of the model footprint table.
type ModelInfo struct {
	// Model name.
	// example: large-v3
	Name string `json:"name" example:"large-v3"`
	// Estimated device memory required to load the model, in MiB.
	// example: 10240
	FootprintMB int `json:"footprint_mb" example:"10240"`
	// Whether this is the server default model.
	// example: true
	Default bool `json:"default,omitempty" example:"true"`
	// Whether the model currently fits the default devices' free memory.
	// False when no device information is available.
	// example: false
	Fits bool `json:"fits" example:"false"`
}

// DeviceSnapshot is a point-in-time view of one compute device.
// Values are recomputed on every query and never cached server-side.
type DeviceSnapshot struct {
	// Stable device index.
	// example: 0
	ID int `json:"id" example:"0"`
	// Device product name.
	// example: NVIDIA GeForce RTX 4090
	Name string `json:"name,omitempty" example:"NVIDIA GeForce RTX 4090"`
	// Total device memory in MiB.
	// example: 24564
	TotalMB int `json:"total_mb" example:"24564"`
	// Reserved/used device memory in MiB.
	// example: 2048
	UsedMB int `json:"used_mb" example:"2048"`
	// Free device memory in MiB.
	// example: 22516
	FreeMB int `json:"free_mb" example:"22516"`
	// GPU utilization percentage. Advisory only.
	// example: 35
	Utilization int `json:"utilization,omitempty" example:"35"`
	// GPU temperature in degrees Celsius. Advisory only.
	// example: 62
	Temperature int `json:"temperature,omitempty" example:"62"`
}

// DeviceShortfall reports one device that failed an admission check.
type DeviceShortfall struct {
	// Device index that is short on memory.
	// example: 0
	DeviceID int `json:"device_id" example:"0"`
	// Free memory observed at check time, in MiB.
	// example: 2048
	FreeMB int `json:"free_mb" example:"2048"`
	// Memory the requested model needs (margin included), in MiB.
	// example: 12800
	RequiredMB int `json:"required_mb" example:"12800"`
}

// LoadedModel describes one live model cache entry for /status.
type LoadedModel struct {
	// Model name of the cache entry.
	// example: large-v3
	Model string `json:"model" example:"large-v3"`
	// Device the model is loaded on. -1 means CPU.
	// example: 0
	DeviceID int `json:"device_id" example:"0"`
	// Load completion time (unix seconds).
	// example: 1700000000
	LoadedUnix int64 `json:"loaded_unix" example:"1700000000"`
	// Last time a job borrowed this entry (unix seconds).
	// example: 1700000100
	LastUsedUnix int64 `json:"last_used_unix" example:"1700000100"`
	// Number of jobs currently borrowing the entry.
	// example: 1
	Refs int `json:"refs" example:"1"`
}
