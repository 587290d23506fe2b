package scheduler

// Event names published by the scheduler. Lifecycle names match the job
// status strings so observers can mirror the state machine directly.
const (
	EventQueued            = "queued"
	EventProcessing        = "processing"
	EventCompleted         = "completed"
	EventFailed            = "failed"
	EventAdmissionRejected = "admission_rejected"
	EventMemoryLow         = "memory_low"
	EventShutdownStart     = "shutdown_start"
	EventShutdownTimeout   = "shutdown_timeout"
	EventShutdownDone      = "shutdown_done"
)

// Event represents a scheduler lifecycle event.
// Minimal and stable: name + job ID and optional fields via key/values.
type Event struct {
	Name   string
	JobID  string
	Fields map[string]any
}

// EventPublisher receives events from the scheduler. Publish must not block
// and must not panic: the scheduler may call it while holding internal locks
// to keep a job's events in lifecycle order. Delivery is best-effort: status
// queries are the authoritative source of truth.
type EventPublisher interface {
	Publish(Event)
}

// EventSubscriber is implemented by publishers that fan events out to
// consumers (the stream publisher does).
type EventSubscriber interface {
	Subscribe() (<-chan Event, func())
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
