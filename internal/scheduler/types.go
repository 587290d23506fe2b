package scheduler

import (
	"context"
	"time"

	"whisperd/pkg/types"
)

// Job is the scheduler's record of one transcription request. It is mutated
// only under the scheduler mutex, exclusively by the dispatcher once it
// leaves the queue, and never after reaching a terminal state.
type Job struct {
	ID        string
	Input     string
	Model     string
	Language  string
	DeviceIDs []int

	Status   types.JobStatus
	Progress int
	Message  string

	QueuedAt  time.Time
	StartedAt time.Time
	EndedAt   time.Time

	// Output is the transcript path, set on completion.
	Output string
	// Err is the failure reason, set only in the failed state.
	Err error

	// dispatched marks that a worker slot was consumed for this job.
	dispatched bool
	// cancelRequested is set by Cancel and by shutdown; observed by the
	// worker at its next suspension point.
	cancelRequested bool
	// cancel aborts the in-flight engine invocation, set while processing.
	cancel context.CancelFunc
}

// view projects the job into its wire shape. queuePos is -1 once the job
// has left the queue.
func (j *Job) view(queuePos int) types.JobView {
	v := types.JobView{
		ID:            j.ID,
		Input:         j.Input,
		Model:         j.Model,
		Language:      j.Language,
		DeviceIDs:     append([]int(nil), j.DeviceIDs...),
		Status:        j.Status,
		Progress:      j.Progress,
		Message:       j.Message,
		QueuePosition: queuePos,
		QueuedUnix:    j.QueuedAt.Unix(),
		Output:        j.Output,
	}
	if !j.StartedAt.IsZero() {
		v.StartedUnix = j.StartedAt.Unix()
	}
	if !j.EndedAt.IsZero() {
		v.EndedUnix = j.EndedAt.Unix()
	}
	if j.Err != nil {
		v.Error = j.Err.Error()
	}
	return v
}
