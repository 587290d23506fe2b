package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"whisperd/pkg/types"
)

// Submit runs the fast-fail admission check and, on accept, queues the job.
// The check repeats at dispatch time; passing here is not a reservation.
func (s *Scheduler) Submit(ctx context.Context, req types.SubmitRequest) (types.SubmitResponse, error) {
	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}
	devices := req.DeviceIDs
	if devices == nil {
		// Omitted means server defaults; an explicit empty list stays
		// empty and takes the CPU fallback path.
		devices = append([]int(nil), s.cfg.DefaultDevices...)
	}

	dec, err := s.Check(ctx, model, devices)
	if err != nil {
		return types.SubmitResponse{}, err
	}
	if !dec.Admit {
		rej := resourceExhaustedError{
			model:        model,
			insufficient: dec.Insufficient,
			recommended:  dec.Recommended,
		}
		admissionRejects.Inc()
		s.pub.Publish(Event{Name: EventAdmissionRejected, Fields: map[string]any{
			"model":                model,
			"insufficient_devices": dec.Insufficient,
			"recommended_models":   dec.Recommended,
		}})
		s.log.Debug().Str("model", model).Ints("devices", devices).
			Strs("recommended", dec.Recommended).Msg("submission rejected by admission")
		return types.SubmitResponse{}, rej
	}

	j := &Job{
		ID:        uuid.NewString(),
		Input:     req.Input,
		Model:     model,
		Language:  req.Language,
		DeviceIDs: devices,
		Status:    types.StatusQueued,
		Message:   "queued",
		QueuedAt:  time.Now(),
	}

	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return types.SubmitResponse{}, shuttingDownError{}
	}
	if len(s.queue) >= s.cfg.MaxQueueDepth {
		s.mu.Unlock()
		return types.SubmitResponse{}, queueFullError{depth: s.cfg.MaxQueueDepth}
	}
	s.jobs[j.ID] = j
	s.queue = append(s.queue, j.ID)
	pos := len(s.queue) - 1
	queueDepthGauge.Set(float64(len(s.queue)))
	// Published under the lock so no worker can emit this job's processing
	// event first; publishers are required to be non-blocking.
	s.pub.Publish(Event{Name: EventQueued, JobID: j.ID, Fields: map[string]any{
		"message":  j.Message,
		"progress": 0,
		"position": pos,
	}})
	s.mu.Unlock()

	s.log.Info().Str("job", j.ID).Str("model", model).Ints("devices", devices).
		Int("position", pos).Msg("job queued")
	s.kick()
	return types.SubmitResponse{JobID: j.ID, Status: types.StatusQueued, QueuePosition: pos}, nil
}

// Cancel requests a best-effort cancellation. A queued job is removed from
// the queue and failed as cancelled without ever starting; a processing job
// has its engine invocation signalled and finishes through the normal
// failure path, cleanup included.
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	j, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return jobNotFoundError{id: id}
	}
	if j.Status.Terminal() {
		s.mu.Unlock()
		return jobDoneError{id: id}
	}
	j.cancelRequested = true
	cancel := j.cancel
	inQueue := false
	if j.Status == types.StatusQueued {
		for i, qid := range s.queue {
			if qid == id {
				s.queue = append(s.queue[:i], s.queue[i+1:]...)
				inQueue = true
				break
			}
		}
		queueDepthGauge.Set(float64(len(s.queue)))
	}
	s.mu.Unlock()

	if inQueue {
		// Never started; finalize directly.
		s.finish(j, "", cancelledError{})
		return nil
	}
	if cancel != nil {
		cancel()
	}
	// A job popped but not yet started has no cancel func; the worker
	// observes cancelRequested before invoking the engine.
	return nil
}

// Job returns the current view of one job.
func (s *Scheduler) Job(id string) (types.JobView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return types.JobView{}, jobNotFoundError{id: id}
	}
	return j.view(s.queuePosLocked(id)), nil
}

// Jobs returns the aggregate view of all known jobs, queue order first,
// then processing, then recently finished. Serves reconnect/restore flows.
func (s *Scheduler) Jobs() types.JobsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := types.JobsResponse{
		Jobs:       make([]types.JobView, 0, len(s.jobs)),
		QueueDepth: len(s.queue),
		Running:    s.running,
	}
	for pos, id := range s.queue {
		if j, ok := s.jobs[id]; ok {
			resp.Jobs = append(resp.Jobs, j.view(pos))
		}
	}
	for _, j := range s.jobs {
		if j.Status == types.StatusProcessing {
			resp.Jobs = append(resp.Jobs, j.view(-1))
		}
	}
	for i := len(s.finished) - 1; i >= 0; i-- {
		if j, ok := s.jobs[s.finished[i]]; ok {
			resp.Jobs = append(resp.Jobs, j.view(-1))
		}
	}
	return resp
}

// queuePosLocked returns the zero-based queue position of id, or -1 when it
// is not queued. Caller holds at least the read lock.
func (s *Scheduler) queuePosLocked(id string) int {
	for i, qid := range s.queue {
		if qid == id {
			return i
		}
	}
	return -1
}

// finish drives a job to its terminal state exactly once, updates counters
// and retention, and notifies observers. err == nil means completed.
func (s *Scheduler) finish(j *Job, output string, err error) {
	s.mu.Lock()
	if j.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	if j.dispatched {
		s.running--
		runningGauge.Set(float64(s.running))
	}
	j.EndedAt = time.Now()
	j.cancel = nil
	if err == nil {
		j.Status = types.StatusCompleted
		j.Progress = 100
		j.Message = "completed"
		j.Output = output
		s.completedTotal++
	} else {
		j.Status = types.StatusFailed
		j.Err = err
		j.Message = err.Error()
		s.failedTotal++
	}
	s.finished = append(s.finished, j.ID)
	for len(s.finished) > s.cfg.RetainFinished {
		delete(s.jobs, s.finished[0])
		s.finished = s.finished[1:]
	}
	name := EventCompleted
	if err != nil {
		name = EventFailed
	}
	fields := map[string]any{"message": j.Message, "progress": j.Progress}
	if err != nil {
		fields["error"] = err.Error()
		if ins, rec, ok := RejectionDetail(err); ok {
			fields["insufficient_devices"] = ins
			fields["recommended_models"] = rec
		}
	}
	dur := j.EndedAt.Sub(j.QueuedAt)
	if !j.StartedAt.IsZero() {
		dur = j.EndedAt.Sub(j.StartedAt)
	}
	s.mu.Unlock()

	jobsTotal.WithLabelValues(name).Inc()
	jobDuration.Observe(dur.Seconds())
	s.pub.Publish(Event{Name: name, JobID: j.ID, Fields: fields})
	if err == nil {
		s.log.Info().Str("job", j.ID).Dur("dur", dur).Msg("job completed")
	} else {
		s.log.Warn().Str("job", j.ID).Dur("dur", dur).Err(err).Msg("job failed")
	}
}
