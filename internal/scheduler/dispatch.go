package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"whisperd/internal/engine"
	"whisperd/pkg/types"
)

// workerLoop is one slot of the worker pool. It drains the queue, then
// sleeps until Submit kicks the wake channel or shutdown stops the run
// context.
func (s *Scheduler) workerLoop() {
	defer s.wg.Done()
	for {
		j := s.nextJob()
		if j == nil {
			select {
			case <-s.runCtx.Done():
				return
			case <-s.wake:
			}
			continue
		}
		s.runJob(j)
	}
}

// nextJob pops the queue head and consumes a worker slot. Returns nil when
// the queue is empty or the scheduler is draining.
func (s *Scheduler) nextJob() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining || len(s.queue) == 0 {
		return nil
	}
	id := s.queue[0]
	s.queue = s.queue[1:]
	queueDepthGauge.Set(float64(len(s.queue)))
	// One wake can stand for a whole burst of submissions; pass it on so
	// the remaining queue reaches the other sleeping workers.
	if len(s.queue) > 0 {
		s.kick()
	}
	j := s.jobs[id]
	if j == nil || j.Status != types.StatusQueued {
		return nil
	}
	j.dispatched = true
	s.running++
	runningGauge.Set(float64(s.running))
	return j
}

// runJob drives one job from the queue head to a terminal state. All
// resource cleanup happens inside execute before finish is called, so a
// terminal notification means the job's devices have been released.
func (s *Scheduler) runJob(j *Job) {
	output, err := s.execute(j)
	s.finish(j, output, err)
}

func (s *Scheduler) execute(j *Job) (string, error) {
	ctx, cancel := context.WithTimeout(s.runCtx, s.cfg.JobTimeout)
	defer cancel()

	s.mu.Lock()
	if j.cancelRequested {
		s.mu.Unlock()
		return "", cancelledError{}
	}
	j.cancel = cancel
	s.mu.Unlock()

	// Fresh admission: free memory may have changed while the job queued.
	// A rejection here fails the job rather than requeueing it, so a
	// memory shortage cannot turn into a retry storm.
	dec, err := s.Check(ctx, j.Model, j.DeviceIDs)
	if err != nil {
		return "", s.runError(j, err)
	}
	if !dec.Admit {
		admissionRejects.Inc()
		s.pub.Publish(Event{Name: EventAdmissionRejected, JobID: j.ID, Fields: map[string]any{
			"model":                j.Model,
			"insufficient_devices": dec.Insufficient,
			"recommended_models":   dec.Recommended,
		}})
		return "", resourceExhaustedError{
			model:        j.Model,
			insufficient: dec.Insufficient,
			recommended:  dec.Recommended,
		}
	}

	s.mu.Lock()
	j.Status = types.StatusProcessing
	j.StartedAt = time.Now()
	j.Message = "starting"
	s.mu.Unlock()
	s.pub.Publish(Event{Name: EventProcessing, JobID: j.ID, Fields: map[string]any{
		"message":  "starting",
		"progress": 0,
	}})
	s.log.Info().Str("job", j.ID).Str("model", j.Model).Ints("devices", j.DeviceIDs).
		Msg("job started")

	devices := placements(j.DeviceIDs)

	// Serialize per device before touching the engine. Ascending order so
	// two multi-device jobs cannot deadlock on each other's slots.
	releaseSlots, err := s.acquireSlots(ctx, devices)
	if err != nil {
		return "", s.runError(j, err)
	}
	defer releaseSlots()

	// Guaranteed cleanup: whatever was acquired below is returned and the
	// job's devices reclaimed, on success, failure, and cancellation alike.
	var acquired []cacheKey
	defer func() { s.releaseJobResources(j, acquired) }()

	sessions := make([]engine.Session, 0, len(devices))
	for _, d := range devices {
		sess, aerr := s.cache.Acquire(ctx, j.Model, d)
		if aerr != nil {
			return "", s.runError(j, aerr)
		}
		acquired = append(acquired, cacheKey{model: j.Model, device: d})
		sessions = append(sessions, sess)
	}
	s.setProgress(j, 10, "model ready")

	res, err := sessions[0].Transcribe(ctx, engine.TranscribeRequest{
		Input:    j.Input,
		Language: j.Language,
	}, func(pct int) {
		s.setProgress(j, mapProgress(pct), "transcribing")
	})
	if err != nil {
		return "", s.runError(j, err)
	}

	out, err := writeTranscript(s.cfg.OutputDir, j.Input, j.ID, res.Text)
	if err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return out, nil
}

// placements maps the job's device list to engine placements; an empty list
// is the CPU fallback path. Duplicate ids collapse to one placement: a job
// must never contend with itself for a device's capacity-1 slot.
func placements(deviceIDs []int) []int {
	if len(deviceIDs) == 0 {
		return []int{engine.CPUDevice}
	}
	out := append([]int(nil), deviceIDs...)
	sort.Ints(out)
	uniq := out[:1]
	for _, d := range out[1:] {
		if d != uniq[len(uniq)-1] {
			uniq = append(uniq, d)
		}
	}
	return uniq
}

// acquireSlots takes the per-device slots in ascending order, releasing any
// already held on failure. The returned func is idempotent.
func (s *Scheduler) acquireSlots(ctx context.Context, devices []int) (func(), error) {
	held := make([]chan struct{}, 0, len(devices))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
		held = nil
	}
	for _, d := range devices {
		slot := s.deviceSlot(d)
		select {
		case slot <- struct{}{}:
			held = append(held, slot)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	var done bool
	return func() {
		if !done {
			done = true
			release()
		}
	}, nil
}

// releaseJobResources returns every borrowed session, unloads entries no
// other job shares, and requests a driver reclamation pass over the job's
// devices. Failures are logged; cleanup never fails the caller.
func (s *Scheduler) releaseJobResources(j *Job, acquired []cacheKey) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, k := range acquired {
		s.cache.Done(k.model, k.device)
		if s.cache.Refs(k.model, k.device) == 0 {
			if err := s.cache.Release(ctx, k.model, k.device); err != nil {
				s.log.Warn().Str("job", j.ID).Str("model", k.model).
					Int("device", k.device).Err(err).Msg("release after job failed")
			}
		}
	}
	for _, d := range j.DeviceIDs {
		if err := s.reg.Reclaim(ctx, d); err != nil {
			s.log.Warn().Str("job", j.ID).Int("device", d).Err(err).
				Msg("device reclaim after job failed")
		}
	}
}

// runError classifies an execution error into the job failure taxonomy.
func (s *Scheduler) runError(j *Job, err error) error {
	s.mu.RLock()
	cancelled := j.cancelRequested
	s.mu.RUnlock()
	switch {
	case cancelled:
		return cancelledError{}
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutError{after: s.cfg.JobTimeout}
	case errors.Is(err, context.Canceled):
		// Run context cancelled by shutdown.
		return cancelledError{}
	case IsLoadFailed(err), IsResourceExhausted(err), IsDeviceNotFound(err), IsUnknownModel(err):
		return err
	default:
		return engineFailureError{cause: err}
	}
}

// setProgress applies a monotonic progress update while the job is still
// processing; stale or disordered reports are ignored.
func (s *Scheduler) setProgress(j *Job, pct int, msg string) {
	s.mu.Lock()
	if j.Status != types.StatusProcessing || pct <= j.Progress {
		s.mu.Unlock()
		return
	}
	j.Progress = pct
	j.Message = msg
	s.mu.Unlock()
	s.pub.Publish(Event{Name: EventProcessing, JobID: j.ID, Fields: map[string]any{
		"message":  msg,
		"progress": pct,
	}})
}

// mapProgress converts an engine-reported completion percentage onto the
// job's 15..95 band, in multiples of 5. 100 is reserved for completion.
func mapProgress(pct int) int {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	p := 15 + pct*80/100
	p -= p % 5
	if p > 95 {
		p = 95
	}
	return p
}
