package scheduler

import (
	"context"
	"testing"
	"time"

	"whisperd/internal/engine"
	"whisperd/internal/gpu"
	"whisperd/pkg/types"
)

// testRig bundles a scheduler with its fakes. Tests adjust the static
// driver's free memory and the stub engine's behavior before Start.
type testRig struct {
	s   *Scheduler
	drv *gpu.StaticDriver
	eng *engine.StubEngine
	pub *MemoryPublisher
}

// device8G is a device with 8 GiB free, plenty for every built-in model
// except the large family.
func device8G(id int) gpu.Device {
	return gpu.Device{ID: id, Name: "test-gpu", TotalMB: 10240, UsedMB: 2048, FreeMB: 8192}
}

func newRig(t *testing.T, cfg Config, devices ...gpu.Device) *testRig {
	t.Helper()
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = 5 * time.Second
	}
	if cfg.DrainGrace == 0 {
		cfg.DrainGrace = time.Second
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "base"
	}
	drv := gpu.NewStaticDriver(devices...)
	eng := &engine.StubEngine{}
	s := New(cfg, gpu.NewRegistry(drv), eng)
	pub := NewMemoryPublisher()
	s.SetEventPublisher(pub)
	return &testRig{s: s, drv: drv, eng: eng, pub: pub}
}

// start launches the rig and registers a bounded shutdown on cleanup.
func (r *testRig) start(t *testing.T) {
	t.Helper()
	r.s.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		r.s.Shutdown(ctx)
	})
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

// waitStatus polls until the job reaches want or the deadline passes.
func waitStatus(t *testing.T, s *Scheduler, id string, want types.JobStatus) types.JobView {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		v, err := s.Job(id)
		if err != nil {
			t.Fatalf("job %s: %v", id, err)
		}
		if v.Status == want {
			return v
		}
		if v.Status.Terminal() {
			t.Fatalf("job %s reached %s (err=%q), want %s", id, v.Status, v.Error, want)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s stuck in %s, want %s", id, v.Status, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// waitTerminal polls until the job reaches any terminal state.
func waitTerminal(t *testing.T, s *Scheduler, id string) types.JobView {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		v, err := s.Job(id)
		if err != nil {
			t.Fatalf("job %s: %v", id, err)
		}
		if v.Status.Terminal() {
			return v
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s stuck in %s", id, v.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// waitCond polls an arbitrary condition; cleanup after a terminal event is
// asynchronous only across jobs, never within one, but tests still poll to
// stay robust.
func waitCond(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached: %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func submitOK(t *testing.T, r *testRig, req types.SubmitRequest) string {
	t.Helper()
	resp, err := r.s.Submit(testCtx(t), req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return resp.JobID
}
