package scheduler

import (
	"errors"
	"fmt"
	"testing"

	"whisperd/internal/gpu"
)

func TestErrorPredicatesThroughWrapping(t *testing.T) {
	cases := []struct {
		err  error
		pred func(error) bool
		name string
	}{
		{ErrUnknownModel("huge"), IsUnknownModel, "unknown model"},
		{resourceExhaustedError{model: "large"}, IsResourceExhausted, "resource exhausted"},
		{loadFailedError{model: "base", device: 0, cause: errors.New("oom")}, IsLoadFailed, "load failed"},
		{engineFailureError{cause: errors.New("crash")}, IsEngineFailure, "engine failure"},
		{timeoutError{}, IsTimeout, "timeout"},
		{cancelledError{}, IsCancelled, "cancelled"},
		{queueFullError{depth: 32}, IsQueueFull, "queue full"},
		{shuttingDownError{}, IsShuttingDown, "shutting down"},
		{jobNotFoundError{id: "x"}, IsJobNotFound, "job not found"},
		{jobDoneError{id: "x"}, IsJobDone, "job done"},
	}
	for _, c := range cases {
		if !c.pred(c.err) {
			t.Fatalf("%s: predicate false on bare error", c.name)
		}
		wrapped := fmt.Errorf("submit: %w", c.err)
		if !c.pred(wrapped) {
			t.Fatalf("%s: predicate false through %%w", c.name)
		}
		if c.pred(errors.New("unrelated")) {
			t.Fatalf("%s: predicate true on unrelated error", c.name)
		}
	}
}

func TestIsDeviceNotFoundWalksChain(t *testing.T) {
	base := gpu.ErrDeviceNotFound(7)
	if !IsDeviceNotFound(base) {
		t.Fatalf("bare device error not detected")
	}
	wrapped := loadFailedError{model: "base", device: 7, cause: base}
	if !IsDeviceNotFound(wrapped) {
		t.Fatalf("device error not found through load failure")
	}
	if !IsDeviceNotFound(fmt.Errorf("dispatch: %w", wrapped)) {
		t.Fatalf("device error not found through double wrap")
	}
	if IsDeviceNotFound(errors.New("nope")) {
		t.Fatalf("false positive")
	}
}

func TestRejectionDetailRoundTrip(t *testing.T) {
	err := resourceExhaustedError{
		model:       "large",
		recommended: []string{"base", "tiny"},
	}
	_, rec, ok := RejectionDetail(fmt.Errorf("submit: %w", err))
	if !ok || len(rec) != 2 {
		t.Fatalf("ok=%v rec=%v", ok, rec)
	}
	if _, _, ok := RejectionDetail(errors.New("other")); ok {
		t.Fatalf("detail from unrelated error")
	}
}
