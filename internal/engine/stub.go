package engine

import (
	"context"
	"sync"
	"time"
)

// StubEngine is an in-memory Engine for tests and engineless deployments.
// It counts loads and closes so tests can assert cache behavior, and can be
// made slow or failing via its fields.
type StubEngine struct {
	// LoadDelay is slept (context-aware) inside Load.
	LoadDelay time.Duration
	// TranscribeDelay is slept between progress steps.
	TranscribeDelay time.Duration
	// LoadErr, when set, fails every Load.
	LoadErr error
	// TranscribeErr, when set, fails every Transcribe after the first
	// progress report.
	TranscribeErr error
	// Text returned on success; empty means a canned transcript.
	Text string
	// Steps are the progress percentages emitted; nil means 25/50/75/100.
	Steps []int

	mu     sync.Mutex
	loads  int
	closes int
}

func (e *StubEngine) Load(ctx context.Context, model string, device int) (Session, error) {
	if e.LoadDelay > 0 {
		select {
		case <-time.After(e.LoadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.LoadErr != nil {
		return nil, e.LoadErr
	}
	e.mu.Lock()
	e.loads++
	e.mu.Unlock()
	return &stubSession{eng: e, model: model, device: device}, nil
}

// Loads returns how many Load calls have succeeded.
func (e *StubEngine) Loads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

// Closes returns how many sessions have been closed.
func (e *StubEngine) Closes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closes
}

type stubSession struct {
	eng    *StubEngine
	model  string
	device int
}

func (s *stubSession) Transcribe(ctx context.Context, req TranscribeRequest, onProgress func(pct int)) (Result, error) {
	steps := s.eng.Steps
	if steps == nil {
		steps = []int{25, 50, 75, 100}
	}
	for i, pct := range steps {
		if onProgress != nil {
			onProgress(pct)
		}
		if i == 0 && s.eng.TranscribeErr != nil {
			return Result{}, s.eng.TranscribeErr
		}
		if s.eng.TranscribeDelay > 0 {
			select {
			case <-time.After(s.eng.TranscribeDelay):
			case <-ctx.Done():
				return Result{}, ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return Result{}, err
		}
	}
	text := s.eng.Text
	if text == "" {
		text = "stub transcript of " + req.Input
	}
	return Result{Text: text, Language: req.Language}, nil
}

func (s *stubSession) Close() error {
	s.eng.mu.Lock()
	s.eng.closes++
	s.eng.mu.Unlock()
	return nil
}
