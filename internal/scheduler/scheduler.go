package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"whisperd/internal/engine"
	"whisperd/internal/gpu"
)

// Scheduler is the job queue, dispatcher, and resource gate. One mutex
// covers the queue and the job table together so a job's state is never
// observed half-updated; it is held only for short bookkeeping sections,
// never across a blocking call.
type Scheduler struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	queue    []string // pending job ids, FIFO
	finished []string // terminal job ids, oldest first, bounded retention
	running  int
	draining bool

	completedTotal uint64
	failedTotal    uint64

	cfg   Config
	reg   *gpu.Registry
	cache *ModelCache
	pub   EventPublisher
	log   zerolog.Logger

	// deviceSlots serializes inference per device: the engine is not
	// assumed reentrant, so each device id owns one capacity-1 slot.
	slotMu      sync.Mutex
	deviceSlots map[int]chan struct{}

	wake    chan struct{}
	wg      sync.WaitGroup
	runCtx  context.Context
	runStop context.CancelFunc

	startTime time.Time
}

// New constructs a Scheduler over a device registry and an inference engine.
// Call Start to begin dispatching and Shutdown to terminate.
func New(cfg Config, reg *gpu.Registry, eng engine.Engine) *Scheduler {
	runCtx, runStop := context.WithCancel(context.Background())
	s := &Scheduler{
		jobs:        make(map[string]*Job),
		cfg:         cfg.withDefaults(),
		reg:         reg,
		cache:       NewModelCache(eng, reg),
		pub:         noopPublisher{},
		log:         zerolog.Nop(),
		deviceSlots: make(map[int]chan struct{}),
		wake:        make(chan struct{}, 1),
		runCtx:      runCtx,
		runStop:     runStop,
		startTime:   time.Now(),
	}
	return s
}

// SetEventPublisher installs the event sink. Must be called before Start.
func (s *Scheduler) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	s.pub = p
}

// SetLogger installs a structured logger. Must be called before Start.
func (s *Scheduler) SetLogger(l zerolog.Logger) {
	s.log = l
	s.cache.SetLogger(l)
}

// Start launches the worker pool and, when configured, the memory watchdog.
func (s *Scheduler) Start() {
	for i := 0; i < s.cfg.MaxConcurrency; i++ {
		s.wg.Add(1)
		go s.workerLoop()
	}
	if s.cfg.WatchInterval > 0 {
		s.wg.Add(1)
		go s.watchdog()
	}
	s.log.Info().Int("workers", s.cfg.MaxConcurrency).
		Str("default_model", s.cfg.DefaultModel).
		Ints("default_devices", s.cfg.DefaultDevices).
		Msg("scheduler started")
}

// Cache exposes the model cache for the shutdown wiring and tests.
func (s *Scheduler) Cache() *ModelCache { return s.cache }

// Subscribe attaches an event consumer when the installed publisher supports
// subscriptions (the stream publisher does). Otherwise it returns a closed
// channel so callers need no special case.
func (s *Scheduler) Subscribe() (<-chan Event, func()) {
	if sub, ok := s.pub.(EventSubscriber); ok {
		return sub.Subscribe()
	}
	ch := make(chan Event)
	close(ch)
	return ch, func() {}
}

// kick wakes one idle worker; a full wake channel means a wake-up is
// already pending.
func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// deviceSlot returns the capacity-1 slot channel for a device id, creating
// it on first use. engine.CPUDevice has a slot too: the CPU path is
// serialized the same way.
func (s *Scheduler) deviceSlot(id int) chan struct{} {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	ch, ok := s.deviceSlots[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.deviceSlots[id] = ch
	}
	return ch
}
