package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"whisperd/internal/engine"
	"whisperd/internal/gpu"
	"whisperd/pkg/types"
)

type cacheKey struct {
	model  string
	device int
}

// cacheEntry tracks one loaded model. ready is closed when the load
// finishes, successfully or not; waiters inspect loadErr afterwards.
type cacheEntry struct {
	session  engine.Session
	loadedAt time.Time
	lastUsed time.Time
	refs     int
	ready    chan struct{}
	loadErr  error
}

// ModelCache owns loaded-model sessions keyed by (model, device). Jobs
// borrow a session for the duration of one inference call and return it via
// Done; only the cache closes sessions. Concurrent Acquire calls for the
// same key invoke the engine's load at most once.
type ModelCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
	eng     engine.Engine
	reg     *gpu.Registry
	log     zerolog.Logger
}

func NewModelCache(eng engine.Engine, reg *gpu.Registry) *ModelCache {
	return &ModelCache{
		entries: make(map[cacheKey]*cacheEntry),
		eng:     eng,
		reg:     reg,
		log:     zerolog.Nop(),
	}
}

// SetLogger installs a structured logger for load/unload milestones.
func (c *ModelCache) SetLogger(l zerolog.Logger) { c.log = l }

// Acquire returns the cached session for (model, device), loading it first
// when absent. Callers that race on the same key block until the one load
// in flight completes, then share the session. A failed load leaves no
// entry behind; the next Acquire retries from scratch.
func (c *ModelCache) Acquire(ctx context.Context, model string, device int) (engine.Session, error) {
	key := cacheKey{model: model, device: device}
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.loadErr != nil {
			return nil, loadFailedError{model: model, device: device, cause: e.loadErr}
		}
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur == e {
			e.refs++
			e.lastUsed = time.Now()
			c.mu.Unlock()
			return e.session, nil
		}
		c.mu.Unlock()
		// Entry was released while we waited; load fresh.
		return c.Acquire(ctx, model, device)
	}

	e := &cacheEntry{ready: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	start := time.Now()
	sess, err := c.eng.Load(ctx, model, device)

	c.mu.Lock()
	if err != nil {
		e.loadErr = err
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		close(e.ready)
		c.mu.Unlock()
		c.log.Warn().Str("model", model).Int("device", device).Err(err).Msg("model load failed")
		return nil, loadFailedError{model: model, device: device, cause: err}
	}
	e.session = sess
	e.loadedAt = time.Now()
	e.lastUsed = e.loadedAt
	e.refs = 1
	stillOurs := c.entries[key] == e
	close(e.ready)
	c.mu.Unlock()

	if !stillOurs {
		// Released mid-load; the session must not outlive the release.
		_ = sess.Close()
		return nil, loadFailedError{model: model, device: device, cause: context.Canceled}
	}
	modelLoads.Inc()
	c.log.Info().Str("model", model).Int("device", device).
		Dur("dur", time.Since(start)).Msg("model loaded")
	return sess, nil
}

// Done returns a borrowed session. No-op for absent keys.
func (c *ModelCache) Done(model string, device int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[cacheKey{model: model, device: device}]; ok && e.refs > 0 {
		e.refs--
		e.lastUsed = time.Now()
	}
}

// Refs reports how many jobs currently borrow the entry.
func (c *ModelCache) Refs(model string, device int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[cacheKey{model: model, device: device}]; ok {
		return e.refs
	}
	return 0
}

// Release unloads one entry and asks the driver to reclaim the device's
// memory. Synchronous: reclamation has been requested by the time it
// returns. Idempotent: releasing an absent key is a no-op, not an error.
func (c *ModelCache) Release(ctx context.Context, model string, device int) error {
	key := cacheKey{model: model, device: device}
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	delete(c.entries, key)
	c.mu.Unlock()

	select {
	case <-e.ready:
	default:
		// Load still in flight; the loader observes the eviction and
		// closes the session itself.
		return nil
	}
	var err error
	if e.session != nil {
		err = e.session.Close()
	}
	modelUnloads.Inc()
	if device != engine.CPUDevice {
		if rerr := c.reg.Reclaim(ctx, device); rerr != nil && err == nil {
			err = rerr
		}
	}
	c.log.Info().Str("model", model).Int("device", device).Msg("model unloaded")
	return err
}

// ReleaseDevice unloads every entry on one device. Used by the shutdown
// protocol; the first failure is returned after all entries were attempted.
func (c *ModelCache) ReleaseDevice(ctx context.Context, device int) error {
	var firstErr error
	for _, k := range c.keys() {
		if k.device != device {
			continue
		}
		if err := c.Release(ctx, k.model, k.device); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReleaseAll unloads every entry on every device.
func (c *ModelCache) ReleaseAll(ctx context.Context) error {
	var firstErr error
	for _, k := range c.keys() {
		if err := c.Release(ctx, k.model, k.device); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *ModelCache) keys() []cacheKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]cacheKey, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	return out
}

// Loaded projects the live entries for status reporting.
func (c *ModelCache) Loaded() []types.LoadedModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.LoadedModel, 0, len(c.entries))
	for k, e := range c.entries {
		select {
		case <-e.ready:
		default:
			continue // still loading
		}
		if e.loadErr != nil {
			continue
		}
		out = append(out, types.LoadedModel{
			Model:        k.model,
			DeviceID:     k.device,
			LoadedUnix:   e.loadedAt.Unix(),
			LastUsedUnix: e.lastUsed.Unix(),
			Refs:         e.refs,
		})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Model != out[k].Model {
			return out[i].Model < out[k].Model
		}
		return out[i].DeviceID < out[k].DeviceID
	})
	return out
}
