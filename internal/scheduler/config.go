package scheduler

import "time"

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMargin         = 1.25
	defaultMaxConcurrency = 1
	defaultMaxQueueDepth  = 32
	defaultJobTimeout     = time.Hour
	defaultDrainGrace     = 30 * time.Second
	defaultRetainFinished = 64
	defaultOutputDir      = "outputs"
)

// DefaultFootprints returns the built-in model footprint table in MiB.
// Estimates only; actual allocation is re-measured from the device registry.
func DefaultFootprints() map[string]int {
	return map[string]int{
		"tiny":     512,
		"base":     1024,
		"small":    2048,
		"medium":   5120,
		"large":    10240,
		"large-v2": 10240,
		"large-v3": 10240,
	}
}

// Config encapsulates all tunables for Scheduler construction.
type Config struct {
	// Footprints maps model name to estimated memory in MiB.
	Footprints map[string]int
	// DefaultModel is used when a submission omits the model.
	DefaultModel string
	// DefaultDevices is used when a submission omits device ids entirely.
	// An explicit empty list on a submission still means CPU fallback.
	DefaultDevices []int
	// Margin multiplies the footprint for the admission check; must be >1.
	Margin float64
	// MaxConcurrency bounds the worker pool.
	MaxConcurrency int
	// MaxQueueDepth bounds the pending queue.
	MaxQueueDepth int
	// JobTimeout is the per-job wall-clock budget.
	JobTimeout time.Duration
	// DrainGrace bounds how long shutdown waits for in-flight jobs.
	DrainGrace time.Duration
	// OutputDir receives transcript files.
	OutputDir string
	// RetainFinished bounds how many terminal jobs stay queryable.
	RetainFinished int
	// WatchInterval is the low-memory sampling period; 0 disables it.
	WatchInterval time.Duration
	// WatermarkMB triggers memory_low events when free memory drops below
	// it; 0 disables the warning.
	WatermarkMB int
	// Languages advertised on /models. Opaque to the scheduler.
	Languages []string
}

// withDefaults returns a copy of c with unset fields replaced by defaults.
func (c Config) withDefaults() Config {
	if len(c.Footprints) == 0 {
		c.Footprints = DefaultFootprints()
	}
	if c.Margin <= 1.0 {
		c.Margin = defaultMargin
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = defaultMaxConcurrency
	}
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = defaultMaxQueueDepth
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}
	if c.DrainGrace <= 0 {
		c.DrainGrace = defaultDrainGrace
	}
	if c.RetainFinished <= 0 {
		c.RetainFinished = defaultRetainFinished
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	return c
}
