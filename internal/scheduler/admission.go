package scheduler

import (
	"context"
	"math"
	"sort"

	"whisperd/pkg/types"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Admit bool
	// RequiredMB is the footprint with the safety margin applied.
	RequiredMB int
	// Insufficient lists the devices that failed the check.
	Insufficient []types.DeviceShortfall
	// Recommended lists models that would fit the smallest free memory
	// among the requested devices, largest first.
	Recommended []string
}

// Check decides whether a job for model on deviceIDs can run now. It is a
// pure function of its inputs plus fresh registry snapshots and mutates
// nothing; the dispatcher calls it again immediately before running a job
// because free memory may have changed while the job sat in the queue.
//
// An empty device list is the CPU fallback path and always admits. All
// listed devices must individually clear the margin or the whole job is
// rejected.
func (s *Scheduler) Check(ctx context.Context, model string, deviceIDs []int) (Decision, error) {
	footprint, ok := s.cfg.Footprints[model]
	if !ok {
		return Decision{}, unknownModelError{name: model}
	}
	required := withMargin(footprint, s.cfg.Margin)
	dec := Decision{RequiredMB: required}
	if len(deviceIDs) == 0 {
		dec.Admit = true
		return dec, nil
	}

	minFree := math.MaxInt
	for _, id := range deviceIDs {
		dev, err := s.reg.Snapshot(ctx, id)
		if err != nil {
			return Decision{}, err
		}
		if dev.FreeMB < minFree {
			minFree = dev.FreeMB
		}
		if dev.FreeMB < required {
			dec.Insufficient = append(dec.Insufficient, types.DeviceShortfall{
				DeviceID:   id,
				FreeMB:     dev.FreeMB,
				RequiredMB: required,
			})
		}
	}
	if len(dec.Insufficient) == 0 {
		dec.Admit = true
		return dec, nil
	}
	dec.Recommended = s.fittingModels(minFree)
	return dec, nil
}

// fittingModels returns the models whose margin-adjusted footprint fits
// freeMB, ordered largest-fitting to smallest (name as tie-break).
func (s *Scheduler) fittingModels(freeMB int) []string {
	type fit struct {
		name string
		mb   int
	}
	var fits []fit
	for name, mb := range s.cfg.Footprints {
		if withMargin(mb, s.cfg.Margin) <= freeMB {
			fits = append(fits, fit{name: name, mb: mb})
		}
	}
	sort.Slice(fits, func(i, k int) bool {
		if fits[i].mb != fits[k].mb {
			return fits[i].mb > fits[k].mb
		}
		return fits[i].name < fits[k].name
	})
	out := make([]string, len(fits))
	for i, f := range fits {
		out[i] = f.name
	}
	return out
}

// withMargin scales a footprint by the safety margin, rounding up.
func withMargin(mb int, margin float64) int {
	return int(math.Ceil(float64(mb) * margin))
}
