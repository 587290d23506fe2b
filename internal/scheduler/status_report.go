package scheduler

import (
	"context"
	"sort"
	"time"

	"whisperd/internal/gpu"
	"whisperd/pkg/types"
)

// Status builds a detailed status response for /status.
func (s *Scheduler) Status(ctx context.Context) types.StatusResponse {
	s.mu.RLock()
	resp := types.StatusResponse{
		State:          "ready",
		QueueDepth:     len(s.queue),
		Running:        s.running,
		MaxConcurrency: s.cfg.MaxConcurrency,
		CompletedTotal: s.completedTotal,
		FailedTotal:    s.failedTotal,
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
	if s.draining {
		resp.State = "draining"
	}
	s.mu.RUnlock()

	resp.LoadedModels = s.cache.Loaded()
	devs, err := s.reg.Devices(ctx)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Devices = deviceSnapshots(devs)
	}
	return resp
}

// Models returns the footprint table with per-model fit flags against the
// default devices' current free memory.
func (s *Scheduler) Models(ctx context.Context) types.ModelsResponse {
	minFree := -1
	for _, id := range s.cfg.DefaultDevices {
		dev, err := s.reg.Snapshot(ctx, id)
		if err != nil {
			minFree = -1
			break
		}
		if minFree < 0 || dev.FreeMB < minFree {
			minFree = dev.FreeMB
		}
	}

	resp := types.ModelsResponse{
		Models:       make([]types.ModelInfo, 0, len(s.cfg.Footprints)),
		Languages:    append([]string(nil), s.cfg.Languages...),
		DefaultModel: s.cfg.DefaultModel,
	}
	for name, mb := range s.cfg.Footprints {
		resp.Models = append(resp.Models, types.ModelInfo{
			Name:        name,
			FootprintMB: mb,
			Default:     name == s.cfg.DefaultModel,
			Fits:        minFree >= 0 && withMargin(mb, s.cfg.Margin) <= minFree,
		})
	}
	sort.Slice(resp.Models, func(i, k int) bool {
		if resp.Models[i].FootprintMB != resp.Models[k].FootprintMB {
			return resp.Models[i].FootprintMB < resp.Models[k].FootprintMB
		}
		return resp.Models[i].Name < resp.Models[k].Name
	})
	return resp
}

// Devices returns current per-device snapshots for display purposes.
func (s *Scheduler) Devices(ctx context.Context) (types.DevicesResponse, error) {
	devs, err := s.reg.Devices(ctx)
	if err != nil {
		return types.DevicesResponse{}, err
	}
	return types.DevicesResponse{Devices: deviceSnapshots(devs)}, nil
}

func deviceSnapshots(devs []gpu.Device) []types.DeviceSnapshot {
	out := make([]types.DeviceSnapshot, len(devs))
	for i, d := range devs {
		out[i] = types.DeviceSnapshot{
			ID:          d.ID,
			Name:        d.Name,
			TotalMB:     d.TotalMB,
			UsedMB:      d.UsedMB,
			FreeMB:      d.FreeMB,
			Utilization: d.Utilization,
			Temperature: d.Temperature,
		}
	}
	return out
}
