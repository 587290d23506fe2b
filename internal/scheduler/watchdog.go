package scheduler

import (
	"context"
	"time"
)

// watchdog periodically samples device memory, keeps the free-memory gauge
// current, and publishes out-of-band memory_low warnings when a device
// drops below the configured watermark.
func (s *Scheduler) watchdog() {
	defer s.wg.Done()
	t := time.NewTicker(s.cfg.WatchInterval)
	defer t.Stop()
	for {
		select {
		case <-s.runCtx.Done():
			return
		case <-t.C:
		}
		s.sampleMemory(s.runCtx)
	}
}

func (s *Scheduler) sampleMemory(ctx context.Context) {
	devs, err := s.reg.Devices(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("watchdog: device query failed")
		return
	}
	for _, d := range devs {
		deviceFreeMB.WithLabelValues(deviceLabel(d.ID)).Set(float64(d.FreeMB))
		if s.cfg.WatermarkMB <= 0 || d.FreeMB >= s.cfg.WatermarkMB {
			continue
		}
		rec := s.fittingModels(d.FreeMB)
		s.pub.Publish(Event{Name: EventMemoryLow, Fields: map[string]any{
			"device_id":          d.ID,
			"free_mb":            d.FreeMB,
			"recommended_models": rec,
		}})
		s.log.Warn().Int("device", d.ID).Int("free_mb", d.FreeMB).
			Int("watermark_mb", s.cfg.WatermarkMB).Msg("device memory low")
	}
}
