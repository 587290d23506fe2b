package gpu

import (
	"context"
	"fmt"
)

// Registry answers device queries for the scheduler. It holds no device
// state itself: every call goes through the Driver so admission decisions
// always see current memory readings.
type Registry struct {
	drv Driver
}

// NewRegistry wraps a Driver. The driver must not be nil.
func NewRegistry(drv Driver) *Registry {
	return &Registry{drv: drv}
}

// Devices returns fresh snapshots for all devices. Zero devices present is
// not an error.
func (r *Registry) Devices(ctx context.Context) ([]Device, error) {
	return r.drv.Devices(ctx)
}

// Snapshot returns a fresh snapshot for one device. Returns a
// device-not-found error when the id is unknown or the device disappeared.
func (r *Registry) Snapshot(ctx context.Context, id int) (Device, error) {
	devs, err := r.drv.Devices(ctx)
	if err != nil {
		return Device{}, err
	}
	for _, d := range devs {
		if d.ID == id {
			return d, nil
		}
	}
	return Device{}, deviceNotFoundError{id: id}
}

// Reclaim asks the driver to reclaim memory on one device.
func (r *Registry) Reclaim(ctx context.Context, id int) error {
	return r.drv.Reclaim(ctx, id)
}

// ReclaimAll runs a reclamation pass over every enumerable device and
// collects failures into a single error. Used by shutdown; failures are
// reported, never fatal.
func (r *Registry) ReclaimAll(ctx context.Context) error {
	devs, err := r.drv.Devices(ctx)
	if err != nil {
		return fmt.Errorf("enumerate devices: %w", err)
	}
	var firstErr error
	for _, d := range devs {
		if err := r.drv.Reclaim(ctx, d.ID); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("reclaim device %d: %w", d.ID, err)
		}
	}
	return firstErr
}
