package gpu

import (
	"context"
	"sync"
)

// StaticDriver serves a fixed device table. It backs CPU-only deployments
// (zero devices) and tests that need deterministic memory readings; tests
// can adjust free memory between calls with SetFree.
type StaticDriver struct {
	mu       sync.Mutex
	devices  []Device
	reclaims map[int]int
}

// NewStaticDriver builds a driver over the given devices. No devices means
// a CPU-only deployment.
func NewStaticDriver(devices ...Device) *StaticDriver {
	return &StaticDriver{
		devices:  append([]Device(nil), devices...),
		reclaims: make(map[int]int),
	}
}

func (d *StaticDriver) Devices(ctx context.Context) ([]Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Device, len(d.devices))
	copy(out, d.devices)
	return out, nil
}

func (d *StaticDriver) Reclaim(ctx context.Context, id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dev := range d.devices {
		if dev.ID == id {
			d.reclaims[id]++
			return nil
		}
	}
	return deviceNotFoundError{id: id}
}

// SetFree updates one device's free memory (and used accordingly).
// No-op for unknown ids.
func (d *StaticDriver) SetFree(id, freeMB int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.devices {
		if d.devices[i].ID == id {
			d.devices[i].FreeMB = freeMB
			d.devices[i].UsedMB = d.devices[i].TotalMB - freeMB
			return
		}
	}
}

// Reclaims returns how many reclamation requests device id has received.
func (d *StaticDriver) Reclaims(id int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reclaims[id]
}
