package gpu

import "context"

// Device is a point-in-time snapshot of one compute device. Memory values
// are in MiB and are recomputed on every query; callers must not cache them
// beyond a single admission decision.
type Device struct {
	ID          int
	Name        string
	TotalMB     int
	UsedMB      int
	FreeMB      int
	Utilization int
	Temperature int
}

// Driver abstracts the mechanism that reads device state and asks the
// underlying driver to reclaim memory. Implementations must be safe for
// concurrent use.
type Driver interface {
	// Devices enumerates all devices with fresh memory readings.
	// A deployment with zero devices returns an empty slice, not an error.
	Devices(ctx context.Context) ([]Device, error)
	// Reclaim requests a device-memory reclamation and statistics reset for
	// one device. Best-effort: callers log failures and continue.
	Reclaim(ctx context.Context, id int) error
}

// deviceNotFoundError signals an unknown or vanished device id.
type deviceNotFoundError struct{ id int }

func (e deviceNotFoundError) Error() string { return "device not found: " + itoa(e.id) }

// ErrDeviceNotFound constructs a device-not-found error for the given id.
func ErrDeviceNotFound(id int) error { return deviceNotFoundError{id: id} }

// IsDeviceNotFound reports whether err indicates an unknown device id.
func IsDeviceNotFound(err error) bool {
	_, ok := err.(deviceNotFoundError)
	return ok
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
