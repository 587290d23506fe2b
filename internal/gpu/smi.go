package gpu

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// smiQueryFields is the column list passed to nvidia-smi. Keep in sync with
// parseSMILine.
const smiQueryFields = "index,name,memory.total,memory.used,memory.free,utilization.gpu,temperature.gpu"

// SMIDriver reads device state by invoking nvidia-smi. Each Devices call
// runs one subprocess, so readings are as fresh as the driver reports them.
type SMIDriver struct {
	bin string
}

// NewSMIDriver locates nvidia-smi on PATH (or uses the given path when
// non-empty). Returns an error when the binary cannot be found, so callers
// can fall back to a CPU-only deployment.
func NewSMIDriver(bin string) (*SMIDriver, error) {
	if bin == "" {
		p, err := exec.LookPath("nvidia-smi")
		if err != nil {
			return nil, fmt.Errorf("nvidia-smi not found: %w", err)
		}
		bin = p
	}
	return &SMIDriver{bin: bin}, nil
}

func (d *SMIDriver) Devices(ctx context.Context) ([]Device, error) {
	cmd := exec.CommandContext(ctx, d.bin,
		"--query-gpu="+smiQueryFields,
		"--format=csv,noheader,nounits")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi query: %w", err)
	}
	return parseSMIOutput(string(out))
}

// Reclaim clears per-process accounting stats for the device, the closest
// analog nvidia-smi offers to a driver-side statistics reset. Requires
// accounting mode; failures are expected on unprivileged hosts and are left
// to the caller to log.
func (d *SMIDriver) Reclaim(ctx context.Context, id int) error {
	cmd := exec.CommandContext(ctx, d.bin, "-i", strconv.Itoa(id), "-caa")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("nvidia-smi -caa: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func parseSMIOutput(out string) ([]Device, error) {
	var devs []Device
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		d, err := parseSMILine(line)
		if err != nil {
			return nil, err
		}
		devs = append(devs, d)
	}
	return devs, nil
}

func parseSMILine(line string) (Device, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 7 {
		return Device{}, fmt.Errorf("unexpected nvidia-smi line: %q", line)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return Device{}, fmt.Errorf("bad device index %q: %w", parts[0], err)
	}
	d := Device{ID: id, Name: parts[1]}
	d.TotalMB = atoiOr0(parts[2])
	d.UsedMB = atoiOr0(parts[3])
	d.FreeMB = atoiOr0(parts[4])
	// Utilization/temperature may read "[N/A]" on some boards; treat as 0.
	d.Utilization = atoiOr0(parts[5])
	d.Temperature = atoiOr0(parts[6])
	return d, nil
}

func atoiOr0(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
