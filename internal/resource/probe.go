package resource

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Snapshot is a point-in-time read of host capacity. It is produced
// fresh on every query and never cached beyond one scheduling decision.
type Snapshot struct {
	AvailableMemoryGB    float64 `json:"available_memory_gb"`
	AvailableCores       int     `json:"available_cores"`
	AcceleratorAvailable bool    `json:"accelerator_available"`
	AcceleratorMemoryGB  float64 `json:"accelerator_memory_gb"`
}

// Conservative values used when a probe fails. Scheduling must never
// block on a resource query, so failures degrade instead of erroring.
const (
	conservativeMemoryGB = 2.0
)

type Probe struct {
	log *logrus.Entry
}

func NewProbe() *Probe {
	return &Probe{log: logrus.WithField("component", "resource-probe")}
}

// Snapshot reports current capacity. It never fails: a memory probe
// error yields the conservative estimate and an accelerator probe error
// reports no accelerator.
func (p *Probe) Snapshot(ctx context.Context) Snapshot {
	snap := Snapshot{
		AvailableCores:    runtime.NumCPU(),
		AvailableMemoryGB: conservativeMemoryGB,
	}

	if memGB, err := availableMemoryGB(); err != nil {
		p.log.WithError(err).Debug("memory probe failed, using conservative estimate")
	} else {
		snap.AvailableMemoryGB = memGB
	}

	if gpuGB, err := acceleratorMemoryGB(ctx); err != nil {
		p.log.WithError(err).Debug("accelerator probe failed, assuming none")
	} else {
		snap.AcceleratorAvailable = true
		snap.AcceleratorMemoryGB = gpuGB
	}

	return snap
}

func availableMemoryGB() (float64, error) {
	switch runtime.GOOS {
	case "linux":
		out, err := exec.Command("grep", "MemAvailable", "/proc/meminfo").Output()
		if err != nil {
			return 0, err
		}
		// "MemAvailable:   12345678 kB"
		fields := strings.Fields(string(out))
		if len(fields) < 2 {
			return 0, errors.New("unexpected meminfo format")
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return float64(kb) / (1024 * 1024), nil

	case "darwin":
		out, err := exec.Command("sysctl", "-n", "hw.memsize").Output()
		if err != nil {
			return 0, err
		}
		b, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64)
		if err != nil {
			return 0, err
		}
		return float64(b) / (1024 * 1024 * 1024), nil

	default:
		return 0, errors.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

func acceleratorMemoryGB(ctx context.Context) (float64, error) {
	cmd := exec.CommandContext(ctx,
		"nvidia-smi", "--query-gpu=memory.free", "--format=csv,noheader,nounits")
	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}

	// One line per GPU, free memory in MiB. The first device is the one
	// task bodies train on.
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return 0, errors.New("no accelerator reported")
	}
	mib, err := strconv.ParseFloat(strings.TrimSpace(lines[0]), 64)
	if err != nil {
		return 0, err
	}
	return mib / 1024, nil
}
