package resource

// Sizing constants. Two gigabytes per worker keeps a data-loading
// worker from pushing the host into swap; the parallel thresholds gate
// the optimization entirely when the host is already tight.
const (
	memoryPerWorkerGB        = 2.0
	parallelMemoryMinGB      = 4.0
	parallelAcceleratorMinGB = 2.0
)

// ComputeWorkerCount derives a safe parallelism degree from a snapshot:
// physical cores, capped by available memory at memoryPerWorkerGB per
// worker, capped by configuredMax, and never below 1.
func ComputeWorkerCount(snap Snapshot, configuredMax int) int {
	n := snap.AvailableCores

	if byMemory := int(snap.AvailableMemoryGB / memoryPerWorkerGB); byMemory < n {
		n = byMemory
	}
	if configuredMax > 0 && configuredMax < n {
		n = configuredMax
	}
	if n < 1 {
		n = 1
	}
	return n
}

// EnableParallelExecution reports whether the host has headroom for a
// worker pool. Parallelism is an optimization, never a requirement, so
// an unmet threshold returns false rather than an error.
func EnableParallelExecution(snap Snapshot) bool {
	if snap.AvailableMemoryGB < parallelMemoryMinGB {
		return false
	}
	if snap.AcceleratorAvailable && snap.AcceleratorMemoryGB < parallelAcceleratorMinGB {
		return false
	}
	return true
}
