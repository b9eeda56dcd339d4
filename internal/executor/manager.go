package executor

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/podushkina/schedcore/internal/config"
	"github.com/podushkina/schedcore/internal/queue"
	"github.com/podushkina/schedcore/internal/resource"
	"github.com/podushkina/schedcore/internal/sampler"
	"github.com/podushkina/schedcore/internal/task"
	"github.com/podushkina/schedcore/internal/worker"
)

// Prober supplies resource snapshots. Satisfied by *resource.Probe;
// tests substitute fixed snapshots.
type Prober interface {
	Snapshot(ctx context.Context) resource.Snapshot
}

// Manager is the facade the training/comparison pipeline talks to. It
// exclusively owns the queue, the statistics, and the worker-pool
// handle for its lifetime.
type Manager struct {
	cfg   *config.Config
	queue *queue.Queue
	exec  *Executor
	probe Prober
	log   *logrus.Entry

	mu    sync.Mutex
	stats Stats
	pool  *worker.Pool
}

func NewManager(cfg *config.Config, probe Prober) *Manager {
	m := &Manager{
		cfg:   cfg,
		queue: queue.New(),
		probe: probe,
		log:   logrus.WithField("component", "execution-manager"),
		stats: Stats{StartTime: time.Now()},
	}
	m.exec = New(m.queue, m.recordAttempt)
	return m
}

func (m *Manager) recordAttempt(o Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch o {
	case OutcomeSucceeded:
		m.stats.TasksExecuted++
		m.stats.TasksSucceeded++
	case OutcomeRetried:
		m.stats.TasksExecuted++
	case OutcomeExhausted, OutcomeCancelled:
		m.stats.TasksFailed++
	}
}

// Submit enqueues one task per body. Non-positive maxRetries or timeout
// fall back to the configured defaults.
func (m *Manager) Submit(bodies []task.Body, priority task.Priority, maxRetries int, timeout time.Duration) {
	if maxRetries < 0 {
		maxRetries = m.cfg.MaxRetries
	}
	if timeout <= 0 {
		timeout = m.cfg.TaskTimeout
	}

	for _, body := range bodies {
		t := &task.Task{
			Body:       body,
			Priority:   priority,
			MaxRetries: maxRetries,
			Timeout:    timeout,
		}
		m.queue.Enqueue(t)
		m.log.WithFields(logrus.Fields{
			"task":     t.ID,
			"priority": priority,
		}).Debug("task submitted")
	}
}

// Run drains the queue and returns the partitioned results. It blocks
// until every submitted task reaches a terminal state.
func (m *Manager) Run(ctx context.Context) Results {
	return m.exec.Drain(ctx)
}

// Stats returns a copy of the counters; callers cannot mutate the
// manager's own aggregate through it.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.stats
	if m.stats.QuickTest != nil {
		qt := *m.stats.QuickTest
		snapshot.QuickTest = &qt
	}
	return snapshot
}

// EnableParallel creates the worker pool when the host has headroom for
// it. A negative answer is logged, not returned as an error: execution
// simply proceeds sequentially.
func (m *Manager) EnableParallel(ctx context.Context) bool {
	snap := m.probe.Snapshot(ctx)
	if !resource.EnableParallelExecution(snap) {
		m.log.WithFields(logrus.Fields{
			"memory_gb":      snap.AvailableMemoryGB,
			"accelerator_gb": snap.AcceleratorMemoryGB,
		}).Info("insufficient headroom, running sequentially")
		return false
	}

	workers := resource.ComputeWorkerCount(snap, m.cfg.MaxConcurrentJobs)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool == nil {
		m.pool = worker.NewPool(workers)
		m.log.Infof("parallel execution enabled with %d workers", workers)
	}
	return true
}

// WorkerPool returns the pool handle for task bodies to submit sub-work
// to, or nil when parallel execution is not enabled. Bodies must not
// stop or replace it.
func (m *Manager) WorkerPool() *worker.Pool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool
}

// OptimizeResourceUsage adjusts a training configuration to the current
// snapshot according to the construction-time optimization toggles.
func (m *Manager) OptimizeResourceUsage(ctx context.Context, tc config.TrainingConfig) config.TrainingConfig {
	snap := m.probe.Snapshot(ctx)

	if m.cfg.EnableMemoryOptimization {
		tc = resource.OptimizeBatchSize(tc, snap)
	}
	if m.cfg.EnableAcceleratorOptimization && snap.AcceleratorAvailable {
		// The accelerator tier is a ceiling: RAM headroom never pushes
		// the batch past what the device can hold.
		if rec := resource.RecommendBatchSize(snap); !m.cfg.EnableMemoryOptimization || rec < tc.BatchSize {
			tc.BatchSize = rec
		}
	}

	m.log.WithField("batch_size", tc.BatchSize).Debug("training config optimized")
	return tc
}

// SelectQuickTestSubset picks the quick-test sample indices for a
// dataset of totalSamples and records the selection in the stats.
func (m *Manager) SelectQuickTestSubset(totalSamples int, strategy sampler.Strategy) ([]int, error) {
	indices, err := sampler.Select(totalSamples, m.cfg.QuickTestRatio, m.cfg.QuickTestMaxSamples, strategy)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.stats.QuickTest = &QuickTestStats{
		OriginalSamples: totalSamples,
		SelectedSamples: len(indices),
		Strategy:        string(strategy),
	}
	m.mu.Unlock()

	m.log.Infof("quick-test mode: %d of %d samples (%s)", len(indices), totalSamples, strategy)
	return indices, nil
}

// Cleanup drops pending tasks and releases the worker pool. Idempotent.
func (m *Manager) Cleanup() {
	m.queue.Clear()

	m.mu.Lock()
	pool := m.pool
	m.pool = nil
	m.mu.Unlock()

	if pool != nil {
		pool.Stop()
	}
	m.log.Debug("cleanup complete")
}
