package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/podushkina/schedcore/internal/bench"
	"github.com/podushkina/schedcore/internal/config"
	"github.com/podushkina/schedcore/internal/executor"
	"github.com/podushkina/schedcore/internal/resource"
	"github.com/podushkina/schedcore/internal/sampler"
	"github.com/podushkina/schedcore/internal/task"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath     string
		numTasks    int
		quickTest   string
		datasetSize int
	)

	cmd := &cobra.Command{
		Use:          "schedbench",
		Short:        "Run a synthetic workload through the execution scheduler",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
				logrus.SetLevel(level)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, numTasks, quickTest, datasetSize)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	cmd.Flags().IntVar(&numTasks, "tasks", 8, "number of synthetic tasks to submit")
	cmd.Flags().StringVar(&quickTest, "quick-test", "", "quick-test sampling strategy (random, first, stratified)")
	cmd.Flags().IntVar(&datasetSize, "dataset-size", 1000, "synthetic dataset size for quick-test selection")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, numTasks int, quickTest string, datasetSize int) error {
	m := executor.NewManager(cfg, resource.NewProbe())
	defer m.Cleanup()

	if quickTest != "" {
		indices, err := m.SelectQuickTestSubset(datasetSize, sampler.Strategy(quickTest))
		if err != nil {
			return err
		}
		logrus.Infof("quick-test subset: %d of %d samples", len(indices), datasetSize)
	}

	tc := m.OptimizeResourceUsage(ctx, config.DefaultTrainingConfig())
	logrus.WithFields(logrus.Fields{
		"batch_size": tc.BatchSize,
		"max_epochs": tc.MaxEpochs,
	}).Info("training config after resource optimization")

	if m.EnableParallel(ctx) {
		logrus.Infof("worker pool ready with %d slots", m.WorkerPool().Size())
	}

	bodies := make([]task.Body, 0, numTasks)
	for i := 0; i < numTasks; i++ {
		switch i % 4 {
		case 0:
			bodies = append(bodies, bench.Busywork(1<<22))
		case 1:
			bodies = append(bodies, bench.Sleeper(50*time.Millisecond))
		case 2:
			bodies = append(bodies, bench.FailTimes(1, "recovered"))
		default:
			bodies = append(bodies, bench.Succeed("ok"))
		}
	}
	m.Submit(bodies, task.PriorityNormal, cfg.MaxRetries, cfg.TaskTimeout)
	m.Submit([]task.Body{bench.FailAlways("permanent failure")},
		task.PriorityLow, 1, cfg.TaskTimeout)

	res := m.Run(ctx)
	stats := m.Stats()
	logrus.WithFields(logrus.Fields{
		"succeeded": len(res.Succeeded),
		"failed":    len(res.Failed),
		"executed":  stats.TasksExecuted,
	}).Info("drain complete")

	for _, failed := range res.Failed {
		logrus.WithField("task", failed.ID).WithError(failed.LastError).Warn("failed task")
	}
	return nil
}
