package resource

import (
	"math"

	"github.com/pkg/errors"

	"github.com/podushkina/schedcore/internal/config"
)

type OptimizationLevel string

const (
	LevelNone       OptimizationLevel = "none"
	LevelBasic      OptimizationLevel = "basic"
	LevelAggressive OptimizationLevel = "aggressive"
)

const (
	bytesPerElement      = 4 // float32 activations
	targetMemoryFraction = 0.7
	minBatchSize         = 1
	maxBatchSize         = 32

	basicEpochCap      = 50
	basicPatience      = 10
	aggressiveEpochCap = 30
)

// RecommendBatchSize picks a batch size from a descending tier table:
// accelerator memory when one is present, system RAM otherwise.
func RecommendBatchSize(snap Snapshot) int {
	if snap.AcceleratorAvailable {
		switch {
		case snap.AcceleratorMemoryGB >= 8:
			return 16
		case snap.AcceleratorMemoryGB >= 4:
			return 8
		case snap.AcceleratorMemoryGB >= 2:
			return 4
		default:
			return 2
		}
	}
	switch {
	case snap.AvailableMemoryGB >= 16:
		return 8
	case snap.AvailableMemoryGB >= 8:
		return 4
	case snap.AvailableMemoryGB >= 4:
		return 2
	default:
		return 1
	}
}

// OptimizeBatchSize fits the batch size to a fraction of available
// memory, estimating per-sample cost from the configured input
// dimensions. The result is clamped to [1, 32].
func OptimizeBatchSize(cfg config.TrainingConfig, snap Snapshot) config.TrainingConfig {
	elements := cfg.InputHeight * cfg.InputWidth * cfg.InputChannels
	if elements <= 0 {
		return cfg
	}

	perSampleGB := bytesPerElement * float64(elements) / 1e9
	targetGB := targetMemoryFraction * snap.AvailableMemoryGB

	batch := int(math.Floor(targetGB / perSampleGB))
	if batch < minBatchSize {
		batch = minBatchSize
	}
	if batch > maxBatchSize {
		batch = maxBatchSize
	}

	cfg.BatchSize = batch
	return cfg
}

// ApplyOptimizationLevel applies a named tier of speed-for-thoroughness
// trades. It is pure and idempotent: caps are minimums and the
// aggressive validation interval is raised against the default, so a
// second application changes nothing.
func ApplyOptimizationLevel(
	cfg config.TrainingConfig, level OptimizationLevel, snap Snapshot,
) (config.TrainingConfig, error) {
	switch level {
	case LevelNone:
		return cfg, nil

	case LevelBasic:
		return applyBasic(cfg), nil

	case LevelAggressive:
		cfg = applyBasic(cfg)
		if cfg.MaxEpochs > aggressiveEpochCap {
			cfg.MaxEpochs = aggressiveEpochCap
		}
		if doubled := 2 * config.DefaultValidationInterval; cfg.ValidationInterval < doubled {
			cfg.ValidationInterval = doubled
		}
		if snap.AcceleratorAvailable {
			cfg.MixedPrecision = true
		}
		return cfg, nil

	default:
		return cfg, errors.Errorf("unknown optimization level: %q", level)
	}
}

func applyBasic(cfg config.TrainingConfig) config.TrainingConfig {
	if cfg.MaxEpochs > basicEpochCap {
		cfg.MaxEpochs = basicEpochCap
	}
	cfg.EarlyStopping = true
	cfg.Patience = basicPatience
	return cfg
}
