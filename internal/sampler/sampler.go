package sampler

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// Strategy selects which subset of a dataset a quick-test run sees.
type Strategy string

const (
	StrategyRandom     Strategy = "random"
	StrategyFirst      Strategy = "first"
	StrategyStratified Strategy = "stratified"
)

var ErrUnsupportedStrategy = errors.New("unsupported sampling strategy")

// randomSeed is fixed so two quick-test runs over the same dataset pick
// the same subset. Reproducibility is part of the contract.
const randomSeed = 42

// Select returns a sorted set of 1-based sample indices of size
// min(maxSamples, round(totalSamples*ratio)). If the dataset is smaller
// than the target, every index is returned.
func Select(totalSamples int, ratio float64, maxSamples int, strategy Strategy) ([]int, error) {
	switch strategy {
	case StrategyRandom, StrategyFirst, StrategyStratified:
	default:
		return nil, errors.Wrapf(ErrUnsupportedStrategy, "%q", strategy)
	}

	if totalSamples <= 0 {
		return []int{}, nil
	}

	target := int(math.Round(float64(totalSamples) * ratio))
	if target > maxSamples {
		target = maxSamples
	}
	if target < 1 {
		target = 1
	}
	if target >= totalSamples {
		return sequence(totalSamples), nil
	}

	switch strategy {
	case StrategyRandom:
		r := rand.New(rand.NewSource(randomSeed))
		perm := r.Perm(totalSamples)
		indices := make([]int, target)
		for i := 0; i < target; i++ {
			indices[i] = perm[i] + 1
		}
		sort.Ints(indices)
		return indices, nil

	case StrategyFirst:
		return sequence(target), nil

	default: // StrategyStratified
		// Evenly spaced over 1..totalSamples. The step is >= 1, so
		// consecutive rounded values never collide.
		step := float64(totalSamples) / float64(target)
		indices := make([]int, target)
		for i := 0; i < target; i++ {
			idx := int(math.Round(1 + float64(i)*step))
			if idx > totalSamples {
				idx = totalSamples
			}
			indices[i] = idx
		}
		return indices, nil
	}
}

func sequence(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i + 1
	}
	return indices
}
