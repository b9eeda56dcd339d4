package sampler

import (
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_RandomIsDeterministic(t *testing.T) {
	first, err := Select(1000, 0.1, 100, StrategyRandom)
	require.NoError(t, err)
	second, err := Select(1000, 0.1, 100, StrategyRandom)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 100)
}

func TestSelect_FirstReturnsLeadingIndices(t *testing.T) {
	got, err := Select(1000, 0.1, 100, StrategyFirst)
	require.NoError(t, err)

	require.Len(t, got, 100)
	for i, idx := range got {
		assert.Equal(t, i+1, idx)
	}
}

func TestSelect_StratifiedIsEvenlySpaced(t *testing.T) {
	got, err := Select(100, 0.1, 100, StrategyStratified)
	require.NoError(t, err)

	require.Len(t, got, 10)
	assert.Equal(t, 1, got[0])
	// Spacing of 10 across 1..100.
	for i := 1; i < len(got); i++ {
		assert.Equal(t, 10, got[i]-got[i-1])
	}
}

func TestSelect_PostconditionSortedUniqueSized(t *testing.T) {
	for _, strategy := range []Strategy{StrategyRandom, StrategyFirst, StrategyStratified} {
		t.Run(string(strategy), func(t *testing.T) {
			got, err := Select(1000, 0.1, 100, strategy)
			require.NoError(t, err)

			assert.Len(t, got, 100)
			assert.True(t, sort.IntsAreSorted(got))

			seen := make(map[int]struct{}, len(got))
			for _, idx := range got {
				assert.GreaterOrEqual(t, idx, 1)
				assert.LessOrEqual(t, idx, 1000)
				_, dup := seen[idx]
				assert.False(t, dup, "duplicate index %d", idx)
				seen[idx] = struct{}{}
			}
		})
	}
}

func TestSelect_MaxSamplesCaps(t *testing.T) {
	got, err := Select(1000, 0.5, 100, StrategyFirst)
	require.NoError(t, err)

	assert.Len(t, got, 100)
}

func TestSelect_SmallDatasetReturnsAll(t *testing.T) {
	got, err := Select(5, 1.0, 100, StrategyRandom)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestSelect_UnsupportedStrategy(t *testing.T) {
	_, err := Select(1000, 0.1, 100, "alphabetical")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedStrategy))
}

func TestSelect_EmptyDataset(t *testing.T) {
	got, err := Select(0, 0.1, 100, StrategyFirst)
	require.NoError(t, err)

	assert.Empty(t, got)
}
