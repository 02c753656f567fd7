package sample

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metropipe/metropipe/internal/config"
)

func rng(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

func TestFloatsConstant(t *testing.T) {
	t.Parallel()

	out, err := Floats(config.Distribution{IsConstant: true, Constant: 2.5}, 4, rng(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5, 2.5, 2.5, 2.5}, out)
}

func TestFloatsDeterministicForFixedSeed(t *testing.T) {
	t.Parallel()

	dist := config.Distribution{Mean: 1.0, Std: 0.5, Kind: config.DistributionNormal}

	first, err := Floats(dist, 1000, rng(42))
	require.NoError(t, err)
	second, err := Floats(dist, 1000, rng(42))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := Floats(dist, 1000, rng(43))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestUniformStaysWithinBounds(t *testing.T) {
	t.Parallel()

	dist := config.Distribution{Mean: 10.0, Std: 2.0, Kind: config.DistributionUniform}
	out, err := Floats(dist, 1000, rng(7))
	require.NoError(t, err)
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 8.0)
		assert.Less(t, v, 12.0)
	}
}

func TestZeroStdCollapsesToConstant(t *testing.T) {
	t.Parallel()

	normal := config.Distribution{Mean: 3.0, Std: 0.0, Kind: config.DistributionNormal}
	out, err := Floats(normal, 10, rng(1))
	require.NoError(t, err)
	for _, v := range out {
		assert.Equal(t, 3.0, v)
	}

	lognormal := config.Distribution{Mean: 3.0, Std: 0.0, Kind: config.DistributionLognormal}
	out, err = Floats(lognormal, 10, rng(1))
	require.NoError(t, err)
	for _, v := range out {
		assert.InDelta(t, math.Exp(3.0), v, 1e-12)
	}
}

func TestIntsRoundToNearest(t *testing.T) {
	t.Parallel()

	out, err := Ints(config.Distribution{IsConstant: true, Constant: 2.6}, 3, rng(1))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 3}, out)
}

func TestTimesSampleThroughSeconds(t *testing.T) {
	t.Parallel()

	morning := config.ClockTime(8 * time.Hour)
	dist := config.Distribution{
		Mean: morning,
		Std:  30 * time.Minute,
		Kind: config.DistributionUniform,
	}
	out, err := Times(dist, 500, rng(11))
	require.NoError(t, err)
	for _, v := range out {
		d := time.Duration(v)
		assert.GreaterOrEqual(t, d, 7*time.Hour+30*time.Minute)
		assert.Less(t, d, 8*time.Hour+30*time.Minute)
	}
}

func TestDurationsConstant(t *testing.T) {
	t.Parallel()

	out, err := Durations(config.Distribution{IsConstant: true, Constant: 90 * time.Second}, 2, rng(1))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{90 * time.Second, 90 * time.Second}, out)
}

func TestNonNumericValueFails(t *testing.T) {
	t.Parallel()

	_, err := Floats(config.Distribution{IsConstant: true, Constant: "fast"}, 1, rng(1))
	assert.Error(t, err)
}
