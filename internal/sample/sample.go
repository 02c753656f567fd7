// Package sample draws value sequences from resolved distribution
// parameters: a constant repeats, Uniform/Normal/Lognormal sample through
// the step's seeded generator. Integer, time-of-day, and duration targets
// sample as floats and convert back afterwards.
package sample

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/metropipe/metropipe/internal/config"
)

// Floats produces n samples from a float-valued distribution parameter.
func Floats(dist config.Distribution, n int, rng *rand.Rand) ([]float64, error) {
	if dist.IsConstant {
		constant, err := asFloat(dist.Constant)
		if err != nil {
			return nil, err
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = constant
		}
		return out, nil
	}

	mean, err := asFloat(dist.Mean)
	if err != nil {
		return nil, fmt.Errorf("invalid mean: %w", err)
	}
	std, err := asFloat(dist.Std)
	if err != nil {
		return nil, fmt.Errorf("invalid std: %w", err)
	}

	out := make([]float64, n)
	switch dist.Kind {
	case config.DistributionUniform:
		low := mean - std
		for i := range out {
			out[i] = low + rng.Float64()*2*std
		}
	case config.DistributionNormal:
		for i := range out {
			out[i] = rng.NormFloat64()*std + mean
		}
	case config.DistributionLognormal:
		for i := range out {
			out[i] = math.Exp(rng.NormFloat64()*std + mean)
		}
	default:
		return nil, fmt.Errorf("unknown distribution kind: %d", dist.Kind)
	}
	return out, nil
}

// Ints samples as floats, rounds to nearest, and casts to integers.
func Ints(dist config.Distribution, n int, rng *rand.Rand) ([]int, error) {
	floats, err := Floats(dist, n, rng)
	if err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i, f := range floats {
		out[i] = int(math.Round(f))
	}
	return out, nil
}

// Times samples a time-of-day distribution through seconds since midnight.
// Wrap-around is left unconstrained; domain steps clamp if they must.
func Times(dist config.Distribution, n int, rng *rand.Rand) ([]config.ClockTime, error) {
	floats, err := Floats(dist, n, rng)
	if err != nil {
		return nil, err
	}
	out := make([]config.ClockTime, n)
	for i, f := range floats {
		out[i] = config.ClockTime(time.Duration(f * float64(time.Second)))
	}
	return out, nil
}

// Durations samples a duration distribution through seconds.
func Durations(dist config.Distribution, n int, rng *rand.Rand) ([]time.Duration, error) {
	floats, err := Floats(dist, n, rng)
	if err != nil {
		return nil, err
	}
	out := make([]time.Duration, n)
	for i, f := range floats {
		out[i] = time.Duration(f * float64(time.Second))
	}
	return out, nil
}

// asFloat coerces a validated constant, mean, or std to the float domain
// samples are drawn in: numbers pass through, time-of-day becomes seconds
// since midnight, durations become seconds.
func asFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case config.ClockTime:
		return time.Duration(v).Seconds(), nil
	case time.Duration:
		return v.Seconds(), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", value, value)
	}
}
