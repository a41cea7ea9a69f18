package nn

import (
	"math"
	"math/rand/v2"
)

// Init fills a freshly allocated parameter buffer.
type Init func(rng *rand.Rand, values []float32)

func newRand(seed uint64) *rand.Rand {
	//nolint:gosec // weight initialization is not security-critical
	return rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
}

// Xavier returns a Glorot uniform initializer:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
func Xavier(fanIn, fanOut int) Init {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return func(rng *rand.Rand, values []float32) {
		for i := range values {
			values[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
		}
	}
}

// Zeros leaves the buffer zeroed.
func Zeros() Init {
	return func(*rand.Rand, []float32) {}
}

// Constant fills the buffer with v.
func Constant(v float32) Init {
	return func(_ *rand.Rand, values []float32) {
		for i := range values {
			values[i] = v
		}
	}
}

// Normal fills the buffer from N(0, std²).
func Normal(std float64) Init {
	return func(rng *rand.Rand, values []float32) {
		for i := range values {
			values[i] = float32(rng.NormFloat64() * std)
		}
	}
}
