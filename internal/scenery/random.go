package scenery

import (
	"math/rand/v2"
	"time"
)

// Source is a uniform [0,1) generator. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a PCG-backed source. A zero seed picks one from the clock;
// the chosen seed is returned so callers can record it.
func NewSource(seed uint64) (*rand.Rand, uint64) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return Seeded(seed), seed
}

// Seeded returns the PCG stream for seed. Equal seeds give equal streams,
// zero included.
func Seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Uniform maps one draw to [lo, hi). A degenerate range returns lo.
func Uniform(src Source, lo, hi float64) float64 {
	if hi == lo {
		return lo
	}
	return lo + src.Float64()*(hi-lo)
}

// Spread maps one draw to [-r/2, r/2).
func Spread(src Source, r float64) float64 {
	return (src.Float64() - 0.5) * r
}
