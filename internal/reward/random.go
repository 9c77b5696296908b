// Package reward resolves randomized payouts: uniform ranges, chance-gated
// rolls and weighted tables.
package reward

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"
)

// Source is the randomness consumed by draws and by the card games.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Int64N returns a value in [0, n). n must be positive.
	Int64N(n int64) int64
}

// Randomizer is a Source safe for concurrent use.
type Randomizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomizer returns a Randomizer seeded from the operating system.
func NewRandomizer() *Randomizer {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("reward: read seed: " + err.Error())
	}
	return &Randomizer{rng: rand.New(rand.NewChaCha8(seed))}
}

// NewSeeded returns a deterministic Randomizer for reproducible draws.
func NewSeeded(seed uint64) *Randomizer {
	return &Randomizer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *Randomizer) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *Randomizer) Int64N(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Int64N(n)
}

// UniformInt returns a uniform integer in [lo, hi].
func UniformInt(src Source, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + src.Int64N(hi-lo+1)
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}
