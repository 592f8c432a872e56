package recommend

import (
	"math/rand/v2"
	"sync"
)

// NoiseSource draws standard normal variates for the confidence jitter.
type NoiseSource interface {
	NormFloat64() float64
}

// globalNoise draws from the runtime's goroutine-safe random source.
type globalNoise struct{}

func (globalNoise) NormFloat64() float64 { return rand.NormFloat64() }

// seededNoise is a deterministic source. rand.Rand is not safe for
// concurrent use, so draws are serialized.
type seededNoise struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededNoise returns a reproducible NoiseSource.
func NewSeededNoise(seed uint64) NoiseSource {
	return &seededNoise{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (n *seededNoise) NormFloat64() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rng.NormFloat64()
}
