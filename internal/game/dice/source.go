package dice

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	randv2 "math/rand/v2"
	"sync"
)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: values are uniformly distributed and not reproducible.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand, used when a run is
// not deterministic.
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// Float64 returns a cryptographically secure value in [0, 1).
func (c *cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
}

// seededSource is a reproducible PCG stream.
type seededSource struct {
	mu  sync.Mutex
	rng *randv2.Rand
}

// NewSeededSource returns a deterministic Source. Two sources created with the
// same seed produce the same sequence of draws.
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: randv2.New(randv2.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a reproducible int in [0, n).
//
// Precondition: n > 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
