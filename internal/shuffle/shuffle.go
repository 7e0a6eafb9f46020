// internal/shuffle/shuffle.go
//
// Deterministic shuffle engine used by the puzzle generator.
// Responsibilities:
//   - Fisher–Yates shuffle that never mutates the caller's slice.
//   - Seeded path: a Lehmer-style generator (m = 2^35-31, a = 185852),
//     so the same seed and input always give the same permutation.
//   - Unseeded path: crypto/rand for every draw.
//
// Seed is a real optional value; SeedOf(0) is a valid seed and differs from
// the zero Seed, which means "no seed".
package shuffle

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	lehmerModulus    int64 = 1<<35 - 31
	lehmerMultiplier int64 = 185852
)

// Seed is an optional shuffle seed. The zero value means "no seed".
type Seed struct {
	value int64
	set   bool
}

// NoSeed is the unseeded (non-reproducible) value.
var NoSeed = Seed{}

// SeedOf wraps n as a present seed.
func SeedOf(n int64) Seed { return Seed{value: n, set: true} }

// Value returns the seed and whether it is present.
func (s Seed) Value() (int64, bool) { return s.value, s.set }

// Ptr returns a pointer copy of the seed, or nil when unset (JSON-friendly).
func (s Seed) Ptr() *int64 {
	if !s.set {
		return nil
	}
	v := s.value
	return &v
}

func (s Seed) String() string {
	if !s.set {
		return "none"
	}
	return strconv.FormatInt(s.value, 10)
}

// Source yields uniformly distributed indexes in [0, n).
type Source interface {
	Intn(n int) int
}

// NewSource returns the seeded generator for a present seed, crypto/rand otherwise.
func NewSource(seed Seed) Source {
	if v, ok := seed.Value(); ok {
		return newLehmer(v)
	}
	return cryptoSource{}
}

// Shuffle returns a shuffled copy of items.
func Shuffle[T any](items []T, seed Seed) []T {
	return ShuffleWith(items, NewSource(seed))
}

// ShuffleWith returns a copy of items permuted with src, walking from the last
// index down to 1 and swapping with a drawn index in [0, i].
func ShuffleWith[T any](items []T, src Source) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// lehmer is the seeded generator. state stays in [0, m), so state*a < 2^53
// and fits an int64 without overflow.
type lehmer struct {
	state int64
}

func newLehmer(seed int64) *lehmer {
	st := seed % lehmerModulus
	if st < 0 {
		st += lehmerModulus
	}
	return &lehmer{state: st}
}

// next advances the generator and returns a fraction in [0, 1).
func (l *lehmer) next() float64 {
	l.state = (l.state * lehmerMultiplier) % lehmerModulus
	return float64(l.state) / float64(lehmerModulus)
}

func (l *lehmer) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	j := int(l.next() * float64(n))
	if j >= n {
		j = n - 1
	}
	return j
}

// cryptoSource draws every index from crypto/rand.
type cryptoSource struct{}

func (cryptoSource) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("shuffle: crypto/rand unavailable: " + err.Error())
	}
	return int(nBig.Int64())
}
