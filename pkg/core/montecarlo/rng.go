package montecarlo

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"
)

// Generator is a seeded source of uniform draws in [0, 1).
type Generator interface {
	Float64() float64
}

// Generator names accepted by NewGenerator.
const (
	GeneratorMulberry32 = "mulberry32"
	GeneratorPCG        = "pcg"
)

// Mulberry32 is a 32-bit generator. Its stream is bit-for-bit reproducible
// from the seed on every platform.
type Mulberry32 struct {
	state uint32
}

func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

func (m *Mulberry32) Float64() float64 {
	m.state += 0x6d2b79f5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296
}

// pcg adapts x/exp/rand's PCG source. Reproducible for a seed, but a
// different stream from Mulberry32.
type pcg struct {
	r *rand.Rand
}

func (p pcg) Float64() float64 { return p.r.Float64() }

// NewGenerator returns the named generator. An empty name selects Mulberry32.
func NewGenerator(name string, seed uint32) (Generator, error) {
	switch strings.ToLower(name) {
	case "", GeneratorMulberry32:
		return NewMulberry32(seed), nil
	case GeneratorPCG:
		return pcg{r: rand.New(rand.NewSource(uint64(seed)))}, nil
	}
	return nil, fmt.Errorf("unknown generator %q", name)
}
