package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RNG is a deterministic linear congruential generator with position
// tracking. Position increments with every draw, enabling save/restore:
// the same seed advanced to the same position reproduces the stream.
type RNG struct {
	seed  int64
	state uint32
	pos   int64
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed:  seed,
		state: uint32(seed),
	}
}

// Next returns the next value in [0, 1).
func (r *RNG) Next() float64 {
	r.state = r.state*1664525 + 1013904223
	r.pos++
	return float64(r.state) / 4294967296.0
}

// Int returns a uniform integer in [min, max]. Reversed bounds are
// swapped rather than rejected.
func (r *RNG) Int(min, max int) int {
	if min > max {
		min, max = max, min
	}
	return min + int(r.Next()*float64(max-min+1))
}

var diceNotation = regexp.MustCompile(`(?i)^\s*(\d*)d(\d+)([+-]\d+)?\s*$`)

// Roll parses dice notation like "d20", "2d6", or "3d8+2" and returns
// the summed result. The count defaults to 1 when omitted.
func (r *RNG) Roll(notation string) (int, error) {
	m := diceNotation.FindStringSubmatch(notation)
	if m == nil {
		return 0, fmt.Errorf("invalid dice notation %q", notation)
	}
	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
	}
	sides, _ := strconv.Atoi(m[2])
	if count < 1 || sides < 1 {
		return 0, fmt.Errorf("invalid dice notation %q", notation)
	}
	modifier := 0
	if m[3] != "" {
		modifier, _ = strconv.Atoi(strings.TrimPrefix(m[3], "+"))
	}
	total := modifier
	for i := 0; i < count; i++ {
		total += r.Int(1, sides)
	}
	return total, nil
}

// Seed returns the seed the generator was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}

// Restore resets the generator in place to the given seed advanced to
// the given position. Used when loading a save into a live runtime.
func (r *RNG) Restore(seed, position int64) {
	*r = *RestoreRNG(seed, position)
}

// RestoreRNG creates an RNG and advances it to the given position.
// This reproduces the exact RNG state for save/load.
func RestoreRNG(seed int64, position int64) *RNG {
	rng := NewRNG(seed)
	for i := int64(0); i < position; i++ {
		rng.Next()
	}
	rng.pos = position
	return rng
}
