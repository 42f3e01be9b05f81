// Package primitives defines the fixed-width scalar types shared across the
// beacon chain: slots, epochs and sync committee periods.
package primitives

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrArithmeticOverflow is returned by the Safe* helpers when the result does
// not fit in 64 bits.
var ErrArithmeticOverflow = errors.New("arithmetic overflow")

// Slot represents a single slot.
type Slot uint64

// Add returns the slot advanced by x.
func (s Slot) Add(x uint64) Slot {
	return s + Slot(x)
}

// SafeAdd returns the slot advanced by x, erroring on overflow.
func (s Slot) SafeAdd(x uint64) (Slot, error) {
	if uint64(s) > math.MaxUint64-x {
		return 0, ErrArithmeticOverflow
	}
	return s + Slot(x), nil
}

// SaturatingAdd returns the slot advanced by x, clamped to MaxUint64.
func (s Slot) SaturatingAdd(x uint64) Slot {
	res, err := s.SafeAdd(x)
	if err != nil {
		return Slot(math.MaxUint64)
	}
	return res
}

// SaturatingMul returns a*b, clamped to MaxUint64. Request size math uses it
// so attacker-chosen counts cannot wrap past a protocol maximum.
func SaturatingMul(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}

// Sub returns the slot reduced by x. It clamps at zero rather than wrapping.
func (s Slot) Sub(x uint64) Slot {
	if uint64(s) < x {
		return 0
	}
	return s - Slot(x)
}

func (s Slot) String() string {
	return fmt.Sprintf("%d", uint64(s))
}

// Epoch represents a single epoch.
type Epoch uint64

func (e Epoch) String() string {
	return fmt.Sprintf("%d", uint64(e))
}
