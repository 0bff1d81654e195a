package ecs

import (
	"iter"
	"math/bits"
	"strconv"
)

// Signature is a bitmask of component types. Each registered component type
// owns one bit, so a World supports at most MaxComponentTypes types.
type Signature uint64

// MaxComponentTypes is the number of distinct component types a World can
// register: one per bit of Signature.
const MaxComponentTypes = 64

// Contains reports whether every bit of required is set in s. A zero
// required signature is contained in every signature.
func (s Signature) Contains(required Signature) bool {
	return s&required == required
}

// With returns s with the bits of other set.
func (s Signature) With(other Signature) Signature {
	return s | other
}

// Without returns s with the bits of other cleared.
func (s Signature) Without(other Signature) Signature {
	return s &^ other
}

// Count returns the number of component types in s.
func (s Signature) Count() int {
	return bits.OnesCount64(uint64(s))
}

// Bits yields the bit position of every component type in s, lowest first.
func (s Signature) Bits() iter.Seq[int] {
	return func(yield func(int) bool) {
		for rest := uint64(s); rest != 0; rest &= rest - 1 {
			if !yield(bits.TrailingZeros64(rest)) {
				return
			}
		}
	}
}

func (s Signature) String() string {
	return "0b" + strconv.FormatUint(uint64(s), 2)
}

// matchesAny reports whether sig contains at least one of required.
func matchesAny(sig Signature, required []Signature) bool {
	for _, r := range required {
		if sig.Contains(r) {
			return true
		}
	}
	return false
}
