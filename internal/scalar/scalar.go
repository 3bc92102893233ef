// Package scalar has the small numeric helpers shared by the query packages.
package scalar

import (
	"math"

	"golang.org/x/exp/constraints"
)

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SameSign reports whether a and b are both strictly positive or both strictly negative.
// Zero never matches.
func SameSign[T constraints.Signed | constraints.Float](a, b T) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func ApproxEqual[T constraints.Float](a, b, tolerance T) bool {
	return T(math.Abs(float64(a-b))) <= tolerance
}
