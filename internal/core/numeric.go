package core

import "golang.org/x/exp/constraints"

// ceilDiv returns ceil(n/d) for positive integers, the shape the
// bit-vector chunk count (numChunks) needs and that integer division
// alone rounds the wrong way for.
func ceilDiv[T constraints.Integer](n, d T) T {
	return (n + d - 1) / d
}

// atLeast clamps v up to lo, used so a zero-length BitVector still
// gets one backing chunk.
func atLeast[T constraints.Ordered](v, lo T) T {
	if v < lo {
		return lo
	}
	return v
}
