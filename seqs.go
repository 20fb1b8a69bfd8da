/*
package sponge implements the sequence space arithmetic and the wire visible
segment and datagram types shared by the TCP and IP layers of a user-space
network stack.

# Values and Sizes

All arithmetic dealing with wire sequence numbers must be performed modulo 2**32
which brings with it subtleties to computer modulo arithmetic. Connection state
is instead tracked with 64 bit absolute sequence numbers which start at 0 on the
SYN and never wrap in practice. [Wrap] and [Unwrap] convert between both spaces.

# Queues

Segments and datagrams leave each component through a [Queue]. Queues have a
single consumer which is expected to drain them completely between ticks.
*/
package sponge

import "math"

// Value represents the value of a wire sequence number.
type Value uint32

// Size represents the size (length) of a sequence number window.
type Size uint32

// LessThan checks if v is before w (modulo 32) i.e., v < w.
func LessThan(v, w Value) bool {
	return int32(v-w) < 0
}

// LessThanEq returns true if v==w or v is before (modulo 32) i.e., v < w.
func LessThanEq(v, w Value) bool {
	return v == w || LessThan(v, w)
}

// InRange checks if v is in the range [a,b) (modulo 32), i.e., a <= v < b.
func InRange(v, a, b Value) bool {
	return v-a < b-a
}

// InWindow checks if v is in the window that starts at 'first' and spans 'size'
// sequence numbers (modulo 32).
func InWindow(v, first Value, size Size) bool {
	return InRange(v, first, Add(first, size))
}

// Add calculates the sequence number following the [v, v+s) window.
func Add(v Value, s Size) Value {
	return v + Value(s)
}

// Sizeof calculates the size of the window defined by [v, w).
func Sizeof(v, w Value) Size {
	return Size(w - v)
}

// Wrap converts the absolute sequence number n into the wire sequence number
// of a connection whose initial sequence number is isn.
func Wrap(n uint64, isn Value) Value {
	return isn + Value(uint32(n))
}

// Unwrap converts the wire sequence number v into the absolute sequence number
// closest to checkpoint that wraps to v. When two candidates are equally far
// from checkpoint the smaller absolute value is returned.
func Unwrap(v, isn Value, checkpoint uint64) uint64 {
	const span = 1 << 32
	offset := uint64(uint32(v - isn))
	cand := checkpoint&^(span-1) | offset
	if cand > checkpoint {
		if cand >= span && cand-checkpoint >= checkpoint-(cand-span) {
			return cand - span
		}
		return cand
	}
	if cand <= math.MaxUint64-span && checkpoint-cand > cand+span-checkpoint {
		return cand + span
	}
	return cand
}
