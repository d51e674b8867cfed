package num

import "math"

// Unbounded is the saturated length: the serialized size has no upper bound.
const Unbounded = math.MaxInt

// AddLength adds two lengths, saturating to Unbounded.
func AddLength(a, b int) int {
	if a >= Unbounded-b {
		return Unbounded
	}
	return a + b
}

// SumLengths adds all lengths, saturating to Unbounded.
func SumLengths(values ...int) int {
	total := 0
	for _, v := range values {
		total = AddLength(total, v)
	}
	return total
}

// MulLength multiplies two lengths, saturating to Unbounded.
func MulLength(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a >= Unbounded || b >= Unbounded || a > Unbounded/b {
		return Unbounded
	}
	return a * b
}

// LengthFromValue converts an unsigned field value into a length, saturating
// to Unbounded.
func LengthFromValue(v uint64) int {
	if v >= uint64(Unbounded) {
		return Unbounded
	}
	return int(v)
}

// MaxUintForBytes returns the maximal unsigned value representable in n bytes.
func MaxUintForBytes(n int) uint64 {
	if n >= 8 {
		return math.MaxUint64
	}
	if n <= 0 {
		return 0
	}
	return 1<<(uint(n)*8) - 1
}

// MaxUintForBits returns the maximal unsigned value of a bits-wide integer.
func MaxUintForBits(bits int) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}
	if bits <= 0 {
		return 0
	}
	return 1<<uint(bits) - 1
}
