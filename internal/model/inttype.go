package model

import (
	"math"
	"strings"

	"github.com/jacoelho/commsdsl/internal/num"
)

// IntType is the storage type of int, enum and set fields.
type IntType uint8

const (
	TypeInt8 IntType = iota
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeIntvar
	TypeUintvar
)

// maxVarLength is the longest base-128 encoding of a 64-bit value.
const maxVarLength = 10

var intTypes = [...]struct {
	name     string
	length   int
	signed   bool
	variable bool
}{
	TypeInt8:    {"int8", 1, true, false},
	TypeUint8:   {"uint8", 1, false, false},
	TypeInt16:   {"int16", 2, true, false},
	TypeUint16:  {"uint16", 2, false, false},
	TypeInt32:   {"int32", 4, true, false},
	TypeUint32:  {"uint32", 4, false, false},
	TypeInt64:   {"int64", 8, true, false},
	TypeUint64:  {"uint64", 8, false, false},
	TypeIntvar:  {"intvar", maxVarLength, true, true},
	TypeUintvar: {"uintvar", maxVarLength, false, true},
}

// String returns the DSL spelling of the type.
func (t IntType) String() string {
	if int(t) < len(intTypes) {
		return intTypes[t].name
	}
	return "unknown"
}

// Length returns the natural byte length of the type.
func (t IntType) Length() int { return intTypes[t].length }

// IsSigned reports a signed type.
func (t IntType) IsSigned() bool { return intTypes[t].signed }

// IsVariable reports a base-128 variable length type.
func (t IntType) IsVariable() bool { return intTypes[t].variable }

func parseIntType(s string) (IntType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, t := range intTypes {
		if t.name == s {
			return IntType(i), true
		}
	}
	return 0, false
}

// intBounds is the value range of an integer storage layout. Unsigned
// layouts compare their int64 bit patterns as uint64.
type intBounds struct {
	min, max int64
	unsigned bool
}

func (b intBounds) contains(v int64) bool {
	return num.Compare(v, b.min, b.unsigned) >= 0 && num.Compare(v, b.max, b.unsigned) <= 0
}

// containsValue is contains for a value read from another field. big marks
// v as an unsigned value above MaxInt64; otherwise v is taken as signed.
func (b intBounds) containsValue(v int64, big bool) bool {
	switch {
	case big && !b.unsigned:
		return false
	case !big && v < 0 && b.unsigned:
		return false
	}
	return b.contains(v)
}

// boundsFor returns the range of t serialized in length bytes, or in
// bitLength bits when bitLength is non-zero.
func boundsFor(t IntType, length, bitLength int) intBounds {
	bits := length * 8
	if t.IsVariable() {
		bits = min(length*7, 64)
	}
	if bitLength > 0 {
		bits = min(bitLength, bits)
	}
	if !t.IsSigned() {
		return intBounds{min: 0, max: int64(num.MaxUintForBits(bits)), unsigned: true}
	}
	if bits >= 64 {
		return intBounds{min: math.MinInt64, max: math.MaxInt64}
	}
	half := int64(1) << uint(bits-1)
	return intBounds{min: -half, max: half - 1}
}

// parseIntLiteral parses a literal against bounds. ok is false for text
// that is not an integer literal at all.
func parseIntLiteral(s string, bounds intBounds) (v int64, ok, inRange bool) {
	v, big, err := num.ParseInt(s)
	if err != nil {
		if err.Kind == num.ParseOverflow {
			return 0, true, false
		}
		return 0, false, false
	}
	if big && !bounds.unsigned {
		return v, true, false
	}
	if bounds.unsigned && !big && v < 0 {
		return v, true, false
	}
	return v, true, bounds.contains(v)
}
