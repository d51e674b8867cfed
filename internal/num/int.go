// Package num parses numeric literals and performs the saturating arithmetic
// used for serialization length bounds.
package num

import (
	"strconv"
	"strings"
)

// ParseInt parses a signed or unsigned integer literal. Decimal, "0x" hex,
// "0o"/leading-zero octal and "0b" binary forms are accepted. Values above
// MaxInt64 that still fit in 64 bits are returned reinterpreted as int64 with
// bigUnsigned set.
func ParseInt(s string) (v int64, bigUnsigned bool, err *ParseError) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, &ParseError{Kind: ParseEmpty}
	}
	neg := false
	body := s
	switch body[0] {
	case '+':
		body = body[1:]
	case '-':
		neg = true
		body = body[1:]
	}
	if body == "" {
		return 0, false, &ParseError{Kind: ParseNoDigits, Input: s}
	}
	base, digits := splitBase(body)
	if digits == "" {
		return 0, false, &ParseError{Kind: ParseNoDigits, Input: s}
	}
	for i := 0; i < len(digits); i++ {
		if !isDigitOf(digits[i], base) {
			return 0, false, &ParseError{Kind: ParseBadChar, Input: s}
		}
	}
	u, perr := strconv.ParseUint(digits, base, 64)
	if perr != nil {
		return 0, false, &ParseError{Kind: ParseOverflow, Input: s}
	}
	if neg {
		if u > 1<<63 {
			return 0, false, &ParseError{Kind: ParseOverflow, Input: s}
		}
		return -int64(u), false, nil
	}
	if u > 1<<63-1 {
		return int64(u), true, nil
	}
	return int64(u), false, nil
}

// IsIntLiteral reports whether s looks like an integer literal rather than
// a name or reference.
func IsIntLiteral(s string) bool {
	_, _, err := ParseInt(s)
	return err == nil || err.Kind == ParseOverflow
}

func splitBase(s string) (int, string) {
	if len(s) > 1 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return 16, s[2:]
		case 'b', 'B':
			return 2, s[2:]
		case 'o', 'O':
			return 8, s[2:]
		default:
			return 8, s[1:]
		}
	}
	return 10, s
}

func isDigitOf(c byte, base int) bool {
	switch base {
	case 2:
		return c == '0' || c == '1'
	case 8:
		return c >= '0' && c <= '7'
	case 16:
		return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	default:
		return c >= '0' && c <= '9'
	}
}

// Compare orders two values. When unsigned is set both values are compared
// as their uint64 reinterpretation.
func Compare(a, b int64, unsigned bool) int {
	if unsigned {
		ua, ub := uint64(a), uint64(b)
		switch {
		case ua < ub:
			return -1
		case ua > ub:
			return 1
		}
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Format renders v, honoring the unsigned reinterpretation.
func Format(v int64, unsigned bool) string {
	if unsigned {
		return strconv.FormatUint(uint64(v), 10)
	}
	return strconv.FormatInt(v, 10)
}

// Adjacent reports whether next directly follows or overlaps the interval
// ending at hi, that is hi+1 >= next, without overflowing.
func Adjacent(hi, next int64, unsigned bool) bool {
	if unsigned {
		if uint64(hi) == ^uint64(0) {
			return true
		}
		return uint64(hi)+1 >= uint64(next)
	}
	if hi == 1<<63-1 {
		return true
	}
	return hi+1 >= next
}
