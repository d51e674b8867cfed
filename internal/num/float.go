package num

import (
	"math"
	"strconv"
	"strings"
)

// ParseFloat parses a floating point literal including the special names
// nan, inf, +inf and -inf (case-insensitive).
func ParseFloat(s string) (float64, *ParseError) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ParseError{Kind: ParseEmpty}
	}
	switch strings.ToLower(s) {
	case "nan":
		return math.NaN(), nil
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if v, big, ierr := ParseInt(s); ierr == nil {
			if big {
				return float64(uint64(v)), nil
			}
			return float64(v), nil
		}
		return 0, &ParseError{Kind: ParseInvalid, Input: s}
	}
	return f, nil
}
