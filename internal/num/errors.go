package num

import "strconv"

// ParseErrKind classifies why a numeric literal was rejected.
type ParseErrKind uint8

const (
	ParseInvalid ParseErrKind = iota
	ParseEmpty
	ParseBadChar
	ParseNoDigits
	// ParseOverflow marks a well formed literal that does not fit 64 bits.
	ParseOverflow
)

var parseErrLabels = [...]string{
	ParseInvalid:  "not a number",
	ParseEmpty:    "empty literal",
	ParseBadChar:  "digit outside the base",
	ParseNoDigits: "missing digits",
	ParseOverflow: "exceeds 64 bits",
}

// String returns the label used in diagnostics.
func (k ParseErrKind) String() string {
	if int(k) < len(parseErrLabels) {
		return parseErrLabels[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseError reports a rejected literal.
type ParseError struct {
	Kind  ParseErrKind
	Input string
}

func (e *ParseError) Error() string {
	if e.Input == "" {
		return e.Kind.String()
	}
	return strconv.Quote(e.Input) + ": " + e.Kind.String()
}
