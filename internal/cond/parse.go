package cond

import (
	"fmt"
	"strings"
)

// ParseExpr parses one expression such as "$a = 1", "!$flags.b0",
// "?$opt", "$#list >= 2" or "%version > 3".
func ParseExpr(text string) (*Expr, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, fmt.Errorf("empty expression")
	}
	opPos, op, opLen := findOperator(s)
	if opPos < 0 {
		return parseUnary(s)
	}
	leftText := strings.TrimSpace(s[:opPos])
	rightText := strings.TrimSpace(s[opPos+opLen:])
	if leftText == "" || rightText == "" {
		return nil, fmt.Errorf("expression %q: missing operand", text)
	}
	left, err := parseOperand(leftText)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", text, err)
	}
	if !left.IsRef() {
		return nil, fmt.Errorf("expression %q: left side must reference a field", text)
	}
	if left.Mode == RefExists {
		return nil, fmt.Errorf("expression %q: existence check cannot be compared", text)
	}
	right, err := parseOperand(rightText)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", text, err)
	}
	if right.Mode == RefExists {
		return nil, fmt.Errorf("expression %q: existence check cannot be compared", text)
	}
	return &Expr{Left: left, Right: right, Op: op}, nil
}

func parseUnary(s string) (*Expr, error) {
	negated := false
	body := s
	if strings.HasPrefix(body, "!") {
		negated = true
		body = strings.TrimSpace(body[1:])
	}
	operand, err := parseOperand(body)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", s, err)
	}
	if !operand.IsRef() {
		return nil, fmt.Errorf("expression %q: unary check requires a field reference", s)
	}
	if operand.Mode == RefSize {
		return nil, fmt.Errorf("expression %q: size reference requires comparison", s)
	}
	return &Expr{Left: operand, Negated: negated}, nil
}

// findOperator returns the position, operator and spelled length of the
// first comparison operator outside quotes, skipping a leading unary '!'.
func findOperator(s string) (int, Op, int) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		next := byte(0)
		if i+1 < len(s) {
			next = s[i+1]
		}
		switch c {
		case '!':
			if next == '=' {
				return i, OpNe, 2
			}
		case '=':
			if next == '=' {
				return i, OpEq, 2
			}
			return i, OpEq, 1
		case '<':
			if next == '=' {
				return i, OpLe, 2
			}
			return i, OpLt, 1
		case '>':
			if next == '=' {
				return i, OpGe, 2
			}
			return i, OpGt, 1
		}
	}
	return -1, OpNone, 0
}

func parseOperand(s string) (Operand, error) {
	if s == "" {
		return Operand{}, fmt.Errorf("empty operand")
	}
	if s[0] == '"' {
		if len(s) < 2 || s[len(s)-1] != '"' {
			return Operand{}, fmt.Errorf("unterminated string %s", s)
		}
		return Operand{Kind: OperandValue, Value: s[1 : len(s)-1], Quoted: true}, nil
	}

	mode := RefValue
	body := s
	if body[0] == '?' {
		mode = RefExists
		body = body[1:]
	}
	if body == "" {
		return Operand{}, fmt.Errorf("invalid operand %q", s)
	}
	var kind OperandKind
	switch body[0] {
	case '$':
		kind = OperandField
	case '%':
		kind = OperandInterfaceField
	default:
		if mode == RefExists {
			return Operand{}, fmt.Errorf("existence check requires a field reference: %q", s)
		}
		return Operand{Kind: OperandValue, Value: s}, nil
	}
	body = body[1:]
	if strings.HasPrefix(body, "#") {
		if mode == RefExists {
			return Operand{}, fmt.Errorf("invalid operand %q", s)
		}
		mode = RefSize
		body = body[1:]
	} else if strings.HasPrefix(body, "?") {
		if mode == RefExists {
			return Operand{}, fmt.Errorf("invalid operand %q", s)
		}
		mode = RefExists
		body = body[1:]
	}
	if !isValidPath(body) {
		return Operand{}, fmt.Errorf("invalid field reference %q", s)
	}
	return Operand{Kind: kind, Mode: mode, Path: body}, nil
}

func isValidPath(p string) bool {
	if p == "" {
		return false
	}
	for _, part := range strings.Split(p, ".") {
		if !isIdentifier(part) {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
