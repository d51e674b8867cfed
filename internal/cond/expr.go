// Package cond parses the boolean field comparison expressions used by
// optional fields and by construct, read and valid conditions, and provides
// structural predicates over the resulting AND/OR trees.
package cond

import "strings"

// Op is a comparison operator. OpNone marks a unary check.
type Op uint8

const (
	OpNone Op = iota
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// String returns the DSL spelling of the operator.
func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return ""
	}
}

// OperandKind tells what an operand refers to.
type OperandKind uint8

const (
	// OperandValue is a literal or an external value reference.
	OperandValue OperandKind = iota
	// OperandField is a $name reference to a sibling field.
	OperandField
	// OperandInterfaceField is a %name reference to a field of the message interface.
	OperandInterfaceField
)

// RefMode selects what a field reference evaluates to.
type RefMode uint8

const (
	// RefValue uses the field value.
	RefValue RefMode = iota
	// RefSize uses the serialized size (#).
	RefSize
	// RefExists checks the field presence (?).
	RefExists
)

// Operand is one side of an expression.
type Operand struct {
	Kind OperandKind
	Mode RefMode
	// Path is the dotted field path for field operands.
	Path string
	// Value is the literal text for value operands, quotes removed.
	Value  string
	Quoted bool
}

// IsRef reports whether the operand references a field.
func (o Operand) IsRef() bool {
	return o.Kind == OperandField || o.Kind == OperandInterfaceField
}

// String renders the operand in DSL syntax.
func (o Operand) String() string {
	var b strings.Builder
	switch o.Kind {
	case OperandValue:
		if o.Quoted {
			return `"` + o.Value + `"`
		}
		return o.Value
	case OperandField:
		if o.Mode == RefExists {
			b.WriteByte('?')
		}
		b.WriteByte('$')
	case OperandInterfaceField:
		if o.Mode == RefExists {
			b.WriteByte('?')
		}
		b.WriteByte('%')
	}
	if o.Mode == RefSize {
		b.WriteByte('#')
	}
	b.WriteString(o.Path)
	return b.String()
}

// Expr is a single comparison or unary check.
type Expr struct {
	Left  Operand
	Right Operand
	Op    Op
	// Negated inverts a unary check ("!$bit").
	Negated bool
}

func (*Expr) isCond() {}

// IsUnary reports whether the expression is a bit or existence check.
func (e *Expr) IsUnary() bool {
	return e.Op == OpNone
}

// IsBitCheck reports whether the expression checks a single bit value.
func (e *Expr) IsBitCheck() bool {
	return e.Op == OpNone && e.Left.Mode == RefValue
}

// IsExistsCheck reports whether the expression checks field presence.
func (e *Expr) IsExistsCheck() bool {
	return e.Op == OpNone && e.Left.Mode == RefExists
}

// String renders the expression in DSL syntax.
func (e *Expr) String() string {
	if e.IsUnary() {
		if e.Negated {
			return "!" + e.Left.String()
		}
		return e.Left.String()
	}
	return e.Left.String() + " " + e.Op.String() + " " + e.Right.String()
}
