package cond

import "strings"

// Cond is either an *Expr leaf or a *List.
type Cond interface {
	isCond()
	String() string
}

// ListKind combines the items of a List.
type ListKind uint8

const (
	And ListKind = iota
	Or
)

// String returns the element name of the list kind.
func (k ListKind) String() string {
	if k == Or {
		return "or"
	}
	return "and"
}

// List is an AND or OR combination of conditions.
type List struct {
	Kind  ListKind
	Items []Cond
}

func (*List) isCond() {}

// String renders the list with explicit parentheses.
func (l *List) String() string {
	parts := make([]string, 0, len(l.Items))
	for _, item := range l.Items {
		parts = append(parts, item.String())
	}
	sep := " && "
	if l.Kind == Or {
		sep = " || "
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Clone deep copies a condition tree.
func Clone(c Cond) Cond {
	switch v := c.(type) {
	case nil:
		return nil
	case *Expr:
		cp := *v
		return &cp
	case *List:
		cp := &List{Kind: v.Kind, Items: make([]Cond, len(v.Items))}
		for i, item := range v.Items {
			cp.Items[i] = Clone(item)
		}
		return cp
	default:
		return nil
	}
}

// Walk calls fn for every leaf expression in tree order and stops at the
// first error.
func Walk(c Cond, fn func(*Expr) error) error {
	switch v := c.(type) {
	case *Expr:
		return fn(v)
	case *List:
		for _, item := range v.Items {
			if err := Walk(item, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsConstructCompatible reports whether c can describe construction values:
// only AND-combinations of equality and bit-check leaves on sibling fields.
func IsConstructCompatible(c Cond) bool {
	switch v := c.(type) {
	case *Expr:
		if v.Left.Kind != OperandField || v.Left.Mode != RefValue {
			return false
		}
		if v.IsBitCheck() {
			return true
		}
		return v.Op == OpEq && !v.Right.IsRef()
	case *List:
		if v.Kind != And || len(v.Items) == 0 {
			return false
		}
		for _, item := range v.Items {
			if !IsConstructCompatible(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Usage summarizes the reference forms a tree relies on.
type Usage struct {
	InterfaceRefs bool
	SizeRefs      bool
	ExistsRefs    bool
}

// Uses reports the reference forms used anywhere in c.
func Uses(c Cond) Usage {
	var u Usage
	_ = Walk(c, func(e *Expr) error {
		for _, o := range []Operand{e.Left, e.Right} {
			if o.Kind == OperandInterfaceField {
				u.InterfaceRefs = true
			}
			switch o.Mode {
			case RefSize:
				u.SizeRefs = true
			case RefExists:
				u.ExistsRefs = true
			}
		}
		return nil
	})
	return u
}

// Flatten returns nil for an empty list and the single item for one-element
// lists, otherwise c unchanged.
func Flatten(c Cond) Cond {
	l, ok := c.(*List)
	if !ok {
		return c
	}
	switch len(l.Items) {
	case 0:
		return nil
	case 1:
		return Flatten(l.Items[0])
	default:
		return l
	}
}
