package model

import (
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/cond"
	"github.com/jacoelho/commsdsl/internal/dslversion"
	"github.com/jacoelho/commsdsl/internal/num"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// readCond reads the condition called name from its property form or from
// a structural child wrapping an and/or/cond tree. elem is the element the
// condition was found on.
func (s *Schema) readCond(p *props, name string) (cond.Cond, xmlnode.Element, error) {
	child, err := p.singleChild(name)
	if err != nil {
		return nil, nil, err
	}
	v, hasProp := p.get(name)
	switch {
	case child != nil && hasProp:
		return nil, nil, s.errorf(child, dslerrors.ErrDuplicateProperty, "%s defined more than once", name)
	case hasProp:
		c, err := s.parseCondText(v.elem, v.value)
		return c, v.elem, err
	case child != nil:
		c, err := s.condFromChildren(child)
		return c, child, err
	}
	return nil, nil, nil
}

func (s *Schema) parseCondText(elem xmlnode.Element, text string) (cond.Cond, error) {
	e, err := cond.ParseExpr(text)
	if err != nil {
		return nil, s.errorf(elem, dslerrors.ErrCondition, "%v", err)
	}
	return e, nil
}

// condFromElement parses <cond>, <and> or <or>.
func (s *Schema) condFromElement(elem xmlnode.Element) (cond.Cond, error) {
	switch elem.Name() {
	case "cond":
		text, ok := elem.Attribute("value")
		if !ok {
			text = strings.TrimSpace(elem.Text())
		}
		return s.parseCondText(elem, text)
	case "and", "or":
		kind := cond.And
		if elem.Name() == "or" {
			kind = cond.Or
		}
		list := &cond.List{Kind: kind}
		for _, c := range elem.Children() {
			item, err := s.condFromElement(c)
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, item)
		}
		if len(list.Items) == 0 {
			return nil, s.errorf(elem, dslerrors.ErrCondition, "<%s> requires at least one condition", elem.Name())
		}
		return list, nil
	}
	return nil, s.errorf(elem, dslerrors.ErrCondition, "unexpected <%s> in condition", elem.Name())
}

// condFromChildren parses the children of a wrapper; several children form
// an implicit AND.
func (s *Schema) condFromChildren(wrapper xmlnode.Element) (cond.Cond, error) {
	children := wrapper.Children()
	if len(children) == 0 {
		return nil, s.errorf(wrapper, dslerrors.ErrCondition, "<%s> requires a condition", wrapper.Name())
	}
	list := &cond.List{Kind: cond.And}
	for _, c := range children {
		item, err := s.condFromElement(c)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}
	return cond.Flatten(list), nil
}

// condScope is what references inside a condition resolve against: $name
// against the sibling fields, %name against the schema interfaces.
type condScope struct {
	schema *Schema
	fields []Field
}

func (sc condScope) verify(elem xmlnode.Element, c cond.Cond) error {
	s := sc.schema
	use := cond.Uses(c)
	for _, gate := range []struct {
		used    bool
		feature dslversion.Feature
	}{
		{use.InterfaceRefs, dslversion.InterfaceFieldRef},
		{use.SizeRefs, dslversion.SizeCompInCond},
		{use.ExistsRefs, dslversion.ExistsCheckInCond},
	} {
		if gate.used && !dslversion.Supported(gate.feature, s.dslVersion) {
			return s.errorf(elem, dslerrors.ErrVersion, "condition %s: %s requires DSL version %d",
				c, gate.feature, gate.feature.MinVersion())
		}
	}
	return cond.Walk(c, func(e *cond.Expr) error { return sc.verifyExpr(elem, e) })
}

func refTypeOf(m cond.RefMode) RefType {
	switch m {
	case cond.RefSize:
		return RefSize
	case cond.RefExists:
		return RefExists
	}
	return RefValue
}

func (sc condScope) resolveOperand(o cond.Operand) (FieldRef, bool) {
	t := refTypeOf(o.Mode)
	if o.Kind == cond.OperandField {
		return resolveSibling(sc.fields, o.Path, t)
	}
	for _, iface := range sc.schema.interfaces() {
		if r, ok := resolveSibling(iface.fields, o.Path, t); ok {
			return r, true
		}
	}
	return FieldRef{}, false
}

func (sc condScope) verifyExpr(elem xmlnode.Element, e *cond.Expr) error {
	s := sc.schema
	fail := func(format string, args ...any) error {
		return s.errorf(elem, dslerrors.ErrCondition, "condition %s: "+format, append([]any{e}, args...)...)
	}
	left, ok := sc.resolveOperand(e.Left)
	if !ok {
		return fail("%s does not resolve to a usable field", e.Left)
	}
	if e.IsUnary() {
		if left.Type == RefExists || left.Type == RefBit {
			return nil
		}
		return fail("%s is neither a set bit nor an existence check", e.Left)
	}

	if e.Right.IsRef() {
		right, ok := sc.resolveOperand(e.Right)
		if !ok {
			return fail("%s does not resolve to a usable field", e.Right)
		}
		switch {
		case left.Type == RefSize || right.Type == RefSize:
			if !isSizeOperand(left) || !isSizeOperand(right) {
				return fail("size can only be compared with sizes and int fields")
			}
		case left.Type == RefBit || right.Type == RefBit:
			return fail("set bits cannot be compared with fields")
		case !left.Field.IsComparableToField(right.Field):
			return fail("%s field cannot be compared with %s field", left.Field.Kind(), right.Field.Kind())
		}
		return nil
	}

	value := e.Right.Value
	switch left.Type {
	case RefSize:
		if !num.IsIntLiteral(value) {
			return fail("size must be compared with an integer, got %q", value)
		}
	case RefBit:
		if _, ok := parseBool(value); !ok {
			return fail("set bit must be compared with a boolean, got %q", value)
		}
	default:
		if !left.Field.IsComparableToValue(value) {
			return fail("%q is not a valid value of %s field %q", value, left.Field.Kind(), left.Field.Name())
		}
	}
	return nil
}

func isSizeOperand(r FieldRef) bool {
	if r.Type == RefSize {
		return true
	}
	_, ok := resolveRefTarget(r.Field).(*IntField)
	return r.Type == RefValue && ok
}
