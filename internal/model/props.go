package model

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/dslversion"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// elementSpec lists what an element understands. Property names may appear
// as attributes or as value-only child elements.
type elementSpec struct {
	props    []string // single-instance properties
	multi    []string // properties that may repeat
	children []string // structural child elements
	// fieldChildren admits any field-kind element as a structural child.
	fieldChildren bool
}

func (s elementSpec) with(other elementSpec) elementSpec {
	return elementSpec{
		props:         append(slices.Clone(s.props), other.props...),
		multi:         append(slices.Clone(s.multi), other.multi...),
		children:      append(slices.Clone(s.children), other.children...),
		fieldChildren: s.fieldChildren || other.fieldChildren,
	}
}

func (s elementSpec) isSingle(name string) bool { return slices.Contains(s.props, name) }
func (s elementSpec) isMulti(name string) bool  { return slices.Contains(s.multi, name) }
func (s elementSpec) isChild(name string) bool {
	return slices.Contains(s.children, name) || (s.fieldChildren && isFieldElement(name))
}

// propValue is one occurrence of a property.
type propValue struct {
	value string
	// elem is the element carrying the value: the property child element
	// or the owner for attribute values.
	elem xmlnode.Element
}

// props is the classified content of one element.
type props struct {
	elem          xmlnode.Element
	single        map[string]propValue
	multi         map[string][]propValue
	children      []xmlnode.Element
	extraAttrs    []ExtraAttr
	extraChildren []xmlnode.Element
	schema        *Schema
}

// readProps classifies the attributes and children of elem. Unknown
// attributes and children go to the extra buckets. Properties the active
// DSL version does not know are dropped with a warning.
func (s *Schema) readProps(elem xmlnode.Element, spec elementSpec) (*props, error) {
	p := &props{
		elem:   elem,
		single: make(map[string]propValue),
		multi:  make(map[string][]propValue),
		schema: s,
	}
	for _, a := range elem.Attributes() {
		name := a.Name()
		switch {
		case spec.isSingle(name):
			if _, dup := p.single[name]; dup {
				return nil, s.errorf(elem, dslerrors.ErrDuplicateProperty, "property %q defined more than once", name)
			}
			p.single[name] = propValue{value: a.Value(), elem: elem}
		case spec.isMulti(name):
			p.multi[name] = append(p.multi[name], propValue{value: a.Value(), elem: elem})
		default:
			p.extraAttrs = append(p.extraAttrs, ExtraAttr{Name: name, Value: a.Value()})
		}
	}
	for _, child := range elem.Children() {
		name := child.Name()
		isProp := spec.isSingle(name) || spec.isMulti(name)
		if isProp && (len(child.Children()) == 0 || !spec.isChild(name)) {
			value, ok := child.Attribute("value")
			if !ok {
				value = strings.TrimSpace(child.Text())
			}
			if spec.isSingle(name) {
				if _, dup := p.single[name]; dup {
					return nil, s.errorf(child, dslerrors.ErrDuplicateProperty, "property %q defined more than once", name)
				}
				p.single[name] = propValue{value: value, elem: child}
				continue
			}
			p.multi[name] = append(p.multi[name], propValue{value: value, elem: child})
			continue
		}
		if spec.isChild(name) {
			p.children = append(p.children, child)
			continue
		}
		p.extraChildren = append(p.extraChildren, child)
	}
	s.gateProps(p)
	return p, nil
}

func (s *Schema) gateProps(p *props) {
	dsl := s.dslVersion
	check := func(name string, v propValue) bool {
		if !dslversion.IsPropertySupported(name, dsl) {
			s.warnf(v.elem, dslerrors.WarnUnsupportedProperty,
				"property %q requires DSL version %d (schema uses %d), ignored",
				name, dslversion.PropertyMinVersion(name), dsl)
			return false
		}
		if dslversion.IsPropertyDeprecated(name, dsl) {
			s.warnf(v.elem, dslerrors.WarnDeprecatedProperty, "property %q is deprecated", name)
		}
		return true
	}
	for _, name := range slices.Sorted(maps.Keys(p.single)) {
		if !check(name, p.single[name]) {
			delete(p.single, name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(p.multi)) {
		if vs := p.multi[name]; len(vs) > 0 && !check(name, vs[0]) {
			delete(p.multi, name)
		}
	}
	// Structural children spelled like a gated property obey the same table.
	p.children = slices.DeleteFunc(p.children, func(c xmlnode.Element) bool {
		return dslversion.PropertyMinVersion(c.Name()) > 1 && !check(c.Name(), propValue{elem: c})
	})
}

func (p *props) has(name string) bool {
	_, ok := p.single[name]
	return ok || len(p.multi[name]) > 0
}

func (p *props) str(name string) (string, bool) {
	v, ok := p.single[name]
	return v.value, ok
}

func (p *props) get(name string) (propValue, bool) {
	v, ok := p.single[name]
	return v, ok
}

func (p *props) all(name string) []propValue {
	return p.multi[name]
}

// childrenNamed returns the structural children with the given name.
func (p *props) childrenNamed(name string) []xmlnode.Element {
	var out []xmlnode.Element
	for _, c := range p.children {
		if c.Name() == name {
			out = append(out, c)
		}
	}
	return out
}

// singleChild returns the only structural child with the name, reporting
// an error when it repeats.
func (p *props) singleChild(name string) (xmlnode.Element, error) {
	list := p.childrenNamed(name)
	switch len(list) {
	case 0:
		return nil, nil
	case 1:
		return list[0], nil
	default:
		return nil, p.schema.errorf(list[1], dslerrors.ErrStructure, "element <%s> defined more than once", name)
	}
}

func (p *props) boolean(name string) (value, present bool, err error) {
	v, ok := p.single[name]
	if !ok {
		return false, false, nil
	}
	b, ok := parseBool(v.value)
	if !ok {
		return false, true, p.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "property %q has invalid boolean value %q", name, v.value)
	}
	return b, true, nil
}

// setBool stores the property into dst when present.
func (p *props) setBool(name string, dst *bool) error {
	v, present, err := p.boolean(name)
	if err != nil {
		return err
	}
	if present {
		*dst = v
	}
	return nil
}

func (p *props) unsigned(name string) (value uint64, present bool, err error) {
	v, ok := p.single[name]
	if !ok {
		return 0, false, nil
	}
	u, perr := strconv.ParseUint(strings.TrimSpace(v.value), 0, 64)
	if perr != nil {
		return 0, true, p.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "property %q has invalid unsigned value %q", name, v.value)
	}
	return u, true, nil
}

// setUint stores a version-like unsigned property into dst when present.
func (p *props) setUint(name string, dst *uint) error {
	v, present, err := p.unsigned(name)
	if err != nil {
		return err
	}
	if present {
		if v > uint64(NotYetDeprecated) {
			return p.schema.errorf(p.single[name].elem, dslerrors.ErrInvalidValue, "property %q value %d is too big", name, v)
		}
		*dst = uint(v)
	}
	return nil
}

// setInt stores a small non-negative integer property into dst when present.
func (p *props) setInt(name string, dst *int) error {
	v, present, err := p.unsigned(name)
	if err != nil {
		return err
	}
	if present {
		if v > 1<<31 {
			return p.schema.errorf(p.single[name].elem, dslerrors.ErrInvalidValue, "property %q value %d is too big", name, v)
		}
		*dst = int(v)
	}
	return nil
}

func (p *props) setString(name string, dst *string) {
	if v, ok := p.single[name]; ok {
		*dst = v.value
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}
