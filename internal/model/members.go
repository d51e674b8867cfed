package model

import (
	"slices"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/dslversion"
	"github.com/jacoelho/commsdsl/internal/num"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// memberElements returns the field definitions given either inside the
// wrapper element or as direct children. Mixing both forms is rejected.
func (s *Schema) memberElements(p *props, wrapper string) ([]xmlnode.Element, error) {
	var direct []xmlnode.Element
	for _, c := range p.children {
		if isFieldElement(c.Name()) {
			direct = append(direct, c)
		}
	}
	wrap, err := p.singleChild(wrapper)
	if err != nil || wrap == nil {
		return direct, err
	}
	if len(direct) > 0 {
		return nil, s.errorf(direct[0], dslerrors.ErrStructure, "fields must be either inside <%s> or direct children, not both", wrapper)
	}
	var out []xmlnode.Element
	for _, c := range wrap.Children() {
		if !isFieldElement(c.Name()) {
			return nil, s.errorf(c, dslerrors.ErrStructure, "unexpected <%s> in <%s>", c.Name(), wrapper)
		}
		out = append(out, c)
	}
	return out, nil
}

// appendMembers parses elems as fields of owner after the existing ones.
// Names stay unique and every new field binds against its predecessors.
func (s *Schema) appendMembers(owner Entity, existing []Field, elems []xmlnode.Element) ([]Field, error) {
	out := existing
	for _, elem := range elems {
		f, err := s.newField(elem, owner)
		if err != nil {
			return nil, err
		}
		if findByName(out, f.Name()) != nil {
			return nil, s.errorf(elem, dslerrors.ErrDuplicateName, "field %q defined more than once in %q", f.Name(), owner.Name())
		}
		if err := f.bindSiblings(out); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// replaceMembers applies the <replace> children of p to copied members.
// A replacement keeps the position of the field it replaces.
func (s *Schema) replaceMembers(owner Entity, members []Field, p *props) ([]Field, error) {
	elems := p.childrenNamed("replace")
	if len(elems) == 0 {
		return members, nil
	}
	if !dslversion.Supported(dslversion.MemberReplace, s.dslVersion) {
		s.warnf(elems[0], dslerrors.WarnUnsupportedProperty, "<replace> requires DSL version %d, ignored",
			dslversion.MemberReplace.MinVersion())
		return members, nil
	}
	out := slices.Clone(members)
	for _, wrap := range elems {
		for _, c := range wrap.Children() {
			if !isFieldElement(c.Name()) {
				return nil, s.errorf(c, dslerrors.ErrStructure, "unexpected <%s> in <replace>", c.Name())
			}
			f, err := s.newField(c, owner)
			if err != nil {
				return nil, err
			}
			idx := slices.IndexFunc(out, func(m Field) bool { return m.Name() == f.Name() })
			if idx < 0 {
				return nil, s.errorf(c, dslerrors.ErrUnresolvedRef, "no field %q to replace in %q", f.Name(), owner.Name())
			}
			if err := f.bindSiblings(out[:idx]); err != nil {
				return nil, err
			}
			out[idx] = f
		}
	}
	rebindSiblings(out)
	return out, nil
}

// memberLengths sums the bounds of members.
func memberLengths(members []Field) (lo, hi int) {
	los := make([]int, 0, len(members))
	his := make([]int, 0, len(members))
	for _, m := range members {
		los = append(los, m.MinLength())
		his = append(his, m.MaxLength())
	}
	return num.SumLengths(los...), num.SumLengths(his...)
}
