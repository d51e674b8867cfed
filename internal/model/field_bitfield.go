package model

import (
	"slices"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/cond"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

var bitfieldSpec = elementSpec{
	props:         []string{"endian", "validCond"},
	children:      []string{"members", "replace", "validCond"},
	fieldChildren: true,
}

// maxBitfieldBits is the widest bitfield.
const maxBitfieldBits = 64

// BitfieldField packs int, enum and set members into whole bytes.
type BitfieldField struct {
	fieldBase

	endian    Endian
	members   []Field
	validCond cond.Cond
}

func newBitfieldField() *BitfieldField {
	return &BitfieldField{fieldBase: newFieldBase()}
}

// Kind returns KindBitfield.
func (f *BitfieldField) Kind() Kind { return KindBitfield }

// Endian returns the byte order.
func (f *BitfieldField) Endian() Endian { return f.endian }

// Members returns the members in serialization order.
func (f *BitfieldField) Members() []Field { return slices.Clone(f.members) }

// ValidCond returns the validity condition, nil when none.
func (f *BitfieldField) ValidCond() cond.Cond { return f.validCond }

func (f *BitfieldField) totalBits() int {
	total := 0
	for _, m := range f.members {
		total += m.BitLength()
	}
	return total
}

// MinLength returns the byte length of all members.
func (f *BitfieldField) MinLength() int { return f.totalBits() / 8 }

// MaxLength returns the byte length of all members.
func (f *BitfieldField) MaxLength() int { return f.totalBits() / 8 }

func (f *BitfieldField) innerRef(path string) (FieldRef, bool) {
	return memberRef(f.members, path)
}

func (f *BitfieldField) numericValue(ref string) (int64, bool, bool) {
	name, rest := splitFirst(ref)
	if m := findByName(f.members, name); m != nil {
		return m.numericValue(rest)
	}
	return 0, false, false
}

func (f *BitfieldField) boolValue(ref string) (bool, bool) {
	name, rest := splitFirst(ref)
	if m := findByName(f.members, name); m != nil {
		return m.boolValue(rest)
	}
	return false, false
}

func (f *BitfieldField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	cp.members = cloneFields(f.members, &cp)
	cp.validCond = cond.Clone(f.validCond)
	return &cp
}

func (f *BitfieldField) parseKind(p *props) error {
	if f.reusedFrom == nil {
		f.endian = f.schema.endian
	}
	if v, ok := p.get("endian"); ok {
		e, valid := parseEndian(v.value)
		if !valid {
			return f.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid endian %q", f.name, v.value)
		}
		f.endian = e
	}
	members, err := f.schema.replaceMembers(f, f.members, p)
	if err != nil {
		return err
	}
	elems, err := f.schema.memberElements(p, "members")
	if err != nil {
		return err
	}
	if members, err = f.schema.appendMembers(f, members, elems); err != nil {
		return err
	}
	f.members = members
	if len(f.members) == 0 {
		return f.errorf(dslerrors.ErrMissingProperty, "field %q: bitfield requires members", f.name)
	}
	if err := f.checkMembers(); err != nil {
		return err
	}
	c, elem, err := f.schema.readCond(p, "validCond")
	if err != nil {
		return err
	}
	if c != nil {
		if err := (condScope{schema: f.schema, fields: f.members}).verify(elem, c); err != nil {
			return err
		}
		f.validCond = c
	}
	return nil
}

func (f *BitfieldField) checkMembers() error {
	for _, m := range f.members {
		target := resolveRefTarget(m)
		switch target.(type) {
		case *IntField, *EnumField, *SetField:
		default:
			return m.base().errorf(dslerrors.ErrKindMismatch, "bitfield %q: member %q of kind %s is not allowed", f.name, m.Name(), m.Kind())
		}
		if m.BitLength() <= 0 {
			return m.base().errorf(dslerrors.ErrLength, "bitfield %q: member %q has no bit length", f.name, m.Name())
		}
	}
	total := f.totalBits()
	if total > maxBitfieldBits {
		return f.errorf(dslerrors.ErrLength, "field %q: bitfield members use %d bits, more than %d", f.name, total, maxBitfieldBits)
	}
	if total%8 != 0 {
		return f.errorf(dslerrors.ErrLength, "field %q: bitfield members use %d bits, not a whole number of bytes", f.name, total)
	}
	return nil
}

var bundleSpec = elementSpec{
	props:         []string{"reuseAliases", "copyValidCondFrom", "validCond"},
	children:      []string{"members", "alias", "replace", "validCond"},
	fieldChildren: true,
}

// BundleField is an ordered group of member fields.
type BundleField struct {
	fieldBase

	members   []Field
	aliases   []*Alias
	validCond cond.Cond
}

func newBundleField() *BundleField {
	return &BundleField{fieldBase: newFieldBase()}
}

// Kind returns KindBundle.
func (f *BundleField) Kind() Kind { return KindBundle }

// Members returns the members in serialization order.
func (f *BundleField) Members() []Field { return slices.Clone(f.members) }

// Aliases returns the aliases of members.
func (f *BundleField) Aliases() []*Alias { return slices.Clone(f.aliases) }

// ValidCond returns the validity condition, nil when none.
func (f *BundleField) ValidCond() cond.Cond { return f.validCond }

// MinLength sums the member minimums.
func (f *BundleField) MinLength() int {
	lo, _ := memberLengths(f.members)
	return lo
}

// MaxLength sums the member maximums.
func (f *BundleField) MaxLength() int {
	_, hi := memberLengths(f.members)
	return hi
}

func (f *BundleField) innerRef(path string) (FieldRef, bool) {
	if r, ok := memberRef(f.members, path); ok {
		return r, true
	}
	name, rest := splitFirst(path)
	if a := findAlias(f.aliases, name); a != nil {
		full := a.fieldPath
		if rest != "" {
			full += "." + rest
		}
		return memberRef(f.members, full)
	}
	return FieldRef{}, false
}

func (f *BundleField) numericValue(ref string) (int64, bool, bool) {
	name, rest := splitFirst(ref)
	if m := findByName(f.members, name); m != nil {
		return m.numericValue(rest)
	}
	return 0, false, false
}

func (f *BundleField) boolValue(ref string) (bool, bool) {
	name, rest := splitFirst(ref)
	if m := findByName(f.members, name); m != nil {
		return m.boolValue(rest)
	}
	return false, false
}

func (f *BundleField) stringValue(ref string) (string, bool) {
	name, rest := splitFirst(ref)
	if m := findByName(f.members, name); m != nil {
		return m.stringValue(rest)
	}
	return "", false
}

func (f *BundleField) dataValue(ref string) ([]byte, bool) {
	name, rest := splitFirst(ref)
	if m := findByName(f.members, name); m != nil {
		return m.dataValue(rest)
	}
	return nil, false
}

func (f *BundleField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	cp.members = cloneFields(f.members, &cp)
	cp.aliases = nil
	for _, a := range f.aliases {
		ac := *a
		ac.parent = &cp
		if r, ok := memberRef(cp.members, ac.fieldPath); ok {
			ac.target = r
		}
		cp.aliases = append(cp.aliases, &ac)
	}
	cp.validCond = cond.Clone(f.validCond)
	return &cp
}

func (f *BundleField) parseKind(p *props) error {
	s := f.schema
	reuseAliases := true
	if err := p.setBool("reuseAliases", &reuseAliases); err != nil {
		return err
	}
	if !reuseAliases {
		f.aliases = nil
	}
	members, err := s.replaceMembers(f, f.members, p)
	if err != nil {
		return err
	}
	elems, err := s.memberElements(p, "members")
	if err != nil {
		return err
	}
	if members, err = s.appendMembers(f, members, elems); err != nil {
		return err
	}
	f.members = members
	if len(f.members) == 0 {
		return f.errorf(dslerrors.ErrMissingProperty, "field %q: bundle requires members", f.name)
	}
	if f.aliases, err = rebindAliases(s, f.aliases, f, f.members); err != nil {
		return err
	}
	if f.aliases, err = s.parseAliases(f, p, f.members, f.aliases); err != nil {
		return err
	}
	return f.parseValidCond(p)
}

func (f *BundleField) parseValidCond(p *props) error {
	s := f.schema
	scope := condScope{schema: s, fields: f.members}
	c, elem, err := s.readCond(p, "validCond")
	if err != nil {
		return err
	}
	if v, ok := p.get("copyValidCondFrom"); ok {
		if c != nil {
			return s.errorf(v.elem, dslerrors.ErrCondition, "field %q: validCond and copyValidCondFrom are mutually exclusive", f.name)
		}
		c, err = s.copyCondFrom(v.elem, strings.TrimSpace(v.value), condValid)
		if err != nil {
			return err
		}
		elem = v.elem
	}
	if c == nil {
		if f.validCond != nil {
			// Cloned conditions must still hold for the final members.
			return scope.verify(f.elem, f.validCond)
		}
		return nil
	}
	if err := scope.verify(elem, c); err != nil {
		return err
	}
	f.validCond = c
	return nil
}

var variantSpec = elementSpec{
	props:         []string{"defaultMember", "displayIdxReadOnlyHidden"},
	children:      []string{"members"},
	fieldChildren: true,
}

// NoDefaultMember marks a variant without a default member.
const NoDefaultMember = -1

// VariantField holds exactly one of its members.
type VariantField struct {
	fieldBase

	members                  []Field
	defaultMember            int
	displayIdxReadOnlyHidden bool
}

func newVariantField() *VariantField {
	return &VariantField{fieldBase: newFieldBase(), defaultMember: NoDefaultMember}
}

// Kind returns KindVariant.
func (f *VariantField) Kind() Kind { return KindVariant }

// Members returns the alternatives.
func (f *VariantField) Members() []Field { return slices.Clone(f.members) }

// DefaultMember returns the index of the default member or NoDefaultMember.
func (f *VariantField) DefaultMember() int { return f.defaultMember }

// DisplayIdxReadOnlyHidden reports the index display hint.
func (f *VariantField) DisplayIdxReadOnlyHidden() bool { return f.displayIdxReadOnlyHidden }

// MinLength is the smallest member minimum.
func (f *VariantField) MinLength() int {
	if len(f.members) == 0 {
		return 0
	}
	lo := f.members[0].MinLength()
	for _, m := range f.members[1:] {
		lo = min(lo, m.MinLength())
	}
	return lo
}

// MaxLength is the largest member maximum.
func (f *VariantField) MaxLength() int {
	hi := 0
	for _, m := range f.members {
		hi = max(hi, m.MaxLength())
	}
	return hi
}

func (f *VariantField) innerRef(path string) (FieldRef, bool) {
	return memberRef(f.members, path)
}

func (f *VariantField) numericValue(ref string) (int64, bool, bool) {
	name, rest := splitFirst(ref)
	if m := findByName(f.members, name); m != nil {
		return m.numericValue(rest)
	}
	return 0, false, false
}

func (f *VariantField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	cp.members = make([]Field, len(f.members))
	for i, m := range f.members {
		cp.members[i] = m.clone(&cp)
	}
	return &cp
}

func (f *VariantField) parseKind(p *props) error {
	s := f.schema
	elems, err := s.memberElements(p, "members")
	if err != nil {
		return err
	}
	// Alternatives never see each other, so there are no siblings to bind.
	members := f.members
	for _, elem := range elems {
		m, err := s.newField(elem, f)
		if err != nil {
			return err
		}
		if findByName(members, m.Name()) != nil {
			return s.errorf(elem, dslerrors.ErrDuplicateName, "field %q: member %q defined more than once", f.name, m.Name())
		}
		members = append(members, m)
	}
	f.members = members
	if err := p.setBool("displayIdxReadOnlyHidden", &f.displayIdxReadOnlyHidden); err != nil {
		return err
	}
	if v, ok := p.get("defaultMember"); ok {
		idx, err := f.memberIndex(v.elem, v.value)
		if err != nil {
			return err
		}
		f.defaultMember = idx
	}
	if f.defaultMember >= len(f.members) {
		return f.errorf(dslerrors.ErrInvalidValue, "field %q: default member index %d out of range", f.name, f.defaultMember)
	}
	return nil
}

func (f *VariantField) memberIndex(elem xmlnode.Element, value string) (int, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "none", "-1":
		return NoDefaultMember, nil
	}
	if idx := slices.IndexFunc(f.members, func(m Field) bool { return m.Name() == value }); idx >= 0 {
		return idx, nil
	}
	if v, isLit, inRange := parseIntLiteral(value, intBounds{min: 0, max: int64(len(f.members) - 1)}); isLit {
		if !inRange {
			return 0, f.schema.errorf(elem, dslerrors.ErrInvalidValue, "field %q: default member index %s out of range", f.name, value)
		}
		return int(v), nil
	}
	return 0, f.schema.errorf(elem, dslerrors.ErrUnresolvedRef, "field %q: unknown default member %q", f.name, value)
}
