package model

import (
	"slices"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/num"
)

var enumSpec = elementSpec{
	props: []string{
		"type", "length", "bitLength", "endian", "defaultValue", "hexAssign",
		"nonUniqueAllowed", "validCheckVersion", "availableLengthLimit",
	},
	children: []string{"validValue"},
}

// EnumValue is one named value of an enum field.
type EnumValue struct {
	Name            string
	DisplayName     string
	Description     string
	Value           int64
	SinceVersion    uint
	DeprecatedSince uint
}

// EnumField is a closed set of named integral values.
type EnumField struct {
	fieldBase

	typ       IntType
	hasType   bool
	length    int
	bitLength int
	endian    Endian

	defaultValue         int64
	hexAssign            bool
	nonUniqueAllowed     bool
	validCheckVersion    bool
	availableLengthLimit bool

	values []EnumValue
}

func newEnumField() *EnumField {
	return &EnumField{fieldBase: newFieldBase()}
}

// Kind returns KindEnum.
func (f *EnumField) Kind() Kind { return KindEnum }

// Type returns the storage type.
func (f *EnumField) Type() IntType { return f.typ }

// Endian returns the byte order.
func (f *EnumField) Endian() Endian { return f.endian }

// DefaultValue returns the default numeric value.
func (f *EnumField) DefaultValue() int64 { return f.defaultValue }

// HexAssign reports whether generated values use hexadecimal literals.
func (f *EnumField) HexAssign() bool { return f.hexAssign }

// NonUniqueAllowed reports whether several names may share a value.
func (f *EnumField) NonUniqueAllowed() bool { return f.nonUniqueAllowed }

// ValidCheckVersion reports whether values honor their version window.
func (f *EnumField) ValidCheckVersion() bool { return f.validCheckVersion }

// AvailableLengthLimit reports whether the field may be truncated.
func (f *EnumField) AvailableLengthLimit() bool { return f.availableLengthLimit }

// Values returns the named values ordered by value, then name.
func (f *EnumField) Values() []EnumValue { return slices.Clone(f.values) }

// Value returns the value with the name.
func (f *EnumField) Value(name string) (EnumValue, bool) {
	for _, v := range f.values {
		if v.Name == name {
			return v, true
		}
	}
	return EnumValue{}, false
}

// MinLength returns the serialized minimal length.
func (f *EnumField) MinLength() int {
	if f.typ.IsVariable() {
		return 1
	}
	return f.length
}

// MaxLength returns the serialized maximal length.
func (f *EnumField) MaxLength() int { return f.length }

// BitLength returns the width inside a bitfield.
func (f *EnumField) BitLength() int { return f.bitLength }

func (f *EnumField) bounds() intBounds { return boundsFor(f.typ, f.length, f.bitLength) }

// IsValid reports whether v is one of the declared values for the version.
func (f *EnumField) IsValid(v int64, version uint) bool {
	for _, ev := range f.values {
		if ev.Value != v {
			continue
		}
		if !f.validCheckVersion || version >= ev.SinceVersion && version < ev.DeprecatedSince {
			return true
		}
	}
	return false
}

// IsComparableToValue accepts value names, literals and external refs.
func (f *EnumField) IsComparableToValue(value string) bool {
	_, ok := f.resolveValue(value)
	return ok
}

// IsComparableToField accepts int and enum fields.
func (f *EnumField) IsComparableToField(other Field) bool {
	switch resolveRefTarget(other).(type) {
	case *IntField, *EnumField:
		return true
	}
	return false
}

func (f *EnumField) numericValue(ref string) (int64, bool, bool) {
	if ref == "" {
		return f.defaultValue, !f.typ.IsSigned() && f.defaultValue < 0, true
	}
	if v, ok := f.Value(ref); ok {
		return v.Value, !f.typ.IsSigned() && v.Value < 0, true
	}
	return 0, false, false
}

func (f *EnumField) boolValue(ref string) (bool, bool) {
	v, _, ok := f.numericValue(ref)
	return v != 0, ok
}

func (f *EnumField) resolveValue(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if v, ok, inRange := parseIntLiteral(s, f.bounds()); ok {
		return v, inRange
	}
	if v, ok := f.Value(s); ok {
		return v.Value, true
	}
	if f.schema == nil || !IsValidRefName(s) {
		return 0, false
	}
	v, big, ok := f.schema.proto.strToNumeric(s, f.schema)
	return v, ok && f.bounds().containsValue(v, big)
}

func (f *EnumField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	cp.values = slices.Clone(f.values)
	return &cp
}

var enumValueSpec = elementSpec{
	props: []string{"name", "val", "displayName", "description", "sinceVersion", "deprecated"},
}

func (f *EnumField) parseKind(p *props) error {
	if v, ok := p.get("type"); ok {
		t, valid := parseIntType(v.value)
		if !valid {
			return f.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: unknown enum type %q", f.name, v.value)
		}
		f.typ, f.hasType, f.length = t, true, t.Length()
	}
	if !f.hasType {
		return f.errorf(dslerrors.ErrMissingProperty, "field %q: enum requires a type", f.name)
	}
	if err := parseLayout(&f.fieldBase, p, f.typ, &f.length, &f.bitLength, &f.endian); err != nil {
		return err
	}
	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"hexAssign", &f.hexAssign},
		{"nonUniqueAllowed", &f.nonUniqueAllowed},
		{"validCheckVersion", &f.validCheckVersion},
		{"availableLengthLimit", &f.availableLengthLimit},
	} {
		if err := p.setBool(flag.name, flag.dst); err != nil {
			return err
		}
	}
	bounds := f.bounds()
	for _, elem := range p.childrenNamed("validValue") {
		vp, err := f.schema.readProps(elem, enumValueSpec)
		if err != nil {
			return err
		}
		ev := EnumValue{SinceVersion: f.sinceVersion, DeprecatedSince: f.deprecatedSince}
		vp.setString("name", &ev.Name)
		if !IsValidName(ev.Name) {
			return f.schema.errorf(elem, dslerrors.ErrInvalidName, "field %q: invalid value name %q", f.name, ev.Name)
		}
		vp.setString("displayName", &ev.DisplayName)
		vp.setString("description", &ev.Description)
		valText, _ := vp.str("val")
		v, isLit, inRange := parseIntLiteral(valText, bounds)
		if !isLit || !inRange {
			return f.schema.errorf(elem, dslerrors.ErrInvalidValue, "field %q: value %q has invalid val %q", f.name, ev.Name, valText)
		}
		ev.Value = v
		if err := vp.setUint("sinceVersion", &ev.SinceVersion); err != nil {
			return err
		}
		if err := vp.setUint("deprecated", &ev.DeprecatedSince); err != nil {
			return err
		}
		if err := checkVersionWindow(f.schema, elem, "value "+ev.Name, ev.SinceVersion, ev.DeprecatedSince, false, f.sinceVersion, f.deprecatedSince); err != nil {
			return err
		}
		for _, other := range f.values {
			if other.Name == ev.Name {
				return f.schema.errorf(elem, dslerrors.ErrDuplicateName, "field %q: value %q defined more than once", f.name, ev.Name)
			}
			if other.Value == ev.Value && !f.nonUniqueAllowed {
				return f.schema.errorf(elem, dslerrors.ErrDuplicateID, "field %q: values %q and %q share %s",
					f.name, other.Name, ev.Name, num.Format(v, bounds.unsigned))
			}
		}
		f.values = append(f.values, ev)
	}
	if len(f.values) == 0 {
		return f.errorf(dslerrors.ErrMissingProperty, "field %q: enum requires at least one validValue", f.name)
	}
	slices.SortStableFunc(f.values, func(a, b EnumValue) int {
		if c := num.Compare(a.Value, b.Value, bounds.unsigned); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	if v, ok := p.get("defaultValue"); ok {
		d, valid := f.resolveValue(v.value)
		if !valid {
			return f.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid default value %q", f.name, v.value)
		}
		f.defaultValue = d
	}
	return nil
}
