package model

import (
	"slices"
	"strconv"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
)

var setSpec = elementSpec{
	props: []string{
		"type", "length", "bitLength", "endian", "defaultValue", "reservedValue",
		"nonUniqueAllowed", "validCheckVersion", "availableLengthLimit",
	},
	children: []string{"bit"},
}

// SetBit is one named bit of a set field.
type SetBit struct {
	Name            string
	DisplayName     string
	Description     string
	Idx             int
	DefaultValue    bool
	Reserved        bool
	ReservedValue   bool
	SinceVersion    uint
	DeprecatedSince uint
}

// SetField is a collection of named bits.
type SetField struct {
	fieldBase

	typ       IntType
	hasType   bool
	length    int
	bitLength int
	endian    Endian

	defaultValue         bool
	reservedValue        bool
	nonUniqueAllowed     bool
	validCheckVersion    bool
	availableLengthLimit bool

	bits []SetBit
}

func newSetField() *SetField {
	return &SetField{fieldBase: newFieldBase()}
}

// Kind returns KindSet.
func (f *SetField) Kind() Kind { return KindSet }

// Type returns the storage type.
func (f *SetField) Type() IntType { return f.typ }

// Endian returns the byte order.
func (f *SetField) Endian() Endian { return f.endian }

// DefaultValue returns the default of undeclared bits.
func (f *SetField) DefaultValue() bool { return f.defaultValue }

// ReservedValue returns the expected value of reserved bits.
func (f *SetField) ReservedValue() bool { return f.reservedValue }

// NonUniqueAllowed reports whether several names may share a bit.
func (f *SetField) NonUniqueAllowed() bool { return f.nonUniqueAllowed }

// ValidCheckVersion reports whether bits honor their version window.
func (f *SetField) ValidCheckVersion() bool { return f.validCheckVersion }

// AvailableLengthLimit reports whether the field may be truncated.
func (f *SetField) AvailableLengthLimit() bool { return f.availableLengthLimit }

// Bits returns the named bits ordered by index.
func (f *SetField) Bits() []SetBit { return slices.Clone(f.bits) }

// Bit returns the bit with the name.
func (f *SetField) Bit(name string) (SetBit, bool) {
	for _, b := range f.bits {
		if b.Name == name {
			return b, true
		}
	}
	return SetBit{}, false
}

// MinLength returns the serialized length.
func (f *SetField) MinLength() int { return f.length }

// MaxLength returns the serialized length.
func (f *SetField) MaxLength() int { return f.length }

// BitLength returns the width inside a bitfield.
func (f *SetField) BitLength() int { return f.bitLength }

func (f *SetField) width() int {
	if f.bitLength > 0 {
		return f.bitLength
	}
	return f.length * 8
}

// IsComparableToField accepts other set fields.
func (f *SetField) IsComparableToField(other Field) bool {
	_, ok := resolveRefTarget(other).(*SetField)
	return ok
}

func (f *SetField) innerRef(path string) (FieldRef, bool) {
	if _, ok := f.Bit(path); ok {
		return FieldRef{Field: f, Type: RefBit, Bit: path}, true
	}
	return FieldRef{}, false
}

func (f *SetField) boolValue(ref string) (bool, bool) {
	if ref == "" {
		return f.defaultValue, true
	}
	if b, ok := f.Bit(ref); ok {
		return b.DefaultValue, true
	}
	return false, false
}

func (f *SetField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	cp.bits = slices.Clone(f.bits)
	return &cp
}

// typeForLength picks the unsigned type able to hold length bytes.
func typeForLength(length int) (IntType, bool) {
	switch {
	case length == 1:
		return TypeUint8, true
	case length == 2:
		return TypeUint16, true
	case length >= 3 && length <= 4:
		return TypeUint32, true
	case length >= 5 && length <= 8:
		return TypeUint64, true
	}
	return 0, false
}

var bitSpec = elementSpec{
	props: []string{
		"name", "idx", "displayName", "description", "defaultValue", "reserved",
		"reservedValue", "sinceVersion", "deprecated",
	},
}

func (f *SetField) parseKind(p *props) error {
	if v, ok := p.get("type"); ok {
		t, valid := parseIntType(v.value)
		if !valid || t.IsSigned() || t.IsVariable() {
			return f.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid set type %q", f.name, v.value)
		}
		f.typ, f.hasType, f.length = t, true, t.Length()
	} else if v, ok := p.get("length"); ok && !f.hasType {
		n, err := strconv.Atoi(strings.TrimSpace(v.value))
		t, valid := typeForLength(n)
		if err != nil || !valid {
			return f.schema.errorf(v.elem, dslerrors.ErrLength, "field %q: invalid set length %q", f.name, v.value)
		}
		f.typ, f.hasType, f.length = t, true, t.Length()
	}
	if !f.hasType {
		return f.errorf(dslerrors.ErrMissingProperty, "field %q: set requires a type or length", f.name)
	}
	if err := parseLayout(&f.fieldBase, p, f.typ, &f.length, &f.bitLength, &f.endian); err != nil {
		return err
	}
	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"defaultValue", &f.defaultValue},
		{"reservedValue", &f.reservedValue},
		{"nonUniqueAllowed", &f.nonUniqueAllowed},
		{"validCheckVersion", &f.validCheckVersion},
		{"availableLengthLimit", &f.availableLengthLimit},
	} {
		if err := p.setBool(flag.name, flag.dst); err != nil {
			return err
		}
	}
	width := f.width()
	for _, elem := range p.childrenNamed("bit") {
		bp, err := f.schema.readProps(elem, bitSpec)
		if err != nil {
			return err
		}
		bit := SetBit{
			DefaultValue:    f.defaultValue,
			ReservedValue:   f.reservedValue,
			SinceVersion:    f.sinceVersion,
			DeprecatedSince: f.deprecatedSince,
		}
		bp.setString("name", &bit.Name)
		if !IsValidName(bit.Name) {
			return f.schema.errorf(elem, dslerrors.ErrInvalidName, "field %q: invalid bit name %q", f.name, bit.Name)
		}
		bp.setString("displayName", &bit.DisplayName)
		bp.setString("description", &bit.Description)
		idx, present, err := bp.unsigned("idx")
		if err != nil {
			return err
		}
		if !present {
			return f.schema.errorf(elem, dslerrors.ErrMissingProperty, "field %q: bit %q requires idx", f.name, bit.Name)
		}
		if idx >= uint64(width) {
			return f.schema.errorf(elem, dslerrors.ErrLength, "field %q: bit %q index %d exceeds %d bits", f.name, bit.Name, idx, width)
		}
		bit.Idx = int(idx)
		for _, flag := range []struct {
			name string
			dst  *bool
		}{
			{"defaultValue", &bit.DefaultValue},
			{"reserved", &bit.Reserved},
			{"reservedValue", &bit.ReservedValue},
		} {
			if err := bp.setBool(flag.name, flag.dst); err != nil {
				return err
			}
		}
		if err := bp.setUint("sinceVersion", &bit.SinceVersion); err != nil {
			return err
		}
		if err := bp.setUint("deprecated", &bit.DeprecatedSince); err != nil {
			return err
		}
		if err := checkVersionWindow(f.schema, elem, "bit "+bit.Name, bit.SinceVersion, bit.DeprecatedSince, false, f.sinceVersion, f.deprecatedSince); err != nil {
			return err
		}
		for _, other := range f.bits {
			if other.Name == bit.Name {
				return f.schema.errorf(elem, dslerrors.ErrDuplicateName, "field %q: bit %q defined more than once", f.name, bit.Name)
			}
			if other.Idx == bit.Idx && !f.nonUniqueAllowed {
				return f.schema.errorf(elem, dslerrors.ErrDuplicateID, "field %q: bits %q and %q share index %d", f.name, other.Name, bit.Name, bit.Idx)
			}
		}
		f.bits = append(f.bits, bit)
	}
	slices.SortStableFunc(f.bits, func(a, b SetBit) int {
		if a.Idx != b.Idx {
			return a.Idx - b.Idx
		}
		return strings.Compare(a.Name, b.Name)
	})
	return nil
}
