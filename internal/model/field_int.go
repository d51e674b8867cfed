package model

import (
	"slices"
	"strconv"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/num"
)

var intSpec = elementSpec{
	props: []string{
		"type", "length", "bitLength", "endian", "serOffset", "signExt",
		"scaling", "units", "displayDecimals", "displayOffset", "defaultValue",
		"defaultValidValue", "validCheckVersion", "nonUniqueSpecialsAllowed",
		"displaySpecials", "availableLengthLimit",
	},
	multi:    validRangeProps,
	children: []string{"special"},
}

// Special is a named value of an int or float field.
type Special[T int64 | float64] struct {
	Name            string
	DisplayName     string
	Description     string
	Value           T
	SinceVersion    uint
	DeprecatedSince uint
}

// Scaling is a numerator/denominator pair.
type Scaling struct {
	Num int64
	Den int64
}

// IntField is an integral value.
type IntField struct {
	fieldBase

	typ       IntType
	hasType   bool
	length    int
	bitLength int
	endian    Endian
	serOffset int64
	signExt   bool
	scaling   Scaling
	units     string

	displayDecimals int
	displayOffset   int64
	displaySpecials bool

	defaultValue             int64
	defaultValidValue        bool
	validCheckVersion        bool
	nonUniqueSpecialsAllowed bool
	availableLengthLimit     bool

	specials    []Special[int64]
	validRanges []ValidRange[int64]
}

func newIntField() *IntField {
	return &IntField{
		fieldBase:       newFieldBase(),
		signExt:         true,
		scaling:         Scaling{Num: 1, Den: 1},
		displaySpecials: true,
	}
}

// Kind returns KindInt.
func (f *IntField) Kind() Kind { return KindInt }

// Type returns the storage type.
func (f *IntField) Type() IntType { return f.typ }

// Endian returns the byte order.
func (f *IntField) Endian() Endian { return f.endian }

// SerOffset returns the value added before serialization.
func (f *IntField) SerOffset() int64 { return f.serOffset }

// SignExt reports whether shortened signed values are sign extended.
func (f *IntField) SignExt() bool { return f.signExt }

// Scaling returns the display scaling ratio.
func (f *IntField) Scaling() Scaling { return f.scaling }

// Units returns the units name.
func (f *IntField) Units() string { return f.units }

// DisplayDecimals returns the number of decimals shown.
func (f *IntField) DisplayDecimals() int { return f.displayDecimals }

// DisplayOffset returns the offset applied when displaying.
func (f *IntField) DisplayOffset() int64 { return f.displayOffset }

// DisplaySpecials reports whether specials are shown.
func (f *IntField) DisplaySpecials() bool { return f.displaySpecials }

// DefaultValue returns the default value. Unsigned 64-bit values are
// reinterpreted as int64.
func (f *IntField) DefaultValue() int64 { return f.defaultValue }

// ValidCheckVersion reports whether valid ranges honor version windows.
func (f *IntField) ValidCheckVersion() bool { return f.validCheckVersion }

// AvailableLengthLimit reports whether the field may be truncated by the
// available length.
func (f *IntField) AvailableLengthLimit() bool { return f.availableLengthLimit }

// IsUnsigned reports an unsigned storage type.
func (f *IntField) IsUnsigned() bool { return !f.typ.IsSigned() }

// Specials returns the named values ordered by value.
func (f *IntField) Specials() []Special[int64] { return slices.Clone(f.specials) }

// ValidRanges returns the normalized valid ranges.
func (f *IntField) ValidRanges() []ValidRange[int64] { return slices.Clone(f.validRanges) }

// MinLength returns the serialized minimal length.
func (f *IntField) MinLength() int {
	if f.typ.IsVariable() {
		return 1
	}
	return f.length
}

// MaxLength returns the serialized maximal length.
func (f *IntField) MaxLength() int { return f.length }

// BitLength returns the width inside a bitfield.
func (f *IntField) BitLength() int { return f.bitLength }

// Bounds returns the minimal and maximal values of the storage layout.
func (f *IntField) Bounds() (lo, hi int64) {
	b := f.bounds()
	return b.min, b.max
}

func (f *IntField) bounds() intBounds {
	return boundsFor(f.typ, f.length, f.bitLength)
}

// IsValid reports whether v is covered by a valid range for the version.
// Without ranges every value of the type is valid.
func (f *IntField) IsValid(v int64, version uint) bool {
	if len(f.validRanges) == 0 {
		return f.bounds().contains(v)
	}
	unsigned := f.IsUnsigned()
	for _, r := range f.validRanges {
		if f.validCheckVersion && (version < r.SinceVersion || version >= r.DeprecatedSince) {
			continue
		}
		if num.Compare(v, r.Min, unsigned) >= 0 && num.Compare(v, r.Max, unsigned) <= 0 {
			return true
		}
	}
	return false
}

// IsComparableToValue accepts integer literals, specials and external
// value references.
func (f *IntField) IsComparableToValue(value string) bool {
	_, ok := f.resolveValue(value)
	return ok
}

// IsComparableToField accepts any numeric field.
func (f *IntField) IsComparableToField(other Field) bool {
	switch resolveRefTarget(other).(type) {
	case *IntField, *EnumField, *FloatField:
		return true
	}
	return false
}

func (f *IntField) numericValue(ref string) (int64, bool, bool) {
	if ref == "" {
		return f.defaultValue, f.isBig(f.defaultValue), true
	}
	for _, s := range f.specials {
		if s.Name == ref {
			return s.Value, f.isBig(s.Value), true
		}
	}
	return 0, false, false
}

func (f *IntField) boolValue(ref string) (bool, bool) {
	v, _, ok := f.numericValue(ref)
	return v != 0, ok
}

// resolveValue converts a literal, a special name or an external value
// reference into a value of the field.
func (f *IntField) resolveValue(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if v, ok, inRange := parseIntLiteral(s, f.bounds()); ok {
		return v, inRange
	}
	if v, _, ok := f.numericValue(s); ok && s != "" {
		return v, true
	}
	if f.schema == nil || !IsValidRefName(s) {
		return 0, false
	}
	v, big, ok := f.schema.proto.strToNumeric(s, f.schema)
	if !ok {
		return 0, false
	}
	return v, f.bounds().containsValue(v, big)
}

// isBig reports whether v, stored reinterpreted as int64, is an unsigned
// value above MaxInt64.
func (f *IntField) isBig(v int64) bool { return f.IsUnsigned() && v < 0 }

func (f *IntField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	cp.specials = slices.Clone(f.specials)
	cp.validRanges = slices.Clone(f.validRanges)
	return &cp
}

func (f *IntField) parseKind(p *props) error {
	if v, ok := p.get("type"); ok {
		t, valid := parseIntType(v.value)
		if !valid {
			return f.errorf(dslerrors.ErrInvalidValue, "field %q: unknown int type %q", f.name, v.value)
		}
		f.typ, f.hasType = t, true
		f.length = t.Length()
	}
	if !f.hasType {
		return f.errorf(dslerrors.ErrMissingProperty, "field %q: int requires a type", f.name)
	}
	if err := parseLayout(&f.fieldBase, p, f.typ, &f.length, &f.bitLength, &f.endian); err != nil {
		return err
	}
	if err := p.setInt("displayDecimals", &f.displayDecimals); err != nil {
		return err
	}
	p.setString("units", &f.units)
	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"signExt", &f.signExt},
		{"defaultValidValue", &f.defaultValidValue},
		{"validCheckVersion", &f.validCheckVersion},
		{"nonUniqueSpecialsAllowed", &f.nonUniqueSpecialsAllowed},
		{"displaySpecials", &f.displaySpecials},
		{"availableLengthLimit", &f.availableLengthLimit},
	} {
		if err := p.setBool(flag.name, flag.dst); err != nil {
			return err
		}
	}
	if err := f.parseSigned(p, "serOffset", &f.serOffset); err != nil {
		return err
	}
	if err := f.parseSigned(p, "displayOffset", &f.displayOffset); err != nil {
		return err
	}
	if v, ok := p.get("scaling"); ok {
		sc, valid := parseScaling(v.value)
		if !valid {
			return f.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid scaling %q", f.name, v.value)
		}
		f.scaling = sc
	}
	if err := f.parseSpecials(p); err != nil {
		return err
	}
	if v, ok := p.get("defaultValue"); ok {
		d, valid := f.resolveValue(v.value)
		if !valid {
			return f.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid default value %q", f.name, v.value)
		}
		f.defaultValue = d
	} else if !f.bounds().contains(f.defaultValue) {
		f.defaultValue = f.bounds().min
	}
	return f.parseValidRanges(p)
}

func (f *IntField) parseSigned(p *props, name string, dst *int64) error {
	v, ok := p.get(name)
	if !ok {
		return nil
	}
	n, big, err := num.ParseInt(v.value)
	if err != nil || big {
		return f.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid %s %q", f.name, name, v.value)
	}
	*dst = n
	return nil
}

func parseScaling(s string) (Scaling, bool) {
	numText, denText, found := strings.Cut(s, "/")
	if !found {
		return Scaling{}, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(numText), 0, 64)
	if err != nil {
		return Scaling{}, false
	}
	d, err := strconv.ParseInt(strings.TrimSpace(denText), 0, 64)
	if err != nil || d == 0 {
		return Scaling{}, false
	}
	return Scaling{Num: n, Den: d}, true
}

var specialSpec = elementSpec{
	props: []string{"name", "val", "displayName", "description", "sinceVersion", "deprecated"},
}

func (f *IntField) parseSpecials(p *props) error {
	elems := p.childrenNamed("special")
	if len(elems) == 0 {
		return nil
	}
	bounds := f.bounds()
	for _, elem := range elems {
		sp, err := f.schema.readProps(elem, specialSpec)
		if err != nil {
			return err
		}
		s := Special[int64]{SinceVersion: f.sinceVersion, DeprecatedSince: f.deprecatedSince}
		sp.setString("name", &s.Name)
		if !IsValidName(s.Name) {
			return f.schema.errorf(elem, dslerrors.ErrInvalidName, "field %q: invalid special name %q", f.name, s.Name)
		}
		sp.setString("displayName", &s.DisplayName)
		sp.setString("description", &s.Description)
		valText, ok := sp.str("val")
		if !ok {
			return f.schema.errorf(elem, dslerrors.ErrMissingProperty, "field %q: special %q requires val", f.name, s.Name)
		}
		v, isLit, inRange := parseIntLiteral(valText, bounds)
		if !isLit || !inRange {
			return f.schema.errorf(elem, dslerrors.ErrInvalidValue, "field %q: special %q value %q is out of range", f.name, s.Name, valText)
		}
		s.Value = v
		if err := sp.setUint("sinceVersion", &s.SinceVersion); err != nil {
			return err
		}
		if err := sp.setUint("deprecated", &s.DeprecatedSince); err != nil {
			return err
		}
		if err := checkVersionWindow(f.schema, elem, "special "+s.Name, s.SinceVersion, s.DeprecatedSince, false, f.sinceVersion, f.deprecatedSince); err != nil {
			return err
		}
		for _, other := range f.specials {
			if other.Name == s.Name {
				return f.schema.errorf(elem, dslerrors.ErrDuplicateName, "field %q: special %q defined more than once", f.name, s.Name)
			}
			if other.Value == s.Value && !f.nonUniqueSpecialsAllowed {
				return f.schema.errorf(elem, dslerrors.ErrDuplicateID, "field %q: specials %q and %q share value %s",
					f.name, other.Name, s.Name, num.Format(v, f.IsUnsigned()))
			}
		}
		f.specials = append(f.specials, s)
	}
	unsigned := f.IsUnsigned()
	slices.SortStableFunc(f.specials, func(a, b Special[int64]) int { return num.Compare(a.Value, b.Value, unsigned) })
	return nil
}

func (f *IntField) parseValidRanges(p *props) error {
	raws, err := f.collectRanges(p)
	if err != nil {
		return err
	}
	bounds := f.bounds()
	ranges := slices.Clone(f.validRanges)
	for _, r := range raws {
		lo, hi := bounds.min, bounds.max
		if r.kind != rangeMax {
			v, ok := f.resolveRangeBound(r, r.lo)
			if !ok {
				continue
			}
			lo = v
		}
		if r.kind != rangeMin {
			v, ok := f.resolveRangeBound(r, r.hi)
			if !ok {
				continue
			}
			hi = v
		}
		if num.Compare(lo, hi, bounds.unsigned) > 0 {
			return f.schema.errorf(r.elem, dslerrors.ErrInvalidValue, "field %q: valid range [%s, %s] is inverted",
				f.name, num.Format(lo, bounds.unsigned), num.Format(hi, bounds.unsigned))
		}
		ranges = append(ranges, ValidRange[int64]{Min: lo, Max: hi, SinceVersion: r.since, DeprecatedSince: r.dep})
	}
	if f.defaultValidValue {
		ranges = append(ranges, ValidRange[int64]{
			Min: f.defaultValue, Max: f.defaultValue,
			SinceVersion: f.sinceVersion, DeprecatedSince: f.deprecatedSince,
		})
	}
	if !f.validCheckVersion {
		flattenWindows(ranges)
	}
	unsigned := bounds.unsigned
	f.validRanges = normalizeRanges(ranges,
		func(a, b int64) int { return num.Compare(a, b, unsigned) },
		func(hi, next int64) bool { return num.Adjacent(hi, next, unsigned) })
	return nil
}

// resolveRangeBound converts one bound, warning about values outside the
// storage type.
func (f *IntField) resolveRangeBound(r rawRange, text string) (int64, bool) {
	if v, ok, inRange := parseIntLiteral(text, f.bounds()); ok {
		if !inRange {
			f.schema.warnf(r.elem, dslerrors.WarnConsistency, "field %q: valid value %q is outside the type range, ignored", f.name, text)
			return 0, false
		}
		return v, true
	}
	v, ok := f.resolveValue(text)
	if !ok {
		f.schema.warnf(r.elem, dslerrors.WarnConsistency, "field %q: valid value %q cannot be resolved, ignored", f.name, text)
		return 0, false
	}
	return v, true
}

// parseLayout reads length, bitLength and endian shared by int, enum and
// set fields.
func parseLayout(b *fieldBase, p *props, t IntType, length, bitLength *int, endian *Endian) error {
	if b.reusedFrom == nil {
		*endian = b.schema.endian
	}
	if v, ok := p.get("endian"); ok {
		e, valid := parseEndian(v.value)
		if !valid {
			return b.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid endian %q", b.name, v.value)
		}
		*endian = e
	}
	if v, ok := p.get("length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v.value))
		if err != nil || n <= 0 || n > t.Length() {
			return b.schema.errorf(v.elem, dslerrors.ErrLength, "field %q: length %q is invalid for type %s", b.name, v.value, t)
		}
		*length = n
	}
	inBitfield := false
	if parent, ok := b.parent.(Field); ok && parent.Kind() == KindBitfield {
		inBitfield = true
	}
	if v, ok := p.get("bitLength"); ok {
		if !inBitfield {
			b.schema.warnf(v.elem, dslerrors.WarnConsistency, "field %q: bitLength is only meaningful for bitfield members, ignored", b.name)
		} else {
			n, err := strconv.Atoi(strings.TrimSpace(v.value))
			if err != nil || n <= 0 {
				return b.schema.errorf(v.elem, dslerrors.ErrLength, "field %q: invalid bitLength %q", b.name, v.value)
			}
			*bitLength = n
		}
	}
	if inBitfield {
		if t.IsVariable() {
			return b.errorf(dslerrors.ErrLength, "field %q: variable length type %s cannot be a bitfield member", b.name, t)
		}
		if *bitLength == 0 {
			*bitLength = *length * 8
		}
		if *bitLength > *length*8 {
			return b.errorf(dslerrors.ErrLength, "field %q: bitLength %d exceeds %d bits of its length", b.name, *bitLength, *length*8)
		}
	} else {
		*bitLength = 0
	}
	return nil
}
