package model

import (
	"cmp"
	"math"
	"slices"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/num"
)

var floatSpec = elementSpec{
	props: []string{
		"type", "endian", "defaultValue", "validFullRange", "validCheckVersion",
		"units", "displayDecimals", "nonUniqueSpecialsAllowed", "displaySpecials",
	},
	multi:    validRangeProps,
	children: []string{"special"},
}

// FloatType is the storage type of a float field.
type FloatType uint8

const (
	TypeFloat FloatType = iota
	TypeDouble
)

// String returns the DSL spelling of the type.
func (t FloatType) String() string {
	if t == TypeDouble {
		return "double"
	}
	return "float"
}

// Length returns the byte length of the type.
func (t FloatType) Length() int {
	if t == TypeDouble {
		return 8
	}
	return 4
}

// FloatField is an IEEE 754 value.
type FloatField struct {
	fieldBase

	typ     FloatType
	hasType bool
	endian  Endian
	units   string

	displayDecimals int
	displaySpecials bool

	defaultValue             float64
	validCheckVersion        bool
	nonUniqueSpecialsAllowed bool
	validNaN                 bool

	specials    []Special[float64]
	validRanges []ValidRange[float64]
}

func newFloatField() *FloatField {
	return &FloatField{fieldBase: newFieldBase(), displaySpecials: true}
}

// Kind returns KindFloat.
func (f *FloatField) Kind() Kind { return KindFloat }

// Type returns the storage type.
func (f *FloatField) Type() FloatType { return f.typ }

// Endian returns the byte order.
func (f *FloatField) Endian() Endian { return f.endian }

// Units returns the units name.
func (f *FloatField) Units() string { return f.units }

// DisplayDecimals returns the number of decimals shown.
func (f *FloatField) DisplayDecimals() int { return f.displayDecimals }

// DisplaySpecials reports whether specials are shown.
func (f *FloatField) DisplaySpecials() bool { return f.displaySpecials }

// DefaultValue returns the default value.
func (f *FloatField) DefaultValue() float64 { return f.defaultValue }

// ValidCheckVersion reports whether valid ranges honor version windows.
func (f *FloatField) ValidCheckVersion() bool { return f.validCheckVersion }

// HasValidNaN reports whether NaN is declared valid.
func (f *FloatField) HasValidNaN() bool { return f.validNaN }

// Specials returns the named values.
func (f *FloatField) Specials() []Special[float64] { return slices.Clone(f.specials) }

// ValidRanges returns the normalized valid ranges.
func (f *FloatField) ValidRanges() []ValidRange[float64] { return slices.Clone(f.validRanges) }

// MinLength returns the fixed serialized length.
func (f *FloatField) MinLength() int { return f.typ.Length() }

// MaxLength returns the fixed serialized length.
func (f *FloatField) MaxLength() int { return f.typ.Length() }

// IsComparableToValue accepts float literals and specials.
func (f *FloatField) IsComparableToValue(value string) bool {
	_, ok := f.resolveValue(value)
	return ok
}

// IsComparableToField accepts any numeric field.
func (f *FloatField) IsComparableToField(other Field) bool {
	switch resolveRefTarget(other).(type) {
	case *IntField, *EnumField, *FloatField:
		return true
	}
	return false
}

func (f *FloatField) floatValue(ref string) (float64, bool) {
	if ref == "" {
		return f.defaultValue, true
	}
	for _, s := range f.specials {
		if s.Name == ref {
			return s.Value, true
		}
	}
	return 0, false
}

func (f *FloatField) resolveValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := num.ParseFloat(s); err == nil {
		return v, true
	}
	if v, ok := f.floatValue(s); ok && s != "" {
		return v, true
	}
	if f.schema == nil || !IsValidRefName(s) {
		return 0, false
	}
	return f.schema.proto.strToFloat(s, f.schema)
}

func (f *FloatField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	cp.specials = slices.Clone(f.specials)
	cp.validRanges = slices.Clone(f.validRanges)
	return &cp
}

func (f *FloatField) parseKind(p *props) error {
	if v, ok := p.get("type"); ok {
		switch strings.ToLower(strings.TrimSpace(v.value)) {
		case "float":
			f.typ = TypeFloat
		case "double":
			f.typ = TypeDouble
		default:
			return f.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: unknown float type %q", f.name, v.value)
		}
		f.hasType = true
	}
	if !f.hasType {
		return f.errorf(dslerrors.ErrMissingProperty, "field %q: float requires a type", f.name)
	}
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
	p.setString("units", &f.units)
	if err := p.setInt("displayDecimals", &f.displayDecimals); err != nil {
		return err
	}
	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"validCheckVersion", &f.validCheckVersion},
		{"nonUniqueSpecialsAllowed", &f.nonUniqueSpecialsAllowed},
		{"displaySpecials", &f.displaySpecials},
	} {
		if err := p.setBool(flag.name, flag.dst); err != nil {
			return err
		}
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
	}
	return f.parseValidRanges(p)
}

func (f *FloatField) parseSpecials(p *props) error {
	for _, elem := range p.childrenNamed("special") {
		sp, err := f.schema.readProps(elem, specialSpec)
		if err != nil {
			return err
		}
		s := Special[float64]{SinceVersion: f.sinceVersion, DeprecatedSince: f.deprecatedSince}
		sp.setString("name", &s.Name)
		if !IsValidName(s.Name) {
			return f.schema.errorf(elem, dslerrors.ErrInvalidName, "field %q: invalid special name %q", f.name, s.Name)
		}
		sp.setString("displayName", &s.DisplayName)
		sp.setString("description", &s.Description)
		valText, _ := sp.str("val")
		v, perr := num.ParseFloat(valText)
		if perr != nil {
			return f.schema.errorf(elem, dslerrors.ErrInvalidValue, "field %q: special %q has invalid value %q", f.name, s.Name, valText)
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
			same := other.Value == s.Value || math.IsNaN(other.Value) && math.IsNaN(s.Value)
			if same && !f.nonUniqueSpecialsAllowed {
				return f.schema.errorf(elem, dslerrors.ErrDuplicateID, "field %q: specials %q and %q share a value", f.name, other.Name, s.Name)
			}
		}
		f.specials = append(f.specials, s)
	}
	return nil
}

func (f *FloatField) parseValidRanges(p *props) error {
	raws, err := f.collectRanges(p)
	if err != nil {
		return err
	}
	ranges := slices.Clone(f.validRanges)
	full := false
	if err := p.setBool("validFullRange", &full); err != nil {
		return err
	}
	if full {
		ranges = append(ranges, ValidRange[float64]{
			Min: -math.MaxFloat64, Max: math.MaxFloat64,
			SinceVersion: f.sinceVersion, DeprecatedSince: f.deprecatedSince,
		})
	}
	for _, r := range raws {
		lo, hi := math.Inf(-1), math.Inf(1)
		if r.kind != rangeMax {
			v, ok := f.resolveValue(r.lo)
			if !ok {
				return f.schema.errorf(r.elem, dslerrors.ErrInvalidValue, "field %q: invalid valid value %q", f.name, r.lo)
			}
			lo = v
		}
		if r.kind != rangeMin {
			v, ok := f.resolveValue(r.hi)
			if !ok {
				return f.schema.errorf(r.elem, dslerrors.ErrInvalidValue, "field %q: invalid valid value %q", f.name, r.hi)
			}
			hi = v
		}
		if math.IsNaN(lo) || math.IsNaN(hi) {
			if r.kind != rangeValue {
				return f.schema.errorf(r.elem, dslerrors.ErrInvalidValue, "field %q: nan cannot bound a range", f.name)
			}
			f.validNaN = true
			continue
		}
		if lo > hi {
			return f.schema.errorf(r.elem, dslerrors.ErrInvalidValue, "field %q: valid range is inverted", f.name)
		}
		ranges = append(ranges, ValidRange[float64]{Min: lo, Max: hi, SinceVersion: r.since, DeprecatedSince: r.dep})
	}
	if !f.validCheckVersion {
		flattenWindows(ranges)
	}
	f.validRanges = normalizeRanges(ranges, cmp.Compare[float64], func(hi, next float64) bool { return hi >= next })
	return nil
}
