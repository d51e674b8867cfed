package model

import (
	"strconv"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/cond"
	"github.com/jacoelho/commsdsl/internal/dslversion"
)

var refSpec = elementSpec{props: []string{"field", "bitLength"}}

// RefField stands for another field defined elsewhere. Most queries are
// forwarded to the target.
type RefField struct {
	fieldBase

	target    Field
	bitLength int
}

func newRefField() *RefField {
	return &RefField{fieldBase: newFieldBase()}
}

// Kind returns KindRef.
func (f *RefField) Kind() Kind { return KindRef }

// Target returns the referenced field.
func (f *RefField) Target() Field { return f.target }

// MinLength forwards to the target.
func (f *RefField) MinLength() int { return f.target.MinLength() }

// MaxLength forwards to the target.
func (f *RefField) MaxLength() int { return f.target.MaxLength() }

// BitLength returns the width inside a bitfield.
func (f *RefField) BitLength() int { return f.bitLength }

// SemanticType returns the own semantic type or, from DSL version 2, the
// target's when none is set.
func (f *RefField) SemanticType() SemanticType {
	if f.semanticType != SemanticNone || f.target == nil {
		return f.semanticType
	}
	if !dslversion.Supported(dslversion.RefSemanticTypeInheritance, f.dsl()) {
		return SemanticNone
	}
	return f.target.SemanticType()
}

// IsComparableToValue forwards to the target.
func (f *RefField) IsComparableToValue(value string) bool { return f.target.IsComparableToValue(value) }

// IsComparableToField forwards to the target.
func (f *RefField) IsComparableToField(other Field) bool { return f.target.IsComparableToField(other) }

func (f *RefField) innerRef(path string) (FieldRef, bool) { return f.target.innerRef(path) }

func (f *RefField) supportsRef(t RefType) bool {
	return f.fieldBase.supportsRef(t) || f.target.supportsRef(t)
}

func (f *RefField) numericValue(ref string) (int64, bool, bool) { return f.target.numericValue(ref) }
func (f *RefField) floatValue(ref string) (float64, bool)       { return f.target.floatValue(ref) }
func (f *RefField) boolValue(ref string) (bool, bool)           { return f.target.boolValue(ref) }
func (f *RefField) stringValue(ref string) (string, bool)       { return f.target.stringValue(ref) }
func (f *RefField) dataValue(ref string) ([]byte, bool)         { return f.target.dataValue(ref) }

func (f *RefField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	return &cp
}

func (f *RefField) parseKind(p *props) error {
	if v, ok := p.get("field"); ok {
		t, err := f.schema.lookupField(v.elem, strings.TrimSpace(v.value))
		if err != nil {
			return err
		}
		f.target = t
	}
	if f.target == nil {
		return f.errorf(dslerrors.ErrMissingProperty, "field %q: ref requires a field", f.name)
	}
	parent, inBitfield := f.parent.(Field)
	inBitfield = inBitfield && parent.Kind() == KindBitfield
	if v, ok := p.get("bitLength"); ok {
		if !inBitfield {
			f.warnf(dslerrors.WarnConsistency, "field %q: bitLength is only meaningful for bitfield members, ignored", f.name)
		} else {
			n, err := strconv.Atoi(strings.TrimSpace(v.value))
			if err != nil || n <= 0 {
				return f.schema.errorf(v.elem, dslerrors.ErrLength, "field %q: invalid bitLength %q", f.name, v.value)
			}
			f.bitLength = n
		}
	}
	if !inBitfield {
		f.bitLength = 0
		return nil
	}
	if f.bitLength == 0 {
		f.bitLength = f.target.BitLength()
	}
	if f.bitLength == 0 {
		f.bitLength = f.target.MaxLength() * 8
	}
	if f.target.MinLength() != f.target.MaxLength() {
		return f.errorf(dslerrors.ErrLength, "field %q: variable length field cannot be a bitfield member", f.name)
	}
	if f.bitLength > f.target.MaxLength()*8 {
		return f.errorf(dslerrors.ErrLength, "field %q: bitLength %d exceeds %d bits of the referenced field", f.name, f.bitLength, f.target.MaxLength()*8)
	}
	return nil
}

var optionalSpec = elementSpec{
	props: []string{
		"field", "defaultMode", "cond", "displayExtModeCtrl",
		"missingOnReadFail", "missingOnInvalid",
	},
	children:      []string{"field", "and", "or"},
	fieldChildren: true,
}

// OptionalMode is the default presence of an optional field.
type OptionalMode uint8

const (
	ModeTentative OptionalMode = iota
	ModeExists
	ModeMissing
)

// String returns the DSL spelling of the mode.
func (m OptionalMode) String() string {
	switch m {
	case ModeExists:
		return "exists"
	case ModeMissing:
		return "missing"
	default:
		return "tentative"
	}
}

// OptionalField wraps a field whose presence is decided at run time.
type OptionalField struct {
	fieldBase

	field              fieldSlot
	defaultMode        OptionalMode
	cond               cond.Cond
	displayExtModeCtrl bool
	missingOnReadFail  bool
	missingOnInvalid   bool
}

func newOptionalField() *OptionalField {
	return &OptionalField{fieldBase: newFieldBase()}
}

// Kind returns KindOptional.
func (f *OptionalField) Kind() Kind { return KindOptional }

// Field returns the wrapped field and its slot state.
func (f *OptionalField) Field() (Field, SlotState) { return f.field.field(), f.field.state() }

// DefaultMode returns the default presence.
func (f *OptionalField) DefaultMode() OptionalMode { return f.defaultMode }

// Cond returns the presence condition, nil when none.
func (f *OptionalField) Cond() cond.Cond { return f.cond }

// DisplayExtModeCtrl reports the external mode control display hint.
func (f *OptionalField) DisplayExtModeCtrl() bool { return f.displayExtModeCtrl }

// MissingOnReadFail reports whether a failed read marks the field missing.
func (f *OptionalField) MissingOnReadFail() bool { return f.missingOnReadFail }

// MissingOnInvalid reports whether an invalid value marks the field missing.
func (f *OptionalField) MissingOnInvalid() bool { return f.missingOnInvalid }

func (f *OptionalField) inner() Field { return f.field.field() }

// MinLength is zero since the field may be absent.
func (f *OptionalField) MinLength() int {
	if f.defaultMode == ModeExists && f.cond == nil {
		return f.inner().MinLength()
	}
	return 0
}

// MaxLength forwards to the wrapped field.
func (f *OptionalField) MaxLength() int { return f.inner().MaxLength() }

// IsComparableToValue forwards to the wrapped field.
func (f *OptionalField) IsComparableToValue(value string) bool {
	return f.inner().IsComparableToValue(value)
}

// IsComparableToField forwards to the wrapped field.
func (f *OptionalField) IsComparableToField(other Field) bool {
	return f.inner().IsComparableToField(other)
}

func (f *OptionalField) innerRef(path string) (FieldRef, bool) {
	in := f.inner()
	first, rest := splitFirst(path)
	if first == in.Name() {
		return resolveTyped(in, rest, RefValue)
	}
	return in.innerRef(path)
}

func (f *OptionalField) supportsRef(t RefType) bool {
	return t == RefExists || f.inner().supportsRef(t)
}

func (f *OptionalField) numericValue(ref string) (int64, bool, bool) { return f.inner().numericValue(ref) }
func (f *OptionalField) floatValue(ref string) (float64, bool)       { return f.inner().floatValue(ref) }
func (f *OptionalField) boolValue(ref string) (bool, bool)           { return f.inner().boolValue(ref) }
func (f *OptionalField) stringValue(ref string) (string, bool)       { return f.inner().stringValue(ref) }
func (f *OptionalField) dataValue(ref string) ([]byte, bool)         { return f.inner().dataValue(ref) }

// bindSiblings verifies the presence condition against preceding fields.
func (f *OptionalField) bindSiblings(siblings []Field) error {
	if err := f.inner().bindSiblings(siblings); err != nil {
		return err
	}
	if f.cond == nil {
		return nil
	}
	return condScope{schema: f.schema, fields: siblings}.verify(f.elem, f.cond)
}

func (f *OptionalField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	cp.field = f.field.clone(&cp)
	cp.cond = cond.Clone(f.cond)
	return &cp
}

func (f *OptionalField) parseKind(p *props) error {
	s := f.schema
	var direct []Field
	for _, c := range p.children {
		if !isFieldElement(c.Name()) {
			continue
		}
		inner, err := s.newField(c, f)
		if err != nil {
			return err
		}
		direct = append(direct, inner)
	}
	switch {
	case len(direct) > 1:
		return f.errorf(dslerrors.ErrStructure, "field %q: optional wraps exactly one field", f.name)
	case len(direct) == 1:
		if p.has("field") || len(p.childrenNamed("field")) > 0 {
			return f.errorf(dslerrors.ErrStructure, "field %q: optional wraps exactly one field", f.name)
		}
		f.field = fieldSlot{owned: direct[0]}
	default:
		if _, err := f.parseSlot(p, f, slotRule{name: "field"}, &f.field); err != nil {
			return err
		}
	}
	switch f.field.state() {
	case SlotEmpty:
		return f.errorf(dslerrors.ErrMissingProperty, "field %q: optional requires a field", f.name)
	case SlotDetached:
		return f.errorf(dslerrors.ErrInvalidValue, "field %q: optional cannot wrap a sibling reference", f.name)
	}

	if v, ok := p.get("defaultMode"); ok {
		switch strings.ToLower(strings.TrimSpace(v.value)) {
		case "tentative":
			f.defaultMode = ModeTentative
		case "exists", "exist":
			f.defaultMode = ModeExists
		case "missing":
			f.defaultMode = ModeMissing
		default:
			return s.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid defaultMode %q", f.name, v.value)
		}
	}
	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"displayExtModeCtrl", &f.displayExtModeCtrl},
		{"missingOnReadFail", &f.missingOnReadFail},
		{"missingOnInvalid", &f.missingOnInvalid},
	} {
		if err := p.setBool(flag.name, flag.dst); err != nil {
			return err
		}
	}
	return f.parseCond(p)
}

// parseCond reads cond, <cond>, <and> or <or>. Verification waits for
// the siblings of the enclosing container.
func (f *OptionalField) parseCond(p *props) error {
	s := f.schema
	var parts []cond.Cond
	if v, ok := p.get("cond"); ok {
		c, err := s.parseCondText(v.elem, v.value)
		if err != nil {
			return err
		}
		parts = append(parts, c)
	}
	for _, c := range p.children {
		if c.Name() != "and" && c.Name() != "or" {
			continue
		}
		item, err := s.condFromElement(c)
		if err != nil {
			return err
		}
		parts = append(parts, item)
	}
	switch len(parts) {
	case 0:
	case 1:
		f.cond = parts[0]
	default:
		return f.errorf(dslerrors.ErrCondition, "field %q: optional accepts a single condition, combine them with <and> or <or>", f.name)
	}
	return nil
}
