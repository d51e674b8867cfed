package model

import (
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/dslversion"
	"github.com/jacoelho/commsdsl/internal/num"
)

var stringSpec = elementSpec{
	props:    []string{"length", "lengthPrefix", "zeroTermSuffix", "encoding", "defaultValue"},
	multi:    []string{"validValue"},
	children: []string{"lengthPrefix"},
}

var lengthPrefixRule = slotRule{name: "lengthPrefix", intOnly: true}

// StringField is a character sequence.
type StringField struct {
	fieldBase

	length         int
	lengthPrefix   fieldSlot
	zeroTermSuffix bool
	encoding       string
	defaultValue   string
	validValues    []string
}

func newStringField() *StringField {
	return &StringField{fieldBase: newFieldBase()}
}

// Kind returns KindString.
func (f *StringField) Kind() Kind { return KindString }

// FixedLength returns the fixed length, 0 when not fixed.
func (f *StringField) FixedLength() int { return f.length }

// LengthPrefix returns the length prefix field and its slot state.
func (f *StringField) LengthPrefix() (Field, SlotState) {
	return f.lengthPrefix.field(), f.lengthPrefix.state()
}

// DetachedPrefixName returns the sibling name of a detached prefix.
func (f *StringField) DetachedPrefixName() string { return f.lengthPrefix.detached }

// ZeroTermSuffix reports whether the string ends with a zero byte.
func (f *StringField) ZeroTermSuffix() bool { return f.zeroTermSuffix }

// Encoding returns the declared character encoding.
func (f *StringField) Encoding() string { return f.encoding }

// DefaultValue returns the default text.
func (f *StringField) DefaultValue() string { return f.defaultValue }

// ValidValues returns the declared valid texts.
func (f *StringField) ValidValues() []string { return slices.Clone(f.validValues) }

// MinLength returns the serialized minimal length.
func (f *StringField) MinLength() int {
	switch {
	case f.length > 0:
		return f.length
	case f.lengthPrefix.state() != SlotEmpty:
		lo, _ := f.lengthPrefix.overhead()
		return lo
	case f.zeroTermSuffix:
		return 1
	}
	return 0
}

// MaxLength returns the serialized maximal length.
func (f *StringField) MaxLength() int {
	switch {
	case f.length > 0:
		return f.length
	case f.lengthPrefix.state() != SlotEmpty:
		return prefixedMax(&f.lengthPrefix, 1)
	}
	return num.Unbounded
}

// IsComparableToValue accepts any text.
func (f *StringField) IsComparableToValue(string) bool { return true }

// IsComparableToField accepts other string fields.
func (f *StringField) IsComparableToField(other Field) bool {
	_, ok := resolveRefTarget(other).(*StringField)
	return ok
}

func (f *StringField) supportsRef(t RefType) bool {
	return t == RefSize || f.fieldBase.supportsRef(t)
}

func (f *StringField) stringValue(ref string) (string, bool) {
	if ref == "" {
		return f.defaultValue, true
	}
	return "", false
}

func (f *StringField) bindSiblings(siblings []Field) error {
	return f.bindSlot(lengthPrefixRule, &f.lengthPrefix, siblings)
}

func (f *StringField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	cp.lengthPrefix = f.lengthPrefix.clone(&cp)
	cp.validValues = slices.Clone(f.validValues)
	return &cp
}

func (f *StringField) parseKind(p *props) error {
	if v, ok := p.get("length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v.value))
		if err != nil || n < 0 {
			return f.schema.errorf(v.elem, dslerrors.ErrLength, "field %q: invalid length %q", f.name, v.value)
		}
		f.length = n
		f.lengthPrefix = fieldSlot{}
		f.zeroTermSuffix = false
	}
	present, err := f.parseSlot(p, f, lengthPrefixRule, &f.lengthPrefix)
	if err != nil {
		return err
	}
	if present {
		f.length = 0
		f.zeroTermSuffix = false
	}
	if err := p.setBool("zeroTermSuffix", &f.zeroTermSuffix); err != nil {
		return err
	}
	forms := 0
	for _, set := range []bool{f.length > 0, f.lengthPrefix.state() != SlotEmpty, f.zeroTermSuffix} {
		if set {
			forms++
		}
	}
	if forms > 1 {
		return f.errorf(dslerrors.ErrLength, "field %q: length, lengthPrefix and zeroTermSuffix are mutually exclusive", f.name)
	}
	p.setString("encoding", &f.encoding)
	if v, ok := p.get("defaultValue"); ok {
		f.defaultValue = f.resolveText(v.value)
	}
	if f.length > 0 && len(f.defaultValue) > f.length {
		return f.errorf(dslerrors.ErrInvalidValue, "field %q: default value longer than %d", f.name, f.length)
	}
	if vs := p.all("validValue"); len(vs) > 0 {
		if !dslversion.Supported(dslversion.ValidValueInStringData, f.dsl()) {
			f.warnf(dslerrors.WarnUnsupportedProperty, "field %q: validValue requires DSL version %d, ignored",
				f.name, dslversion.ValidValueInStringData.MinVersion())
		} else {
			for _, v := range vs {
				f.validValues = append(f.validValues, f.resolveText(v.value))
			}
			slices.Sort(f.validValues)
			f.validValues = slices.Compact(f.validValues)
		}
	}
	return nil
}

// resolveText expands "^ref" into the default of another string field.
// A doubled caret escapes a literal leading caret.
func (f *StringField) resolveText(s string) string {
	if strings.HasPrefix(s, "^^") {
		return s[1:]
	}
	ref, ok := strings.CutPrefix(s, "^")
	if !ok {
		return s
	}
	if v, found := f.schema.proto.strToString(ref, f.schema); found {
		return v
	}
	f.warnf(dslerrors.WarnConsistency, "field %q: value reference %q does not resolve, used verbatim", f.name, s)
	return s
}

var dataSpec = elementSpec{
	props:    []string{"length", "lengthPrefix", "defaultValue"},
	multi:    []string{"validValue"},
	children: []string{"lengthPrefix"},
}

// DataField is a raw byte sequence.
type DataField struct {
	fieldBase

	length       int
	lengthPrefix fieldSlot
	defaultValue []byte
	validValues  [][]byte
}

func newDataField() *DataField {
	return &DataField{fieldBase: newFieldBase()}
}

// Kind returns KindData.
func (f *DataField) Kind() Kind { return KindData }

// FixedLength returns the fixed length, 0 when not fixed.
func (f *DataField) FixedLength() int { return f.length }

// LengthPrefix returns the length prefix field and its slot state.
func (f *DataField) LengthPrefix() (Field, SlotState) {
	return f.lengthPrefix.field(), f.lengthPrefix.state()
}

// DetachedPrefixName returns the sibling name of a detached prefix.
func (f *DataField) DetachedPrefixName() string { return f.lengthPrefix.detached }

// DefaultValue returns a copy of the default bytes.
func (f *DataField) DefaultValue() []byte { return slices.Clone(f.defaultValue) }

// ValidValues returns copies of the declared valid byte sequences.
func (f *DataField) ValidValues() [][]byte {
	out := make([][]byte, len(f.validValues))
	for i, v := range f.validValues {
		out[i] = slices.Clone(v)
	}
	return out
}

// MinLength returns the serialized minimal length.
func (f *DataField) MinLength() int {
	if f.length > 0 {
		return f.length
	}
	lo, _ := f.lengthPrefix.overhead()
	return lo
}

// MaxLength returns the serialized maximal length.
func (f *DataField) MaxLength() int {
	switch {
	case f.length > 0:
		return f.length
	case f.lengthPrefix.state() != SlotEmpty:
		return prefixedMax(&f.lengthPrefix, 1)
	}
	return num.Unbounded
}

// IsComparableToValue accepts hex byte strings.
func (f *DataField) IsComparableToValue(value string) bool {
	_, ok := parseHexData(value)
	return ok
}

// IsComparableToField accepts other data fields.
func (f *DataField) IsComparableToField(other Field) bool {
	_, ok := resolveRefTarget(other).(*DataField)
	return ok
}

func (f *DataField) supportsRef(t RefType) bool {
	return t == RefSize || f.fieldBase.supportsRef(t)
}

func (f *DataField) dataValue(ref string) ([]byte, bool) {
	if ref == "" {
		return slices.Clone(f.defaultValue), true
	}
	return nil, false
}

func (f *DataField) bindSiblings(siblings []Field) error {
	return f.bindSlot(lengthPrefixRule, &f.lengthPrefix, siblings)
}

func (f *DataField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	cp.lengthPrefix = f.lengthPrefix.clone(&cp)
	cp.defaultValue = slices.Clone(f.defaultValue)
	cp.validValues = f.ValidValues()
	return &cp
}

func (f *DataField) parseKind(p *props) error {
	if v, ok := p.get("length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v.value))
		if err != nil || n < 0 {
			return f.schema.errorf(v.elem, dslerrors.ErrLength, "field %q: invalid length %q", f.name, v.value)
		}
		f.length = n
		f.lengthPrefix = fieldSlot{}
	}
	present, err := f.parseSlot(p, f, lengthPrefixRule, &f.lengthPrefix)
	if err != nil {
		return err
	}
	if present && p.has("length") {
		return f.errorf(dslerrors.ErrLength, "field %q: length and lengthPrefix are mutually exclusive", f.name)
	}
	if present {
		f.length = 0
	}
	if v, ok := p.get("defaultValue"); ok {
		d, valid := f.resolveData(v.value)
		if !valid {
			return f.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid default value %q", f.name, v.value)
		}
		f.defaultValue = d
	}
	if f.length > 0 && len(f.defaultValue) > f.length {
		return f.errorf(dslerrors.ErrInvalidValue, "field %q: default value longer than %d", f.name, f.length)
	}
	if vs := p.all("validValue"); len(vs) > 0 {
		if !dslversion.Supported(dslversion.ValidValueInStringData, f.dsl()) {
			f.warnf(dslerrors.WarnUnsupportedProperty, "field %q: validValue requires DSL version %d, ignored",
				f.name, dslversion.ValidValueInStringData.MinVersion())
			return nil
		}
		for _, v := range vs {
			d, valid := f.resolveData(v.value)
			if !valid {
				return f.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid valid value %q", f.name, v.value)
			}
			f.validValues = append(f.validValues, d)
		}
	}
	return nil
}

func (f *DataField) resolveData(s string) ([]byte, bool) {
	if ref, ok := strings.CutPrefix(strings.TrimSpace(s), "^"); ok {
		return f.schema.proto.strToData(ref, f.schema)
	}
	return parseHexData(s)
}

// parseHexData decodes hex text, ignoring whitespace and an optional "0x".
func parseHexData(s string) ([]byte, bool) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}
