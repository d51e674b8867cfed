package model

import (
	"maps"
	"slices"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/dslversion"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// Field is a typed, serializable data element. The concrete types are
// *IntField, *FloatField, *EnumField, *SetField, *BitfieldField,
// *BundleField, *StringField, *DataField, *ListField, *RefField,
// *OptionalField and *VariantField.
type Field interface {
	Entity
	Kind() Kind
	DisplayName() string
	Description() string
	SinceVersion() uint
	DeprecatedSince() uint
	IsDeprecatedRemoved() bool
	SemanticType() SemanticType
	// MinLength and MaxLength bound the serialized size in bytes. MaxLength
	// saturates to num.Unbounded.
	MinLength() int
	MaxLength() int
	// BitLength is the width inside a bitfield, 0 when not applicable.
	BitLength() int
	IsComparableToValue(value string) bool
	IsComparableToField(other Field) bool
	ExternalRef(schemaRef bool) string
	ExtraAttributes() []ExtraAttr
	ExtraChildren() []xmlnode.Element
	Element() xmlnode.Element

	base() *fieldBase
	parseKind(p *props) error
	// bindSiblings resolves references to fields defined earlier in the
	// same container.
	bindSiblings(siblings []Field) error
	clone(parent Entity) Field
	// innerRef resolves a non-empty dotted path below the field.
	innerRef(path string) (FieldRef, bool)
	supportsRef(t RefType) bool
	numericValue(ref string) (v int64, bigUnsigned, ok bool)
	floatValue(ref string) (float64, bool)
	boolValue(ref string) (bool, bool)
	stringValue(ref string) (string, bool)
	dataValue(ref string) ([]byte, bool)
}

var overrideProps = []string{
	"valueOverride", "readOverride", "writeOverride", "refreshOverride",
	"lengthOverride", "validOverride", "nameOverride",
}

var commonFieldSpec = elementSpec{
	props: append([]string{
		"name", "displayName", "description", "reuse", "semanticType",
		"sinceVersion", "deprecated", "removed", "pseudo", "displayReadOnly",
		"displayHidden", "customizable", "failOnInvalid", "forceGen",
		"reuseCode", "copyCodeFrom", "validateMinLength",
	}, overrideProps...),
}

// fieldBase carries the state shared by every kind.
type fieldBase struct {
	parent Entity
	schema *Schema
	elem   xmlnode.Element

	name         string
	displayName  string
	description  string
	semanticType SemanticType

	sinceVersion    uint
	deprecatedSince uint
	removed         bool

	pseudo          bool
	displayReadOnly bool
	displayHidden   bool
	customizable    bool
	failOnInvalid   bool
	forceGen        bool
	reuseCode       bool
	copyCodeFrom    string
	overrides       map[string]string

	validateMinLength    int
	hasValidateMinLength bool

	extraAttrs    []ExtraAttr
	extraChildren []xmlnode.Element

	// reusedFrom is the non-owning source of a reuse clone.
	reusedFrom Field
}

func newFieldBase() fieldBase {
	return fieldBase{deprecatedSince: NotYetDeprecated}
}

func (b *fieldBase) base() *fieldBase { return b }

// Name returns the field name.
func (b *fieldBase) Name() string { return b.name }

// Parent returns the owning entity.
func (b *fieldBase) Parent() Entity { return b.parent }

// Schema returns the schema the field belongs to.
func (b *fieldBase) Schema() *Schema { return b.schema }

// DisplayName returns the display name, defaulting to the name.
func (b *fieldBase) DisplayName() string {
	if b.displayName == "" {
		return b.name
	}
	return b.displayName
}

// Description returns the description text.
func (b *fieldBase) Description() string { return b.description }

// SinceVersion returns the version the field was introduced in.
func (b *fieldBase) SinceVersion() uint { return b.sinceVersion }

// DeprecatedSince returns the version the field was deprecated in.
func (b *fieldBase) DeprecatedSince() uint { return b.deprecatedSince }

// IsDeprecatedRemoved reports whether the field is gone after deprecation.
func (b *fieldBase) IsDeprecatedRemoved() bool { return b.removed }

// SemanticType returns the semantic role.
func (b *fieldBase) SemanticType() SemanticType { return b.semanticType }

// IsPseudo reports whether the field is not serialized.
func (b *fieldBase) IsPseudo() bool { return b.pseudo }

// IsDisplayReadOnly reports the display read-only hint.
func (b *fieldBase) IsDisplayReadOnly() bool { return b.displayReadOnly }

// IsDisplayHidden reports the display hidden hint.
func (b *fieldBase) IsDisplayHidden() bool { return b.displayHidden }

// IsCustomizable reports whether generated code may customize the field.
func (b *fieldBase) IsCustomizable() bool { return b.customizable }

// IsFailOnInvalid reports whether reading an invalid value fails.
func (b *fieldBase) IsFailOnInvalid() bool { return b.failOnInvalid }

// IsForceGen reports whether code must be generated even when unused.
func (b *fieldBase) IsForceGen() bool { return b.forceGen }

// IsReuseCode reports whether generator code of the reused field is copied.
func (b *fieldBase) IsReuseCode() bool { return b.reuseCode }

// CopyCodeFrom returns the reference whose generator code is copied.
func (b *fieldBase) CopyCodeFrom() string { return b.copyCodeFrom }

// Override returns the value of an override property such as
// "valueOverride".
func (b *fieldBase) Override(name string) (string, bool) {
	v, ok := b.overrides[name]
	return v, ok
}

// ValidateMinLength returns the declared expected minimal length.
func (b *fieldBase) ValidateMinLength() (int, bool) {
	return b.validateMinLength, b.hasValidateMinLength
}

// ReusedFrom returns the field this one was cloned from, if any.
func (b *fieldBase) ReusedFrom() Field { return b.reusedFrom }

// ExtraAttributes returns the attributes the model did not interpret.
func (b *fieldBase) ExtraAttributes() []ExtraAttr { return slices.Clone(b.extraAttrs) }

// ExtraChildren returns the child elements the model did not interpret.
func (b *fieldBase) ExtraChildren() []xmlnode.Element { return slices.Clone(b.extraChildren) }

// Element returns the element the field was parsed from.
func (b *fieldBase) Element() xmlnode.Element { return b.elem }

// BitLength is 0 for kinds that cannot live in a bitfield.
func (b *fieldBase) BitLength() int { return 0 }

// IsComparableToValue is false unless a kind accepts literals.
func (b *fieldBase) IsComparableToValue(string) bool { return false }

// IsComparableToField is false unless a kind accepts comparisons.
func (b *fieldBase) IsComparableToField(Field) bool { return false }

func (b *fieldBase) bindSiblings([]Field) error              { return nil }
func (b *fieldBase) innerRef(string) (FieldRef, bool)        { return FieldRef{}, false }
func (b *fieldBase) supportsRef(t RefType) bool              { return t == RefExists && existsCapable(b) }
func (b *fieldBase) numericValue(string) (int64, bool, bool) { return 0, false, false }
func (b *fieldBase) floatValue(string) (float64, bool)       { return 0, false }
func (b *fieldBase) boolValue(string) (bool, bool)           { return false, false }
func (b *fieldBase) stringValue(string) (string, bool)       { return "", false }
func (b *fieldBase) dataValue(string) ([]byte, bool)         { return nil, false }

// ExternalRef returns the dotted path resolving back to the field.
func (b *fieldBase) ExternalRef(schemaRef bool) string {
	return externalRefOf(b, schemaRef)
}

func externalRefOf(b *fieldBase, schemaRef bool) string {
	path := scopePath(b.parent)
	if path != "" {
		path += "."
	}
	path += b.name
	if !schemaRef || b.schema == nil {
		return path
	}
	return string(SchemaRefPrefix) + b.schema.Name() + "." + path
}

func (b *fieldBase) cloneBase(parent Entity) fieldBase {
	cp := *b
	cp.parent = parent
	cp.overrides = maps.Clone(b.overrides)
	cp.extraAttrs = slices.Clone(b.extraAttrs)
	cp.extraChildren = slices.Clone(b.extraChildren)
	return cp
}

func (b *fieldBase) errorf(code dslerrors.Code, format string, args ...any) error {
	return b.schema.errorf(b.elem, code, format, args...)
}

func (b *fieldBase) warnf(code dslerrors.Code, format string, args ...any) {
	b.schema.warnf(b.elem, code, format, args...)
}

func (b *fieldBase) dsl() uint { return b.schema.dslVersion }

// versioned is implemented by entities carrying a version window.
type versioned interface {
	SinceVersion() uint
	DeprecatedSince() uint
}

func parentWindow(parent Entity) (since, deprecated uint) {
	for cur := parent; cur != nil; cur = cur.Parent() {
		if v, ok := cur.(versioned); ok {
			return v.SinceVersion(), v.DeprecatedSince()
		}
	}
	return 0, NotYetDeprecated
}

func (b *fieldBase) parseCommon(p *props, reused bool) error {
	p.setString("name", &b.name)
	if b.name == "" {
		return b.schema.errorf(p.elem, dslerrors.ErrMissingProperty, "field <%s> requires a name", p.elem.Name())
	}
	if !IsValidName(b.name) {
		return b.schema.errorf(p.elem, dslerrors.ErrInvalidName, "invalid field name %q", b.name)
	}
	p.setString("displayName", &b.displayName)
	p.setString("description", &b.description)
	if v, ok := p.get("semanticType"); ok {
		st, valid := parseSemanticType(v.value)
		if !valid {
			return b.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q has unknown semantic type %q", b.name, v.value)
		}
		if st == SemanticLength && !dslversion.Supported(dslversion.SemanticTypeLength, b.dsl()) {
			b.schema.warnf(v.elem, dslerrors.WarnUnsupportedProperty,
				"semantic type %q requires DSL version %d, ignored", v.value, dslversion.SemanticTypeLength.MinVersion())
		} else {
			b.semanticType = st
		}
	}
	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"pseudo", &b.pseudo},
		{"displayReadOnly", &b.displayReadOnly},
		{"displayHidden", &b.displayHidden},
		{"customizable", &b.customizable},
		{"failOnInvalid", &b.failOnInvalid},
		{"forceGen", &b.forceGen},
		{"reuseCode", &b.reuseCode},
	} {
		if err := p.setBool(flag.name, flag.dst); err != nil {
			return err
		}
	}
	p.setString("copyCodeFrom", &b.copyCodeFrom)
	for _, name := range overrideProps {
		if v, ok := p.str(name); ok {
			if b.overrides == nil {
				b.overrides = make(map[string]string)
			}
			b.overrides[name] = v
		}
	}
	if v, present, err := p.unsigned("validateMinLength"); err != nil {
		return err
	} else if present {
		b.validateMinLength = int(v)
		b.hasValidateMinLength = true
	}
	b.extraAttrs = p.extraAttrs
	b.extraChildren = p.extraChildren
	return b.parseVersions(p, reused)
}

func (b *fieldBase) parseVersions(p *props, reused bool) error {
	parentSince, parentDeprecated := parentWindow(b.parent)
	if reused {
		b.sinceVersion = max(b.sinceVersion, parentSince)
		b.deprecatedSince = min(b.deprecatedSince, parentDeprecated)
	} else {
		b.sinceVersion = parentSince
		b.deprecatedSince = parentDeprecated
	}
	if err := p.setUint("sinceVersion", &b.sinceVersion); err != nil {
		return err
	}
	if err := p.setUint("deprecated", &b.deprecatedSince); err != nil {
		return err
	}
	if err := p.setBool("removed", &b.removed); err != nil {
		return err
	}
	return checkVersionWindow(b.schema, p.elem, "field "+b.name, b.sinceVersion, b.deprecatedSince, b.removed, parentSince, parentDeprecated)
}

// checkVersionWindow validates a since/deprecated window against the schema
// version and the enclosing window.
func checkVersionWindow(s *Schema, elem xmlnode.Element, what string, since, deprecated uint, removed bool, parentSince, parentDeprecated uint) error {
	if since > s.version {
		return s.errorf(elem, dslerrors.ErrVersion, "%s: sinceVersion %d is greater than schema version %d", what, since, s.version)
	}
	if since < parentSince {
		return s.errorf(elem, dslerrors.ErrVersion, "%s: sinceVersion %d is lower than the parent's %d", what, since, parentSince)
	}
	if deprecated != NotYetDeprecated {
		if deprecated <= since {
			return s.errorf(elem, dslerrors.ErrVersion, "%s: deprecated %d must be greater than sinceVersion %d", what, deprecated, since)
		}
		if deprecated > s.version {
			return s.errorf(elem, dslerrors.ErrVersion, "%s: deprecated %d is greater than schema version %d", what, deprecated, s.version)
		}
	}
	if deprecated > parentDeprecated {
		return s.errorf(elem, dslerrors.ErrVersion, "%s: deprecated %d is greater than the parent's %d", what, deprecated, parentDeprecated)
	}
	if removed && deprecated == NotYetDeprecated {
		return s.errorf(elem, dslerrors.ErrVersion, "%s: removed requires a deprecated version", what)
	}
	return nil
}

func specFor(kind Kind) elementSpec {
	switch kind {
	case KindInt:
		return intSpec
	case KindFloat:
		return floatSpec
	case KindEnum:
		return enumSpec
	case KindSet:
		return setSpec
	case KindBitfield:
		return bitfieldSpec
	case KindBundle:
		return bundleSpec
	case KindString:
		return stringSpec
	case KindData:
		return dataSpec
	case KindList:
		return listSpec
	case KindRef:
		return refSpec
	case KindOptional:
		return optionalSpec
	case KindVariant:
		return variantSpec
	default:
		return elementSpec{}
	}
}

func newFieldOfKind(kind Kind) Field {
	switch kind {
	case KindInt:
		return newIntField()
	case KindFloat:
		return newFloatField()
	case KindEnum:
		return newEnumField()
	case KindSet:
		return newSetField()
	case KindBitfield:
		return newBitfieldField()
	case KindBundle:
		return newBundleField()
	case KindString:
		return newStringField()
	case KindData:
		return newDataField()
	case KindList:
		return newListField()
	case KindRef:
		return newRefField()
	case KindOptional:
		return newOptionalField()
	case KindVariant:
		return newVariantField()
	default:
		return nil
	}
}

// newField parses a field element owned by parent. A reuse property clones
// a previously defined field of the same kind and applies the element's
// properties on top.
func (s *Schema) newField(elem xmlnode.Element, parent Entity) (Field, error) {
	kind, ok := kindFromElement(elem.Name())
	if !ok {
		return nil, s.errorf(elem, dslerrors.ErrStructure, "unknown field kind <%s>", elem.Name())
	}
	p, err := s.readProps(elem, commonFieldSpec.with(specFor(kind)))
	if err != nil {
		return nil, err
	}

	var f Field
	reused := false
	if v, ok := p.get("reuse"); ok {
		src, err := s.lookupField(v.elem, v.value)
		if err != nil {
			return nil, err
		}
		if src.Kind() != kind {
			return nil, s.errorf(v.elem, dslerrors.ErrKindMismatch,
				"cannot reuse %s field %q as <%s>", src.Kind(), v.value, kind)
		}
		f = src.clone(parent)
		f.base().reusedFrom = src
		reused = true
	} else {
		f = newFieldOfKind(kind)
	}
	b := f.base()
	b.parent = parent
	b.schema = s
	b.elem = elem
	if err := b.parseCommon(p, reused); err != nil {
		return nil, err
	}
	if err := f.parseKind(p); err != nil {
		return nil, err
	}
	if err := checkField(f); err != nil {
		return nil, err
	}
	return f, nil
}

// checkField validates the cross-kind invariants of a parsed field.
func checkField(f Field) error {
	b := f.base()
	if err := checkSemanticType(f); err != nil {
		return err
	}
	if f.MinLength() > f.MaxLength() {
		return b.errorf(dslerrors.ErrLength, "field %q: minimal length %d exceeds maximal length %d", b.name, f.MinLength(), f.MaxLength())
	}
	if b.hasValidateMinLength && b.validateMinLength != f.MinLength() {
		return b.errorf(dslerrors.ErrLength, "field %q: minimal length is %d, validateMinLength expects %d", b.name, f.MinLength(), b.validateMinLength)
	}
	return nil
}

func checkSemanticType(f Field) error {
	b := f.base()
	target := resolveRefTarget(f)
	if target == nil {
		return nil
	}
	tk := target.Kind()
	switch b.semanticType {
	case SemanticVersion:
		if tk != KindInt {
			return b.errorf(dslerrors.ErrKindMismatch, "field %q: semantic type version requires an int field", b.name)
		}
	case SemanticLength:
		if tk != KindInt {
			return b.errorf(dslerrors.ErrKindMismatch, "field %q: semantic type length requires an int field", b.name)
		}
	case SemanticMessageID:
		if tk != KindInt && tk != KindEnum {
			return b.errorf(dslerrors.ErrKindMismatch, "field %q: semantic type messageId requires an int or enum field", b.name)
		}
	}
	return nil
}

// resolveRefTarget follows ref fields to the referenced definition.
func resolveRefTarget(f Field) Field {
	for i := 0; f != nil && i < 64; i++ {
		r, ok := f.(*RefField)
		if !ok {
			return f
		}
		f = r.target
	}
	return f
}

// cloneFields deep copies an owned field list under a new parent and
// rebinds sibling references inside the copy.
func cloneFields(fields []Field, parent Entity) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f.clone(parent)
	}
	rebindSiblings(out)
	return out
}

func rebindSiblings(fields []Field) {
	for i, f := range fields {
		// The source list bound successfully and the copy keeps the same names.
		_ = f.bindSiblings(fields[:i])
	}
}

func findByName(fields []Field, name string) Field {
	for _, f := range fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}
