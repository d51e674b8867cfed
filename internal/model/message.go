package model

import (
	"slices"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/cond"
	"github.com/jacoelho/commsdsl/internal/dslversion"
	"github.com/jacoelho/commsdsl/internal/num"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

var messageSpec = elementSpec{
	props: []string{
		"name", "id", "displayName", "description", "order", "sinceVersion",
		"deprecated", "removed", "platforms", "sender", "customizable",
		"copyFieldsFrom", "copyCodeFrom", "reuse", "reuseAliases", "reuseCode",
		"validateMinLength", "failOnInvalid", "construct", "readCond",
		"validCond", "copyConstructFrom", "copyReadCondFrom",
		"copyValidCondFrom", "constructAsReadCond", "constructAsValidCond",
	},
	children:      []string{"fields", "alias", "construct", "readCond", "validCond", "replace"},
	fieldChildren: true,
}

// Message is an ordered collection of fields exchanged as one unit.
type Message struct {
	parent Entity
	schema *Schema
	elem   xmlnode.Element

	name        string
	displayName string
	description string
	id          int64
	hasID       bool
	order       uint

	sinceVersion    uint
	deprecatedSince uint
	removed         bool

	platforms     []string
	sender        Sender
	customizable  bool
	failOnInvalid bool
	reuseCode     bool
	copyCodeFrom  string

	validateMinLength    int
	hasValidateMinLength bool

	fields    []Field
	aliases   []*Alias
	construct cond.Cond
	readCond  cond.Cond
	validCond cond.Cond

	reusedFrom *Message

	extraAttrs    []ExtraAttr
	extraChildren []xmlnode.Element
}

// Name returns the message name.
func (m *Message) Name() string { return m.name }

// Parent returns the owning namespace.
func (m *Message) Parent() Entity { return m.parent }

// Schema returns the owning schema.
func (m *Message) Schema() *Schema { return m.schema }

// DisplayName returns the display name, defaulting to the name.
func (m *Message) DisplayName() string {
	if m.displayName == "" {
		return m.name
	}
	return m.displayName
}

// Description returns the message description.
func (m *Message) Description() string { return m.description }

// ID returns the numeric message id.
func (m *Message) ID() int64 { return m.id }

// Order returns the tiebreak among messages sharing an id.
func (m *Message) Order() uint { return m.order }

// SinceVersion returns the version the message was introduced in.
func (m *Message) SinceVersion() uint { return m.sinceVersion }

// DeprecatedSince returns the version the message was deprecated in.
func (m *Message) DeprecatedSince() uint { return m.deprecatedSince }

// IsDeprecatedRemoved reports whether the message is gone after deprecation.
func (m *Message) IsDeprecatedRemoved() bool { return m.removed }

// Platforms returns the platforms supporting the message; empty means all.
func (m *Message) Platforms() []string { return slices.Clone(m.platforms) }

// Sender returns which side sends the message.
func (m *Message) Sender() Sender { return m.sender }

// IsCustomizable reports whether generated code may customize the message.
func (m *Message) IsCustomizable() bool { return m.customizable }

// IsFailOnInvalid reports whether reading an invalid message fails.
func (m *Message) IsFailOnInvalid() bool { return m.failOnInvalid }

// IsReuseCode reports whether generator code of the reused message is copied.
func (m *Message) IsReuseCode() bool { return m.reuseCode }

// CopyCodeFrom returns the reference whose generator code is copied.
func (m *Message) CopyCodeFrom() string { return m.copyCodeFrom }

// Fields returns the fields in serialization order.
func (m *Message) Fields() []Field { return slices.Clone(m.fields) }

// Aliases returns the field aliases.
func (m *Message) Aliases() []*Alias { return slices.Clone(m.aliases) }

// Construct returns the construction condition, nil when none.
func (m *Message) Construct() cond.Cond { return m.construct }

// ReadCond returns the read condition, nil when none.
func (m *Message) ReadCond() cond.Cond { return m.readCond }

// ValidCond returns the validity condition, nil when none.
func (m *Message) ValidCond() cond.Cond { return m.validCond }

// ReusedFrom returns the message this one was reused from, if any.
func (m *Message) ReusedFrom() *Message { return m.reusedFrom }

// ExternalRef returns the dotted path resolving back to the message.
func (m *Message) ExternalRef(schemaRef bool) string { return externalRef(m, schemaRef) }

// ExtraAttributes returns the uninterpreted attributes.
func (m *Message) ExtraAttributes() []ExtraAttr { return slices.Clone(m.extraAttrs) }

// ExtraChildren returns the uninterpreted children.
func (m *Message) ExtraChildren() []xmlnode.Element { return slices.Clone(m.extraChildren) }

// MinLength sums the minimums of the fields present since the message
// version.
func (m *Message) MinLength() int {
	var lengths []int
	for _, f := range m.fields {
		if f.SinceVersion() > m.sinceVersion {
			continue
		}
		lengths = append(lengths, f.MinLength())
	}
	return num.SumLengths(lengths...)
}

// MaxLength sums the maximums of all fields.
func (m *Message) MaxLength() int {
	_, hi := memberLengths(m.fields)
	return hi
}

func (m *Message) condOf(kind condKind) cond.Cond {
	switch kind {
	case condConstruct:
		return m.construct
	case condRead:
		return m.readCond
	default:
		return m.validCond
	}
}

func (s *Schema) newMessage(elem xmlnode.Element, ns *Namespace) (*Message, error) {
	p, err := s.readProps(elem, messageSpec)
	if err != nil {
		return nil, err
	}
	m := &Message{parent: ns, schema: s, elem: elem, deprecatedSince: NotYetDeprecated}
	reuseAliases := true
	if err := p.setBool("reuseAliases", &reuseAliases); err != nil {
		return nil, err
	}
	if v, ok := p.get("reuse"); ok {
		if !dslversion.Supported(dslversion.MessageReuse, s.dslVersion) {
			s.warnf(v.elem, dslerrors.WarnUnsupportedProperty, "message reuse requires DSL version %d, ignored",
				dslversion.MessageReuse.MinVersion())
		} else {
			src, err := s.lookupMessage(v.elem, strings.TrimSpace(v.value))
			if err != nil {
				return nil, err
			}
			m.reuse(src, reuseAliases)
		}
	}
	if err := m.parseProps(p); err != nil {
		return nil, err
	}
	if m.reusedFrom != nil {
		m.fields = adjustCopied(m.fields, m.sinceVersion)
	}
	if v, ok := p.get("copyFieldsFrom"); ok {
		if m.reusedFrom != nil {
			return nil, s.errorf(v.elem, dslerrors.ErrStructure, "message %q: reuse and copyFieldsFrom are mutually exclusive", m.name)
		}
		fields, aliases, err := s.copyFieldsFrom(v.elem, strings.TrimSpace(v.value), m)
		if err != nil {
			return nil, err
		}
		m.fields = adjustCopied(fields, m.sinceVersion)
		if reuseAliases {
			m.aliases = aliases
		}
	}
	if err := m.parseFields(p); err != nil {
		return nil, err
	}
	if err := m.parseConds(p); err != nil {
		return nil, err
	}
	if m.hasValidateMinLength && m.validateMinLength != m.MinLength() {
		return nil, s.errorf(elem, dslerrors.ErrLength, "message %q: minimal length is %d, validateMinLength expects %d",
			m.name, m.MinLength(), m.validateMinLength)
	}
	return m, nil
}

// reuse starts the message as a copy of src.
func (m *Message) reuse(src *Message, withAliases bool) {
	parent, schema, elem := m.parent, m.schema, m.elem
	*m = *src
	m.parent, m.schema, m.elem = parent, schema, elem
	m.reusedFrom = src
	m.platforms = slices.Clone(src.platforms)
	m.fields = cloneFields(src.fields, m)
	m.aliases = nil
	if withAliases {
		m.aliases = src.aliases
	}
	m.construct = cond.Clone(src.construct)
	m.readCond = cond.Clone(src.readCond)
	m.validCond = cond.Clone(src.validCond)
	m.extraAttrs = nil
	m.extraChildren = nil
}

func (m *Message) parseProps(p *props) error {
	s := m.schema
	p.setString("name", &m.name)
	if !IsValidName(m.name) {
		return s.errorf(p.elem, dslerrors.ErrInvalidName, "invalid message name %q", m.name)
	}
	if v, ok := p.get("id"); ok {
		id, err := s.resolveID(v.elem, v.value)
		if err != nil {
			return err
		}
		m.id, m.hasID = id, true
	}
	if !m.hasID {
		return s.errorf(p.elem, dslerrors.ErrMissingProperty, "message %q requires an id", m.name)
	}
	p.setString("displayName", &m.displayName)
	p.setString("description", &m.description)
	p.setString("copyCodeFrom", &m.copyCodeFrom)
	if err := p.setUint("order", &m.order); err != nil {
		return err
	}
	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"customizable", &m.customizable},
		{"failOnInvalid", &m.failOnInvalid},
		{"reuseCode", &m.reuseCode},
		{"removed", &m.removed},
	} {
		if err := p.setBool(flag.name, flag.dst); err != nil {
			return err
		}
	}
	if v, ok := p.get("sender"); ok {
		sender, valid := parseSender(v.value)
		if !valid {
			return s.errorf(v.elem, dslerrors.ErrInvalidValue, "message %q: invalid sender %q", m.name, v.value)
		}
		m.sender = sender
	}
	if v, ok := p.get("platforms"); ok {
		platforms, err := s.resolvePlatforms(v.elem, v.value)
		if err != nil {
			return err
		}
		m.platforms = platforms
	}
	if v, present, err := p.unsigned("validateMinLength"); err != nil {
		return err
	} else if present {
		m.validateMinLength, m.hasValidateMinLength = int(v), true
	}
	if err := p.setUint("sinceVersion", &m.sinceVersion); err != nil {
		return err
	}
	if err := p.setUint("deprecated", &m.deprecatedSince); err != nil {
		return err
	}
	m.extraAttrs = p.extraAttrs
	m.extraChildren = p.extraChildren
	return checkVersionWindow(s, p.elem, "message "+m.name, m.sinceVersion, m.deprecatedSince, m.removed, 0, NotYetDeprecated)
}

// resolveID accepts a numeric literal or an external value reference such
// as an enum value.
func (s *Schema) resolveID(elem xmlnode.Element, text string) (int64, error) {
	text = strings.TrimSpace(text)
	if v, _, err := num.ParseInt(text); err == nil {
		return v, nil
	}
	if IsValidRefName(text) {
		if v, _, ok := s.proto.strToNumeric(text, s); ok {
			return v, nil
		}
	}
	return 0, s.errorf(elem, dslerrors.ErrInvalidValue, "invalid message id %q", text)
}

// adjustCopied drops fields removed at or before since and raises the
// since version of the kept ones to at least since.
func adjustCopied(fields []Field, since uint) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		b := f.base()
		if b.removed && b.deprecatedSince <= since {
			continue
		}
		b.sinceVersion = max(b.sinceVersion, since)
		out = append(out, f)
	}
	rebindSiblings(out)
	return out
}

func (m *Message) parseFields(p *props) error {
	s := m.schema
	fields, err := s.replaceMembers(m, m.fields, p)
	if err != nil {
		return err
	}
	elems, err := s.memberElements(p, "fields")
	if err != nil {
		return err
	}
	if fields, err = s.appendMembers(m, fields, elems); err != nil {
		return err
	}
	for i, f := range fields {
		if err := f.bindSiblings(fields[:i]); err != nil {
			return err
		}
	}
	m.fields = fields
	if m.aliases, err = rebindAliases(s, m.aliases, m, m.fields); err != nil {
		return err
	}
	m.aliases, err = s.parseAliases(m, p, m.fields, m.aliases)
	return err
}

type condKind uint8

const (
	condConstruct condKind = iota
	condRead
	condValid
)

var condKinds = [...]struct {
	name     string
	copyProp string
}{
	condConstruct: {"construct", "copyConstructFrom"},
	condRead:      {"readCond", "copyReadCondFrom"},
	condValid:     {"validCond", "copyValidCondFrom"},
}

func (k condKind) String() string { return condKinds[k].name }

func (m *Message) parseConds(p *props) error {
	s := m.schema
	scope := condScope{schema: s, fields: m.fields}
	slots := [...]*cond.Cond{condConstruct: &m.construct, condRead: &m.readCond, condValid: &m.validCond}
	for kind, info := range condKinds {
		c, elem, err := s.readCond(p, info.name)
		if err != nil {
			return err
		}
		if v, ok := p.get(info.copyProp); ok {
			if c != nil {
				return s.errorf(v.elem, dslerrors.ErrCondition, "message %q: %s and %s are mutually exclusive", m.name, info.name, info.copyProp)
			}
			if c, err = s.copyCondFrom(v.elem, strings.TrimSpace(v.value), condKind(kind)); err != nil {
				return err
			}
			elem = v.elem
		}
		if c == nil {
			c, elem = *slots[kind], m.elem
		}
		if c == nil {
			continue
		}
		if err := scope.verify(elem, c); err != nil {
			return err
		}
		if condKind(kind) == condConstruct && !cond.IsConstructCompatible(c) {
			return s.errorf(elem, dslerrors.ErrCondition,
				"message %q: construct %s must combine equality and bit checks with AND only", m.name, c)
		}
		*slots[kind] = c
	}
	for _, as := range []struct {
		prop string
		dst  *cond.Cond
		kind condKind
	}{
		{"constructAsReadCond", &m.readCond, condRead},
		{"constructAsValidCond", &m.validCond, condValid},
	} {
		v, present, err := p.boolean(as.prop)
		if err != nil {
			return err
		}
		if !present || !v {
			continue
		}
		if m.construct == nil {
			return s.errorf(p.elem, dslerrors.ErrCondition, "message %q: %s requires a construct condition", m.name, as.prop)
		}
		if p.has(as.kind.String()) || p.has(condKinds[as.kind].copyProp) || len(p.childrenNamed(as.kind.String())) > 0 {
			return s.errorf(p.elem, dslerrors.ErrCondition, "message %q: %s conflicts with an explicit %s", m.name, as.prop, as.kind)
		}
		*as.dst = cond.Clone(m.construct)
	}
	return nil
}

// copyCondFrom clones the condition of another message, or the validity
// condition of a bundle or bitfield field.
func (s *Schema) copyCondFrom(elem xmlnode.Element, ref string, kind condKind) (cond.Cond, error) {
	if err := s.checkRef(elem, "condition source", ref); err != nil {
		return nil, err
	}
	var c cond.Cond
	found := false
	if src, ok := findEntity(s.proto, ref, s, func(ns *Namespace) map[string]*Message { return ns.messages }); ok {
		c, found = src.condOf(kind), true
	} else if kind == condValid {
		switch f := resolveRefTarget(s.proto.findField(ref, s)).(type) {
		case *BundleField:
			c, found = f.validCond, true
		case *BitfieldField:
			c, found = f.validCond, true
		}
	}
	if !found {
		return nil, s.errorf(elem, dslerrors.ErrUnresolvedRef, "%s source %q is not defined", kind, ref)
	}
	if c == nil {
		return nil, s.errorf(elem, dslerrors.ErrCondition, "%q has no %s to copy", ref, kind)
	}
	return cond.Clone(c), nil
}

// copyFieldsFrom clones the fields and aliases of a message, interface or
// bundle field for the new owner.
func (s *Schema) copyFieldsFrom(elem xmlnode.Element, ref string, owner Entity) ([]Field, []*Alias, error) {
	if err := s.checkRef(elem, "copyFieldsFrom", ref); err != nil {
		return nil, nil, err
	}
	var fields []Field
	var aliases []*Alias
	if src, ok := findEntity(s.proto, ref, s, func(ns *Namespace) map[string]*Message { return ns.messages }); ok {
		fields, aliases = src.fields, src.aliases
	} else if src, ok := findEntity(s.proto, ref, s, func(ns *Namespace) map[string]*Interface { return ns.interfaces }); ok {
		fields, aliases = src.fields, src.aliases
	} else if b, ok := resolveRefTarget(s.proto.findField(ref, s)).(*BundleField); ok {
		if !dslversion.Supported(dslversion.CopyFieldsFromBundle, s.dslVersion) {
			return nil, nil, s.errorf(elem, dslerrors.ErrVersion, "copyFieldsFrom a bundle requires DSL version %d",
				dslversion.CopyFieldsFromBundle.MinVersion())
		}
		fields, aliases = b.members, b.aliases
	} else {
		return nil, nil, s.errorf(elem, dslerrors.ErrUnresolvedRef, "copyFieldsFrom source %q is not defined", ref)
	}
	return cloneFields(fields, owner), aliases, nil
}
