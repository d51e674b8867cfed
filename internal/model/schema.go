package model

import (
	"cmp"
	"slices"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/dslversion"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// Schema is the root of one namespace tree.
type Schema struct {
	proto *Protocol
	elem  xmlnode.Element

	name                  string
	description           string
	id                    uint
	version               uint
	dslVersion            uint
	endian                Endian
	nonUniqueMsgIDAllowed bool
	platforms             []string

	root *Namespace

	extraAttrs    []ExtraAttr
	extraChildren []xmlnode.Element
}

// Name returns the schema name, empty for an unnamed single schema.
func (s *Schema) Name() string { return s.name }

// Parent is always nil.
func (s *Schema) Parent() Entity { return nil }

// Description returns the schema description.
func (s *Schema) Description() string { return s.description }

// ID returns the numeric schema id.
func (s *Schema) ID() uint { return s.id }

// Version returns the protocol version the schema describes.
func (s *Schema) Version() uint { return s.version }

// DSLVersion returns the effective DSL version.
func (s *Schema) DSLVersion() uint { return s.dslVersion }

// Endian returns the default byte order.
func (s *Schema) Endian() Endian { return s.endian }

// NonUniqueMsgIDAllowed reports whether messages may share ids.
func (s *Schema) NonUniqueMsgIDAllowed() bool { return s.nonUniqueMsgIDAllowed }

// Platforms returns the sorted platform names.
func (s *Schema) Platforms() []string { return slices.Clone(s.platforms) }

// DefaultNamespace returns the unnamed global namespace.
func (s *Schema) DefaultNamespace() *Namespace { return s.root }

// Namespaces returns the default namespace followed by the top-level named
// namespaces.
func (s *Schema) Namespaces() []*Namespace {
	return append([]*Namespace{s.root}, s.root.Namespaces()...)
}

// ExtraAttributes returns the uninterpreted schema attributes.
func (s *Schema) ExtraAttributes() []ExtraAttr { return slices.Clone(s.extraAttrs) }

// ExtraChildren returns the uninterpreted schema children.
func (s *Schema) ExtraChildren() []xmlnode.Element { return slices.Clone(s.extraChildren) }

// Messages returns every message of the schema ordered by id, then order.
func (s *Schema) Messages() []*Message {
	var out []*Message
	s.root.walk(func(ns *Namespace) {
		out = append(out, ns.messageList...)
	})
	slices.SortStableFunc(out, compareMessages)
	return out
}

func compareMessages(a, b *Message) int {
	if c := cmp.Compare(a.id, b.id); c != 0 {
		return c
	}
	if c := cmp.Compare(a.order, b.order); c != 0 {
		return c
	}
	return compareName(a.name, b.name)
}

func (s *Schema) diagnostic(elem xmlnode.Element, code dslerrors.Code, format string, args []any) dslerrors.Diagnostic {
	doc, line := "", 0
	if elem != nil {
		doc, line = elem.Document(), elem.Line()
	}
	return dslerrors.Newf(code, doc, line, format, args...)
}

// errorf reports an error-level diagnostic and returns it.
func (s *Schema) errorf(elem xmlnode.Element, code dslerrors.Code, format string, args ...any) error {
	d := s.diagnostic(elem, code, format, args)
	s.proto.reporter.Report(d)
	return &d
}

func (s *Schema) warnf(elem xmlnode.Element, code dslerrors.Code, format string, args ...any) {
	d := s.diagnostic(elem, code, format, args)
	d.Severity = dslerrors.Warning
	s.proto.reporter.Report(d)
}

// schemaConfig holds the properties of one <schema> document.
type schemaConfig struct {
	name                  string
	description           string
	hasDescription        bool
	id                    uint
	version               uint
	dslVersion            uint
	endian                Endian
	nonUniqueMsgIDAllowed bool
	extraAttrs            []ExtraAttr
	extraChildren         []xmlnode.Element
}

func (s *Schema) readSchemaConfig(p *props) (schemaConfig, error) {
	cfg := schemaConfig{endian: EndianLittle}
	p.setString("name", &cfg.name)
	if cfg.name != "" && !IsValidName(cfg.name) {
		return cfg, s.errorf(p.elem, dslerrors.ErrInvalidName, "invalid schema name %q", cfg.name)
	}
	cfg.description, cfg.hasDescription = p.str("description")
	if err := p.setUint("id", &cfg.id); err != nil {
		return cfg, err
	}
	if err := p.setUint("version", &cfg.version); err != nil {
		return cfg, err
	}
	if err := p.setUint("dslVersion", &cfg.dslVersion); err != nil {
		return cfg, err
	}
	if cfg.dslVersion == 0 {
		cfg.dslVersion = dslversion.Latest
	}
	if cfg.dslVersion > dslversion.Latest {
		return cfg, s.errorf(p.elem, dslerrors.ErrInvalidValue,
			"dslVersion %d is not supported, latest is %d", cfg.dslVersion, dslversion.Latest)
	}
	if v, ok := p.get("endian"); ok {
		e, valid := parseEndian(v.value)
		if !valid {
			return cfg, s.errorf(v.elem, dslerrors.ErrInvalidValue, "invalid endian %q", v.value)
		}
		cfg.endian = e
	}
	if err := p.setBool("nonUniqueMsgIdAllowed", &cfg.nonUniqueMsgIDAllowed); err != nil {
		return cfg, err
	}
	cfg.extraAttrs = p.extraAttrs
	cfg.extraChildren = p.extraChildren
	return cfg, nil
}

// mergeConfig folds a repeated document of the schema into it. Numeric
// properties must agree; a differing description keeps the first one.
func (s *Schema) mergeConfig(cfg schemaConfig, p *props) bool {
	ok := true
	mismatch := func(prop string, have, got any) {
		s.errorf(p.elem, dslerrors.ErrSchema, "schema %q: %s %v does not match the previous %v", s.name, prop, got, have)
		ok = false
	}
	if cfg.id != s.id {
		mismatch("id", s.id, cfg.id)
	}
	if cfg.version != s.version {
		mismatch("version", s.version, cfg.version)
	}
	if cfg.dslVersion != s.dslVersion {
		mismatch("dslVersion", s.dslVersion, cfg.dslVersion)
	}
	if cfg.endian != s.endian {
		mismatch("endian", s.endian, cfg.endian)
	}
	if !ok {
		return false
	}
	if cfg.hasDescription && cfg.description != s.description {
		if s.description == "" {
			s.description = cfg.description
		} else {
			s.warnf(p.elem, dslerrors.WarnFirstWins, "schema %q: description differs from the first declaration, keeping the first", s.name)
		}
	}
	if cfg.nonUniqueMsgIDAllowed && !s.nonUniqueMsgIDAllowed {
		s.warnf(p.elem, dslerrors.WarnFirstWins, "schema %q: nonUniqueMsgIdAllowed differs from the first declaration, keeping the first", s.name)
	}
	s.extraAttrs = append(s.extraAttrs, cfg.extraAttrs...)
	s.extraChildren = append(s.extraChildren, cfg.extraChildren...)
	return true
}

// processChildren registers the content of a <schema> or <ns> element in
// document order. A failing entity is reported and skipped.
func (s *Schema) processChildren(ns *Namespace, children []xmlnode.Element) {
	for _, child := range children {
		switch child.Name() {
		case "fields":
			for _, elem := range child.Children() {
				if !isFieldElement(elem.Name()) {
					s.errorf(elem, dslerrors.ErrStructure, "unexpected <%s> in <fields>", elem.Name())
					continue
				}
				_ = ns.addField(elem)
			}
		case "messages":
			s.eachNamed(child, "message", func(elem xmlnode.Element) { _ = ns.addMessage(elem) })
		case "message":
			_ = ns.addMessage(child)
		case "interfaces":
			s.eachNamed(child, "interface", func(elem xmlnode.Element) { _ = ns.addInterface(elem) })
		case "interface":
			_ = ns.addInterface(child)
		case "frames":
			s.eachNamed(child, "frame", func(elem xmlnode.Element) { _ = ns.addFrame(elem) })
		case "frame":
			_ = ns.addFrame(child)
		case "ns":
			s.processNamespace(ns, child)
		case "platforms":
			s.processPlatforms(child)
		}
	}
}

func (s *Schema) eachNamed(parent xmlnode.Element, name string, fn func(xmlnode.Element)) {
	for _, elem := range parent.Children() {
		if elem.Name() != name {
			s.errorf(elem, dslerrors.ErrStructure, "unexpected <%s> in <%s>", elem.Name(), parent.Name())
			continue
		}
		fn(elem)
	}
}

var platformSpec = elementSpec{props: []string{"name", "description"}}

func (s *Schema) processPlatforms(elem xmlnode.Element) {
	for _, child := range elem.Children() {
		if child.Name() != "platform" {
			s.errorf(child, dslerrors.ErrStructure, "unexpected <%s> in <platforms>", child.Name())
			continue
		}
		p, err := s.readProps(child, platformSpec)
		if err != nil {
			continue
		}
		name, _ := p.str("name")
		if !IsValidName(name) {
			s.errorf(child, dslerrors.ErrInvalidName, "invalid platform name %q", name)
			continue
		}
		idx, found := slices.BinarySearch(s.platforms, name)
		if found {
			s.errorf(child, dslerrors.ErrDuplicateName, "platform %q defined more than once", name)
			continue
		}
		s.platforms = slices.Insert(s.platforms, idx, name)
	}
}

// resolvePlatforms parses a comma separated platform list. A leading '!'
// selects every platform except the listed ones.
func (s *Schema) resolvePlatforms(elem xmlnode.Element, value string) ([]string, error) {
	value = strings.TrimSpace(value)
	invert := strings.HasPrefix(value, "!")
	if invert {
		value = value[1:]
	}
	var listed []string
	for _, part := range strings.Split(value, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, found := slices.BinarySearch(s.platforms, name); !found {
			return nil, s.errorf(elem, dslerrors.ErrUnresolvedRef, "unknown platform %q", name)
		}
		if !slices.Contains(listed, name) {
			listed = append(listed, name)
		}
	}
	slices.Sort(listed)
	if !invert {
		return listed, nil
	}
	var out []string
	for _, name := range s.platforms {
		if !slices.Contains(listed, name) {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, s.errorf(elem, dslerrors.ErrInvalidValue, "platform list %q excludes every platform", value)
	}
	return out, nil
}

// validate runs the schema-wide checks once every document is in.
func (s *Schema) validate() {
	msgs := s.Messages()
	for i := 1; i < len(msgs); i++ {
		prev, cur := msgs[i-1], msgs[i]
		if prev.id != cur.id {
			continue
		}
		if !s.nonUniqueMsgIDAllowed {
			s.errorf(cur.elem, dslerrors.ErrDuplicateID, "message %q reuses id %d of message %q",
				cur.ExternalRef(false), cur.id, prev.ExternalRef(false))
			continue
		}
		if prev.order == cur.order {
			s.errorf(cur.elem, dslerrors.ErrDuplicateID, "messages %q and %q share id %d and order %d",
				prev.ExternalRef(false), cur.ExternalRef(false), cur.id, cur.order)
		}
	}
}
