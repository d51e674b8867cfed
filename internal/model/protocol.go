package model

import (
	"fmt"
	"slices"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/dslversion"
	"github.com/jacoelho/commsdsl/internal/logging"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// Config configures a Builder.
type Config struct {
	// Reporter receives every diagnostic. A nil reporter discards them.
	Reporter *logging.Reporter
	// MultipleSchemasEnabled admits documents naming a second schema.
	MultipleSchemasEnabled bool
}

// Protocol is the registry of schemas. It is read-only once returned by
// Builder.Build.
type Protocol struct {
	reporter        *logging.Reporter
	multipleSchemas bool
	schemas         []*Schema
	current         *Schema
}

// Builder collects schema documents and validates them into a Protocol.
type Builder struct {
	proto *Protocol
	built bool
}

// NewBuilder returns an empty builder.
func NewBuilder(cfg Config) *Builder {
	rep := cfg.Reporter
	if rep == nil {
		rep = logging.NewReporter(logging.Config{})
	}
	return &Builder{proto: &Protocol{
		reporter:        rep,
		multipleSchemas: cfg.MultipleSchemasEnabled,
	}}
}

// Parse ingests one schema document rooted at a <schema> element.
// Documents are processed in the order they are given. An error is
// returned when the document produced a fatal diagnostic; entities of the
// document that did not fail are still registered.
func (b *Builder) Parse(root xmlnode.Element) error {
	if b.built {
		d := dslerrors.New(dslerrors.ErrFrozen, "", 0, "protocol already built")
		return &d
	}
	if root == nil {
		return fmt.Errorf("parse: nil document")
	}
	before := len(b.proto.reporter.Errors())
	b.proto.parseDocument(root)
	if errs := b.proto.reporter.Errors(); len(errs) > before {
		return errs[before:]
	}
	return nil
}

// Build runs the protocol-wide checks and returns the frozen model. The
// returned error is a dslerrors.List with every fatal diagnostic reported
// since the builder was created.
func (b *Builder) Build() (*Protocol, error) {
	if b.built {
		d := dslerrors.New(dslerrors.ErrFrozen, "", 0, "protocol already built")
		return nil, &d
	}
	p := b.proto
	if len(p.schemas) == 0 {
		d := dslerrors.New(dslerrors.ErrSchema, "", 0, "no schema documents parsed")
		p.reporter.Report(d)
	}
	for _, s := range p.schemas {
		s.validate()
	}
	if p.reporter.HasErrors() {
		return nil, p.reporter.Errors()
	}
	b.built = true
	p.current = nil
	return p, nil
}

// Schemas returns the schemas in ingestion order.
func (p *Protocol) Schemas() []*Schema { return slices.Clone(p.schemas) }

// Schema returns the schema with the name.
func (p *Protocol) Schema(name string) *Schema {
	for _, s := range p.schemas {
		if s.name == name {
			return s
		}
	}
	return nil
}

// LastSchema returns the most recently defined schema. References without a
// schema selector resolve against it.
func (p *Protocol) LastSchema() *Schema {
	if len(p.schemas) == 0 {
		return nil
	}
	return p.schemas[len(p.schemas)-1]
}

var schemaSpec = elementSpec{
	props: []string{
		"name", "id", "version", "dslVersion", "endian", "description",
		"nonUniqueMsgIdAllowed",
	},
	children: []string{
		"fields", "messages", "message", "interfaces", "interface",
		"frames", "frame", "ns", "platforms",
	},
}

func (p *Protocol) parseDocument(root xmlnode.Element) {
	report := func(code dslerrors.Code, format string, args ...any) {
		p.reporter.Report(dslerrors.Newf(code, root.Document(), root.Line(), format, args...))
	}
	if root.Name() != "schema" {
		report(dslerrors.ErrStructure, "document root must be <schema>, got <%s>", root.Name())
		return
	}

	// A scratch schema classifies properties before the target is known.
	// Schema properties exist in every DSL version so no gating happens.
	probe := &Schema{proto: p, dslVersion: dslversion.Latest}
	pr, err := probe.readProps(root, schemaSpec)
	if err != nil {
		return
	}
	cfg, err := probe.readSchemaConfig(pr)
	if err != nil {
		return
	}

	target := p.current
	switch {
	case target == nil:
		target = p.newSchema(cfg, root)
	case cfg.name == "" || cfg.name == target.name:
		if !target.mergeConfig(cfg, pr) {
			return
		}
	default:
		if !p.multipleSchemas {
			report(dslerrors.ErrSchema, "schema %q: multiple schemas are not enabled", cfg.name)
			return
		}
		if !dslversion.Supported(dslversion.MultiSchema, cfg.dslVersion) {
			report(dslerrors.ErrSchema, "schema %q: multiple schemas require DSL version %d",
				cfg.name, dslversion.MultiSchema.MinVersion())
			return
		}
		if target.name == "" {
			report(dslerrors.ErrSchema, "the first schema must be named when multiple schemas are used")
			return
		}
		if p.Schema(cfg.name) != nil {
			report(dslerrors.ErrSchema, "schema %q cannot be reopened after schema %q", cfg.name, target.name)
			return
		}
		target = p.newSchema(cfg, root)
	}
	p.current = target
	target.processChildren(target.root, pr.children)
}

func (p *Protocol) newSchema(cfg schemaConfig, elem xmlnode.Element) *Schema {
	s := &Schema{
		proto:                 p,
		elem:                  elem,
		name:                  cfg.name,
		id:                    cfg.id,
		version:               cfg.version,
		dslVersion:            cfg.dslVersion,
		endian:                cfg.endian,
		description:           cfg.description,
		nonUniqueMsgIDAllowed: cfg.nonUniqueMsgIDAllowed,
		extraAttrs:            cfg.extraAttrs,
		extraChildren:         cfg.extraChildren,
	}
	s.root = newNamespace(s, s, "")
	p.schemas = append(p.schemas, s)
	return s
}

// resolveSchema picks the schema a reference selects, defaulting to from.
func (p *Protocol) resolveSchema(ref string, from *Schema) (*Schema, []string, bool) {
	schemaName, hasSchema, parts := splitRef(ref)
	if !hasSchema {
		if from == nil {
			from = p.LastSchema()
		}
		return from, parts, from != nil
	}
	s := p.Schema(schemaName)
	return s, parts, s != nil
}
