package commsdsl

import (
	"fmt"
	"io"

	"github.com/jacoelho/commsdsl/internal/export"
	"github.com/jacoelho/commsdsl/internal/model"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

type (
	// Protocol is the validated, read-only registry of schemas.
	Protocol  = model.Protocol
	Schema    = model.Schema
	Namespace = model.Namespace
	Field     = model.Field
	Message   = model.Message
	Interface = model.Interface
	Frame     = model.Frame
	Layer     = model.Layer
	Kind      = model.Kind
	RefField  = model.RefField
)

// Builder collects schema documents. It is not safe for concurrent use.
type Builder struct {
	b *model.Builder
}

// NewBuilder returns a builder configured by opts.
func NewBuilder(opts Options) *Builder {
	return &Builder{b: model.NewBuilder(model.Config{
		Reporter:               opts.reporter(),
		MultipleSchemasEnabled: opts.multipleSchemasEnabled,
	})}
}

// Parse reads one XML schema document. document names the source in
// diagnostics.
func (b *Builder) Parse(r io.Reader, document string) error {
	if r == nil {
		return fmt.Errorf("parse %s: nil reader", document)
	}
	root, err := xmlnode.Parse(r, document)
	if err != nil {
		return err
	}
	return b.b.Parse(root)
}

// ParseElement ingests a document already turned into an element tree.
func (b *Builder) ParseElement(root xmlnode.Element) error {
	return b.b.Parse(root)
}

// Build validates everything parsed so far. The builder cannot be used
// afterwards.
func (b *Builder) Build() (*Protocol, error) {
	return b.b.Build()
}

// Source is a named schema document.
type Source struct {
	Name   string
	Reader io.Reader
}

// Compile parses the sources in order and builds them. Malformed XML stops
// the compilation; schema diagnostics of every source are collected in the
// returned error.
func Compile(opts Options, sources ...Source) (*Protocol, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b := NewBuilder(opts)
	for _, src := range sources {
		if src.Reader == nil {
			return nil, fmt.Errorf("compile %s: nil reader", src.Name)
		}
		root, err := xmlnode.Parse(src.Reader, src.Name)
		if err != nil {
			return nil, fmt.Errorf("compile: %w", err)
		}
		_ = b.b.Parse(root)
	}
	return b.Build()
}

// ExportJSON renders the protocol as an indented JSON document.
func ExportJSON(p *Protocol) ([]byte, error) {
	return export.Marshal(p)
}

// WriteJSON streams the JSON rendering of p to w.
func WriteJSON(w io.Writer, p *Protocol) error {
	return export.Write(w, p)
}
