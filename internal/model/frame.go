package model

import (
	"slices"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/num"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

var frameSpec = elementSpec{
	props:    []string{"name", "description"},
	children: append([]string{"layers"}, layerKindNames[:]...),
}

// Frame is the ordered stack of layers wrapping a message for transport.
type Frame struct {
	parent      Entity
	schema      *Schema
	elem        xmlnode.Element
	name        string
	description string
	layers      []Layer

	extraAttrs    []ExtraAttr
	extraChildren []xmlnode.Element
}

func (f *Frame) Name() string        { return f.name }
func (f *Frame) Parent() Entity      { return f.parent }
func (f *Frame) Schema() *Schema     { return f.schema }
func (f *Frame) Description() string { return f.description }

// Layers returns the layers from the outermost inwards.
func (f *Frame) Layers() []Layer { return slices.Clone(f.layers) }

// Layer returns the layer called name, or nil.
func (f *Frame) Layer(name string) Layer {
	if i := layerIndex(f.layers, name); i >= 0 {
		return f.layers[i]
	}
	return nil
}

// ExternalRef returns the dotted path resolving back to the frame.
func (f *Frame) ExternalRef(schemaRef bool) string { return externalRef(f, schemaRef) }

func (f *Frame) ExtraAttributes() []ExtraAttr     { return slices.Clone(f.extraAttrs) }
func (f *Frame) ExtraChildren() []xmlnode.Element { return slices.Clone(f.extraChildren) }

// MinLength sums the layer fields. The payload adds nothing.
func (f *Frame) MinLength() int {
	lengths := make([]int, 0, len(f.layers))
	for _, l := range f.layers {
		if fl := l.Field(); fl != nil {
			lengths = append(lengths, fl.MinLength())
		}
	}
	return num.SumLengths(lengths...)
}

// MaxLength is unbounded: the payload has no fixed size.
func (f *Frame) MaxLength() int { return num.Unbounded }

func (s *Schema) newFrame(elem xmlnode.Element, ns *Namespace) (*Frame, error) {
	p, err := s.readProps(elem, frameSpec)
	if err != nil {
		return nil, err
	}
	f := &Frame{parent: ns, schema: s, elem: elem}
	p.setString("name", &f.name)
	if !IsValidName(f.name) {
		return nil, s.errorf(elem, dslerrors.ErrInvalidName, "invalid frame name %q", f.name)
	}
	p.setString("description", &f.description)
	f.extraAttrs = p.extraAttrs
	f.extraChildren = p.extraChildren

	elems, err := f.layerElements(p)
	if err != nil {
		return nil, err
	}
	for _, le := range elems {
		l, err := s.newLayer(le, f)
		if err != nil {
			return nil, err
		}
		if f.Layer(l.Name()) != nil {
			return nil, s.errorf(le, dslerrors.ErrDuplicateName, "layer %q defined more than once in frame %q", l.Name(), f.name)
		}
		f.layers = append(f.layers, l)
	}
	if err := f.verify(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Frame) layerElements(p *props) ([]xmlnode.Element, error) {
	var direct []xmlnode.Element
	for _, c := range p.children {
		if isLayerElement(c.Name()) {
			direct = append(direct, c)
		}
	}
	wrap, err := p.singleChild("layers")
	if err != nil || wrap == nil {
		return direct, err
	}
	if len(direct) > 0 {
		return nil, f.schema.errorf(direct[0], dslerrors.ErrStructure, "layers must be either inside <layers> or direct children, not both")
	}
	var out []xmlnode.Element
	for _, c := range wrap.Children() {
		if !isLayerElement(c.Name()) {
			return nil, f.schema.errorf(c, dslerrors.ErrStructure, "unexpected <%s> in <layers>", c.Name())
		}
		out = append(out, c)
	}
	return out, nil
}

// verify checks the frame-wide layer rules, then lets every layer check
// its own placement.
func (f *Frame) verify() error {
	counts := make(map[LayerKind]int)
	for _, l := range f.layers {
		counts[l.Role()]++
	}
	switch n := counts[LayerPayload]; {
	case n == 0:
		return f.schema.errorf(f.elem, dslerrors.ErrLayerOrder, "frame %q has no payload layer", f.name)
	case n > 1:
		return f.schema.errorf(f.elem, dslerrors.ErrLayerOrder, "frame %q has %d payload layers", f.name, n)
	}
	for _, role := range []LayerKind{LayerID, LayerSize} {
		if counts[role] > 1 {
			return f.schema.errorf(f.elem, dslerrors.ErrLayerOrder, "frame %q has %d %s layers", f.name, counts[role], role)
		}
	}
	for i, l := range f.layers {
		if err := l.verify(f.layers, i); err != nil {
			return err
		}
	}
	return nil
}
