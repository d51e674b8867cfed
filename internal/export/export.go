// Package export renders a validated protocol as a JSON document for code
// generators that do not link the model.
package export

import (
	"io"

	json "github.com/goccy/go-json"

	"github.com/jacoelho/commsdsl/internal/cond"
	"github.com/jacoelho/commsdsl/internal/model"
	"github.com/jacoelho/commsdsl/internal/num"
)

// Protocol is the root of the view.
type Protocol struct {
	Schemas []Schema `json:"schemas"`
}

// Schema is the view of one schema.
type Schema struct {
	Name       string      `json:"name,omitempty"`
	ID         uint        `json:"id"`
	Version    uint        `json:"version"`
	DSLVersion uint        `json:"dslVersion"`
	Endian     string      `json:"endian"`
	Platforms  []string    `json:"platforms,omitempty"`
	Namespaces []Namespace `json:"namespaces"`
}

// Namespace is the view of a namespace and its children.
type Namespace struct {
	Name        string      `json:"name,omitempty"`
	Ref         string      `json:"ref,omitempty"`
	Description string      `json:"description,omitempty"`
	Fields      []Field     `json:"fields,omitempty"`
	Messages    []Message   `json:"messages,omitempty"`
	Interfaces  []Interface `json:"interfaces,omitempty"`
	Frames      []Frame     `json:"frames,omitempty"`
	Namespaces  []Namespace `json:"namespaces,omitempty"`
}

// Field is the view of a field of any kind. Kind specific entries are left
// empty for the kinds they do not apply to.
type Field struct {
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Ref          string  `json:"ref,omitempty"`
	Type         string  `json:"type,omitempty"`
	SemanticType string  `json:"semanticType,omitempty"`
	MinLength    int     `json:"minLength"`
	MaxLength    *int    `json:"maxLength"`
	BitLength    int     `json:"bitLength,omitempty"`
	Since        uint    `json:"sinceVersion,omitempty"`
	Deprecated   *uint   `json:"deprecatedSince,omitempty"`
	Removed      bool    `json:"removed,omitempty"`
	Target       string  `json:"target,omitempty"`
	Values       []Value `json:"values,omitempty"`
	Ranges       []Range `json:"validRanges,omitempty"`
	Members      []Field `json:"members,omitempty"`
	Element      *Field  `json:"element,omitempty"`
	Cond         string  `json:"cond,omitempty"`
}

// Value is a named value: an int special, an enum value or a set bit.
type Value struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Since uint   `json:"sinceVersion,omitempty"`
}

// Range is an integer valid range.
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Message is the view of a message.
type Message struct {
	Name      string   `json:"name"`
	Ref       string   `json:"ref"`
	ID        int64    `json:"id"`
	Order     uint     `json:"order,omitempty"`
	Since     uint     `json:"sinceVersion,omitempty"`
	Sender    string   `json:"sender,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
	MinLength int      `json:"minLength"`
	MaxLength *int     `json:"maxLength"`
	Fields    []Field  `json:"fields"`
	Construct string   `json:"construct,omitempty"`
	ReadCond  string   `json:"readCond,omitempty"`
	ValidCond string   `json:"validCond,omitempty"`
}

// Interface is the view of an interface.
type Interface struct {
	Name   string  `json:"name"`
	Ref    string  `json:"ref"`
	Fields []Field `json:"fields"`
}

// Frame is the view of a frame.
type Frame struct {
	Name      string  `json:"name"`
	Ref       string  `json:"ref"`
	MinLength int     `json:"minLength"`
	Layers    []Layer `json:"layers"`
}

// Layer is the view of a frame layer.
type Layer struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Role  string `json:"role,omitempty"`
	Field *Field `json:"field,omitempty"`

	// FieldRef is set instead of Field when the layer references a field
	// defined outside the frame.
	FieldRef string `json:"fieldRef,omitempty"`
	Alg      string `json:"alg,omitempty"`
	From     string `json:"from,omitempty"`
	Until    string `json:"until,omitempty"`
}

// Marshal renders p as indented JSON.
func Marshal(p *model.Protocol) ([]byte, error) {
	return json.MarshalIndent(View(p), "", "  ")
}

// Write streams the JSON view of p to w.
func Write(w io.Writer, p *model.Protocol) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(View(p))
}

// View builds the view of p.
func View(p *model.Protocol) Protocol {
	var out Protocol
	if p == nil {
		return out
	}
	for _, s := range p.Schemas() {
		out.Schemas = append(out.Schemas, schemaView(s))
	}
	return out
}

func schemaView(s *model.Schema) Schema {
	v := Schema{
		Name:       s.Name(),
		ID:         s.ID(),
		Version:    s.Version(),
		DSLVersion: s.DSLVersion(),
		Endian:     s.Endian().String(),
		Platforms:  s.Platforms(),
	}
	for _, ns := range s.Namespaces() {
		v.Namespaces = append(v.Namespaces, namespaceView(ns, ns == s.DefaultNamespace()))
	}
	return v
}

// namespaceView renders ns. The default namespace is flat: its nested
// namespaces are listed by the schema.
func namespaceView(ns *model.Namespace, flat bool) Namespace {
	v := Namespace{Name: ns.Name(), Description: ns.Description()}
	if ns.Name() != "" {
		v.Ref = ns.ExternalRef(false)
	}
	for _, f := range ns.Fields() {
		v.Fields = append(v.Fields, fieldView(f))
	}
	for _, m := range ns.Messages() {
		v.Messages = append(v.Messages, messageView(m))
	}
	for _, i := range ns.Interfaces() {
		v.Interfaces = append(v.Interfaces, Interface{
			Name:   i.Name(),
			Ref:    i.ExternalRef(false),
			Fields: fieldViews(i.Fields()),
		})
	}
	for _, f := range ns.Frames() {
		v.Frames = append(v.Frames, frameView(f))
	}
	if !flat {
		for _, child := range ns.Namespaces() {
			v.Namespaces = append(v.Namespaces, namespaceView(child, false))
		}
	}
	return v
}

func messageView(m *model.Message) Message {
	v := Message{
		Name:      m.Name(),
		Ref:       m.ExternalRef(false),
		ID:        m.ID(),
		Order:     m.Order(),
		Since:     m.SinceVersion(),
		Platforms: m.Platforms(),
		MinLength: m.MinLength(),
		MaxLength: maxLength(m.MaxLength()),
		Fields:    fieldViews(m.Fields()),
		Construct: condString(m.Construct()),
		ReadCond:  condString(m.ReadCond()),
		ValidCond: condString(m.ValidCond()),
	}
	if s := m.Sender(); s != model.SenderBoth {
		v.Sender = s.String()
	}
	return v
}

func frameView(f *model.Frame) Frame {
	v := Frame{Name: f.Name(), Ref: f.ExternalRef(false), MinLength: f.MinLength()}
	for _, l := range f.Layers() {
		v.Layers = append(v.Layers, layerView(l))
	}
	return v
}

func layerView(l model.Layer) Layer {
	v := Layer{Name: l.Name(), Kind: l.Kind().String()}
	if l.Role() != l.Kind() {
		v.Role = l.Role().String()
	}
	if f := l.Field(); f != nil {
		if l.IsFieldExternal() {
			v.FieldRef = f.ExternalRef(false)
		} else {
			fv := fieldView(f)
			v.Field = &fv
		}
	}
	switch l := l.(type) {
	case *model.ChecksumLayer:
		v.Alg = l.Alg().String()
		if l.Alg() == model.AlgCustom {
			v.Alg = l.AlgName()
		}
		v.From, v.Until = l.From(), l.Until()
	case *model.CustomLayer:
		v.From, v.Until = l.ChecksumFrom(), l.ChecksumUntil()
	}
	return v
}

func fieldViews(fields []model.Field) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldView(f))
	}
	return out
}

func fieldView(f model.Field) Field {
	v := Field{
		Name:      f.Name(),
		Kind:      f.Kind().String(),
		Ref:       f.ExternalRef(false),
		MinLength: f.MinLength(),
		MaxLength: maxLength(f.MaxLength()),
		BitLength: f.BitLength(),
		Since:     f.SinceVersion(),
		Removed:   f.IsDeprecatedRemoved(),
	}
	if st := f.SemanticType(); st != model.SemanticNone {
		v.SemanticType = st.String()
	}
	if d := f.DeprecatedSince(); d != model.NotYetDeprecated {
		v.Deprecated = &d
	}
	switch f := f.(type) {
	case *model.IntField:
		v.Type = f.Type().String()
		for _, s := range f.Specials() {
			v.Values = append(v.Values, Value{Name: s.Name, Value: s.Value, Since: s.SinceVersion})
		}
		for _, r := range f.ValidRanges() {
			v.Ranges = append(v.Ranges, Range{Min: r.Min, Max: r.Max})
		}
	case *model.FloatField:
		v.Type = f.Type().String()
	case *model.EnumField:
		v.Type = f.Type().String()
		for _, e := range f.Values() {
			v.Values = append(v.Values, Value{Name: e.Name, Value: e.Value, Since: e.SinceVersion})
		}
	case *model.SetField:
		v.Type = f.Type().String()
		for _, b := range f.Bits() {
			v.Values = append(v.Values, Value{Name: b.Name, Value: int64(b.Idx), Since: b.SinceVersion})
		}
	case *model.BitfieldField:
		v.Members = fieldViews(f.Members())
	case *model.BundleField:
		v.Members = fieldViews(f.Members())
	case *model.VariantField:
		v.Members = fieldViews(f.Members())
	case *model.ListField:
		if elem, state := f.ElementField(); elem != nil {
			if state == model.SlotExternal {
				v.Target = elem.ExternalRef(false)
			} else {
				ev := fieldView(elem)
				v.Element = &ev
			}
		}
	case *model.RefField:
		v.Target = f.Target().ExternalRef(false)
	case *model.OptionalField:
		if inner, state := f.Field(); inner != nil {
			if state == model.SlotExternal {
				v.Target = inner.ExternalRef(false)
			} else {
				iv := fieldView(inner)
				v.Element = &iv
			}
		}
		v.Cond = condString(f.Cond())
	}
	return v
}

// maxLength maps the saturated length to null.
func maxLength(n int) *int {
	if n == num.Unbounded {
		return nil
	}
	return &n
}

func condString(c cond.Cond) string {
	if c == nil {
		return ""
	}
	return c.String()
}
