package model

import (
	"slices"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// LayerKind identifies one of the frame layer kinds. It doubles as the
// semantic role a custom layer may assume.
type LayerKind uint8

const (
	LayerPayload LayerKind = iota
	LayerID
	LayerSize
	LayerSync
	LayerChecksum
	LayerValue
	LayerCustom
)

var layerKindNames = [...]string{
	LayerPayload:  "payload",
	LayerID:       "id",
	LayerSize:     "size",
	LayerSync:     "sync",
	LayerChecksum: "checksum",
	LayerValue:    "value",
	LayerCustom:   "custom",
}

func (k LayerKind) String() string {
	if int(k) < len(layerKindNames) {
		return layerKindNames[k]
	}
	return "unknown"
}

func parseLayerKind(s string) (LayerKind, bool) {
	i := slices.Index(layerKindNames[:], s)
	if i < 0 {
		return 0, false
	}
	return LayerKind(i), true
}

// Layer is one level of a frame. Every layer but the payload carries a
// field, either owned or referenced.
type Layer interface {
	Entity
	Kind() LayerKind
	// Role is the semantic kind: the kind itself, or the semanticLayerType
	// of a custom layer.
	Role() LayerKind
	Description() string
	Field() Field
	// IsFieldExternal reports whether Field is a reference to a field
	// defined outside the layer.
	IsFieldExternal() bool
	ExtraAttributes() []ExtraAttr
	ExtraChildren() []xmlnode.Element
	Element() xmlnode.Element

	base() *layerBase
	parseKind(p *props) error
	verify(layers []Layer, idx int) error
}

var commonLayerSpec = elementSpec{
	props:         []string{"name", "description", "field"},
	children:      []string{"field"},
	fieldChildren: true,
}

type layerBase struct {
	frame       *Frame
	schema      *Schema
	elem        xmlnode.Element
	name        string
	description string
	field       Field
	external    bool

	extraAttrs    []ExtraAttr
	extraChildren []xmlnode.Element
}

func (b *layerBase) base() *layerBase                 { return b }
func (b *layerBase) Name() string                     { return b.name }
func (b *layerBase) Parent() Entity                   { return b.frame }
func (b *layerBase) Description() string              { return b.description }
func (b *layerBase) Field() Field                     { return b.field }
func (b *layerBase) IsFieldExternal() bool            { return b.external }
func (b *layerBase) ExtraAttributes() []ExtraAttr     { return slices.Clone(b.extraAttrs) }
func (b *layerBase) ExtraChildren() []xmlnode.Element { return slices.Clone(b.extraChildren) }
func (b *layerBase) Element() xmlnode.Element         { return b.elem }

func (b *layerBase) errorf(code dslerrors.Code, format string, args ...any) error {
	return b.schema.errorf(b.elem, code, format, args...)
}

// parseField reads the layer field from the field property, a <field>
// wrapper or a direct field child.
func (b *layerBase) parseField(p *props, self Layer) error {
	var defs []xmlnode.Element
	for _, c := range p.children {
		if isFieldElement(c.Name()) {
			defs = append(defs, c)
		}
	}
	wrap, err := p.singleChild("field")
	if err != nil {
		return err
	}
	if wrap != nil {
		if len(defs) > 0 {
			return b.errorf(dslerrors.ErrStructure, "layer %q: field given both inside <field> and as a direct child", b.name)
		}
		for _, c := range wrap.Children() {
			if isFieldElement(c.Name()) {
				defs = append(defs, c)
			}
		}
	}
	v, hasRef := p.get("field")
	switch {
	case len(defs) > 1:
		return b.errorf(dslerrors.ErrStructure, "layer %q must hold exactly one field", b.name)
	case len(defs) == 1 && hasRef:
		return b.errorf(dslerrors.ErrStructure, "layer %q: field reference and inline field are mutually exclusive", b.name)
	case len(defs) == 1:
		f, err := b.schema.newField(defs[0], self)
		if err != nil {
			return err
		}
		b.field = f
	case hasRef:
		f, err := b.schema.lookupField(v.elem, strings.TrimSpace(v.value))
		if err != nil {
			return err
		}
		b.field, b.external = f, true
	}
	return nil
}

func (b *layerBase) parseKind(*props) error { return nil }

// verifyCommon checks the rules every role shares: a field on all but
// the payload, and the placement of id, size and value roles before it.
func verifyCommon(l Layer, layers []Layer, idx int) error {
	b := l.base()
	role := l.Role()
	if role == LayerPayload {
		if b.field != nil {
			return b.errorf(dslerrors.ErrStructure, "payload layer %q must not define a field", b.name)
		}
		return nil
	}
	if b.field == nil {
		return b.errorf(dslerrors.ErrMissingProperty, "%s layer %q requires a field", role, b.name)
	}
	switch role {
	case LayerID, LayerSize, LayerValue:
		if payload := payloadIndex(layers); payload >= 0 && idx > payload {
			return b.errorf(dslerrors.ErrLayerOrder, "%s layer %q must precede the payload", role, b.name)
		}
	}
	switch role {
	case LayerID:
		switch resolveRefTarget(b.field).(type) {
		case *IntField, *EnumField:
		default:
			return b.errorf(dslerrors.ErrKindMismatch, "id layer %q field must be int or enum, got %s", b.name, b.field.Kind())
		}
	case LayerSize:
		if _, ok := resolveRefTarget(b.field).(*IntField); !ok {
			return b.errorf(dslerrors.ErrKindMismatch, "size layer %q field must be int, got %s", b.name, b.field.Kind())
		}
	}
	return nil
}

func payloadIndex(layers []Layer) int {
	return slices.IndexFunc(layers, func(l Layer) bool { return l.Role() == LayerPayload })
}

func layerIndex(layers []Layer, name string) int {
	return slices.IndexFunc(layers, func(l Layer) bool { return l.Name() == name })
}

// verifyChecksumRange checks that the from layer precedes the checksum
// and the until layer follows it.
func verifyChecksumRange(b *layerBase, layers []Layer, idx int, from, until string) error {
	payload := payloadIndex(layers)
	if from != "" {
		i := layerIndex(layers, from)
		if i < 0 {
			return b.errorf(dslerrors.ErrUnresolvedRef, "checksum layer %q: from layer %q does not exist", b.name, from)
		}
		if i >= idx {
			return b.errorf(dslerrors.ErrLayerOrder, "checksum layer %q: from layer %q must precede it", b.name, from)
		}
		if payload >= 0 && idx < payload {
			return b.errorf(dslerrors.ErrLayerOrder, "checksum layer %q with from must follow the payload", b.name)
		}
	}
	if until != "" {
		i := layerIndex(layers, until)
		if i < 0 {
			return b.errorf(dslerrors.ErrUnresolvedRef, "checksum layer %q: until layer %q does not exist", b.name, until)
		}
		if i <= idx {
			return b.errorf(dslerrors.ErrLayerOrder, "checksum layer %q: until layer %q must follow it", b.name, until)
		}
		if payload >= 0 && idx > payload {
			return b.errorf(dslerrors.ErrLayerOrder, "checksum layer %q with until must precede the payload", b.name)
		}
	}
	return nil
}

// PayloadLayer marks where the message body sits in the frame.
type PayloadLayer struct{ layerBase }

func (*PayloadLayer) Kind() LayerKind { return LayerPayload }
func (*PayloadLayer) Role() LayerKind { return LayerPayload }

func (l *PayloadLayer) verify(layers []Layer, idx int) error { return verifyCommon(l, layers, idx) }

// IDLayer carries the numeric message id.
type IDLayer struct{ layerBase }

func (*IDLayer) Kind() LayerKind { return LayerID }
func (*IDLayer) Role() LayerKind { return LayerID }

func (l *IDLayer) verify(layers []Layer, idx int) error { return verifyCommon(l, layers, idx) }

// SizeLayer carries the length of the layers that follow it.
type SizeLayer struct{ layerBase }

func (*SizeLayer) Kind() LayerKind { return LayerSize }
func (*SizeLayer) Role() LayerKind { return LayerSize }

func (l *SizeLayer) verify(layers []Layer, idx int) error { return verifyCommon(l, layers, idx) }

// SyncLayer carries a constant synchronization marker.
type SyncLayer struct{ layerBase }

func (*SyncLayer) Kind() LayerKind { return LayerSync }
func (*SyncLayer) Role() LayerKind { return LayerSync }

func (l *SyncLayer) verify(layers []Layer, idx int) error { return verifyCommon(l, layers, idx) }

// ChecksumAlg is a checksum algorithm.
type ChecksumAlg uint8

const (
	AlgSum ChecksumAlg = iota
	AlgCRCCCITT
	AlgCRC16
	AlgCRC32
	AlgCustom
)

var checksumAlgNames = [...]string{
	AlgSum:      "sum",
	AlgCRCCCITT: "crc-ccitt",
	AlgCRC16:    "crc-16",
	AlgCRC32:    "crc-32",
	AlgCustom:   "custom",
}

func (a ChecksumAlg) String() string { return checksumAlgNames[a] }

func parseChecksumAlg(s string) (ChecksumAlg, bool) {
	i := slices.Index(checksumAlgNames[:], strings.ToLower(s))
	if i < 0 {
		return 0, false
	}
	return ChecksumAlg(i), true
}

var checksumLayerSpec = elementSpec{props: []string{"alg", "algName", "from", "until", "verifyBeforeRead"}}

// ChecksumLayer covers a run of layers with a checksum.
type ChecksumLayer struct {
	layerBase
	alg              ChecksumAlg
	algName          string
	from             string
	until            string
	verifyBeforeRead bool
}

func (*ChecksumLayer) Kind() LayerKind { return LayerChecksum }
func (*ChecksumLayer) Role() LayerKind { return LayerChecksum }

func (l *ChecksumLayer) Alg() ChecksumAlg         { return l.alg }
func (l *ChecksumLayer) AlgName() string          { return l.algName }
func (l *ChecksumLayer) From() string             { return l.from }
func (l *ChecksumLayer) Until() string            { return l.until }
func (l *ChecksumLayer) IsVerifyBeforeRead() bool { return l.verifyBeforeRead }

func (l *ChecksumLayer) parseKind(p *props) error {
	v, ok := p.get("alg")
	if !ok {
		return l.errorf(dslerrors.ErrMissingProperty, "checksum layer %q requires alg", l.name)
	}
	alg, valid := parseChecksumAlg(strings.TrimSpace(v.value))
	if !valid {
		return l.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "checksum layer %q: unknown alg %q", l.name, v.value)
	}
	l.alg = alg
	p.setString("algName", &l.algName)
	if alg == AlgCustom && l.algName == "" {
		return l.errorf(dslerrors.ErrMissingProperty, "checksum layer %q: custom alg requires algName", l.name)
	}
	p.setString("from", &l.from)
	p.setString("until", &l.until)
	if (l.from == "") == (l.until == "") {
		return l.errorf(dslerrors.ErrStructure, "checksum layer %q requires exactly one of from and until", l.name)
	}
	return p.setBool("verifyBeforeRead", &l.verifyBeforeRead)
}

func (l *ChecksumLayer) verify(layers []Layer, idx int) error {
	if err := verifyCommon(l, layers, idx); err != nil {
		return err
	}
	return verifyChecksumRange(&l.layerBase, layers, idx, l.from, l.until)
}

var valueLayerSpec = elementSpec{props: []string{"interfaces", "interfaceFieldName", "pseudo"}}

// ValueLayer carries the value of an interface field.
type ValueLayer struct {
	layerBase
	interfaces         []*Interface
	interfaceFieldName string
	pseudo             bool
}

func (*ValueLayer) Kind() LayerKind { return LayerValue }
func (*ValueLayer) Role() LayerKind { return LayerValue }

// Interfaces returns the interfaces the value applies to. An empty list
// means every interface of the schema.
func (l *ValueLayer) Interfaces() []*Interface   { return slices.Clone(l.interfaces) }
func (l *ValueLayer) InterfaceFieldName() string { return l.interfaceFieldName }
func (l *ValueLayer) IsPseudo() bool             { return l.pseudo }

func (l *ValueLayer) parseKind(p *props) error {
	if v, ok := p.get("interfaces"); ok {
		for ref := range strings.SplitSeq(v.value, ",") {
			ref = strings.TrimSpace(ref)
			if ref == "" {
				continue
			}
			iface, err := l.schema.lookupInterface(v.elem, ref)
			if err != nil {
				return err
			}
			l.interfaces = append(l.interfaces, iface)
		}
	}
	p.setString("interfaceFieldName", &l.interfaceFieldName)
	if l.interfaceFieldName == "" {
		return l.errorf(dslerrors.ErrMissingProperty, "value layer %q requires interfaceFieldName", l.name)
	}
	return p.setBool("pseudo", &l.pseudo)
}

func (l *ValueLayer) verify(layers []Layer, idx int) error {
	if err := verifyCommon(l, layers, idx); err != nil {
		return err
	}
	ifaces := l.interfaces
	if len(ifaces) == 0 {
		ifaces = l.schema.interfaces()
	}
	if len(ifaces) == 0 {
		return l.errorf(dslerrors.ErrUnresolvedRef, "value layer %q: no interface defines %q", l.name, l.interfaceFieldName)
	}
	for _, iface := range ifaces {
		if iface.Field(l.interfaceFieldName) == nil {
			return l.errorf(dslerrors.ErrUnresolvedRef, "value layer %q: interface %q has no field %q",
				l.name, iface.Name(), l.interfaceFieldName)
		}
	}
	return nil
}

var customLayerSpec = elementSpec{props: []string{"semanticLayerType", "idReplacement", "checksumFrom", "checksumUntil"}}

// CustomLayer is implemented by generator code. It may assume the
// semantics of a built-in kind.
type CustomLayer struct {
	layerBase
	role          LayerKind
	checksumFrom  string
	checksumUntil string
}

func (*CustomLayer) Kind() LayerKind { return LayerCustom }

// Role returns the assumed semantic kind, custom when none.
func (l *CustomLayer) Role() LayerKind { return l.role }

func (l *CustomLayer) ChecksumFrom() string  { return l.checksumFrom }
func (l *CustomLayer) ChecksumUntil() string { return l.checksumUntil }

func (l *CustomLayer) parseKind(p *props) error {
	l.role = LayerCustom
	if v, ok := p.get("semanticLayerType"); ok {
		role, valid := parseLayerKind(strings.TrimSpace(v.value))
		if !valid {
			return l.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "custom layer %q: unknown semanticLayerType %q", l.name, v.value)
		}
		l.role = role
	}
	idReplacement, present, err := p.boolean("idReplacement")
	if err != nil {
		return err
	}
	if present && idReplacement {
		if p.has("semanticLayerType") && l.role != LayerID {
			return l.errorf(dslerrors.ErrInvalidValue, "custom layer %q: idReplacement conflicts with semanticLayerType %q", l.name, l.role)
		}
		l.role = LayerID
	}
	p.setString("checksumFrom", &l.checksumFrom)
	p.setString("checksumUntil", &l.checksumUntil)
	if l.checksumFrom != "" && l.checksumUntil != "" {
		return l.errorf(dslerrors.ErrStructure, "custom layer %q: checksumFrom and checksumUntil are mutually exclusive", l.name)
	}
	if (l.checksumFrom != "" || l.checksumUntil != "") && l.role != LayerChecksum {
		return l.errorf(dslerrors.ErrStructure, "custom layer %q: checksumFrom and checksumUntil need the checksum semantic type", l.name)
	}
	return nil
}

func (l *CustomLayer) verify(layers []Layer, idx int) error {
	if err := verifyCommon(l, layers, idx); err != nil {
		return err
	}
	if l.role == LayerChecksum {
		return verifyChecksumRange(&l.layerBase, layers, idx, l.checksumFrom, l.checksumUntil)
	}
	return nil
}

func layerSpecFor(kind LayerKind) elementSpec {
	switch kind {
	case LayerChecksum:
		return commonLayerSpec.with(checksumLayerSpec)
	case LayerValue:
		return commonLayerSpec.with(valueLayerSpec)
	case LayerCustom:
		return commonLayerSpec.with(customLayerSpec)
	}
	return commonLayerSpec
}

func newLayerOfKind(kind LayerKind) Layer {
	switch kind {
	case LayerPayload:
		return &PayloadLayer{}
	case LayerID:
		return &IDLayer{}
	case LayerSize:
		return &SizeLayer{}
	case LayerSync:
		return &SyncLayer{}
	case LayerChecksum:
		return &ChecksumLayer{}
	case LayerValue:
		return &ValueLayer{}
	default:
		return &CustomLayer{}
	}
}

func isLayerElement(name string) bool {
	_, ok := parseLayerKind(name)
	return ok
}

func (s *Schema) newLayer(elem xmlnode.Element, frame *Frame) (Layer, error) {
	kind, ok := parseLayerKind(elem.Name())
	if !ok {
		return nil, s.errorf(elem, dslerrors.ErrStructure, "unknown layer kind <%s>", elem.Name())
	}
	p, err := s.readProps(elem, layerSpecFor(kind))
	if err != nil {
		return nil, err
	}
	l := newLayerOfKind(kind)
	b := l.base()
	b.frame, b.schema, b.elem = frame, s, elem
	p.setString("name", &b.name)
	if !IsValidName(b.name) {
		return nil, s.errorf(elem, dslerrors.ErrInvalidName, "invalid layer name %q", b.name)
	}
	p.setString("description", &b.description)
	b.extraAttrs = p.extraAttrs
	b.extraChildren = p.extraChildren
	if err := b.parseField(p, l); err != nil {
		return nil, err
	}
	if err := l.parseKind(p); err != nil {
		return nil, err
	}
	return l, nil
}
