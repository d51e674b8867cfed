package model

import (
	"slices"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// Namespace is a scope of fields, messages, interfaces, frames and nested
// namespaces. The schema's default namespace has an empty name.
type Namespace struct {
	parent      Entity
	schema      *Schema
	elem        xmlnode.Element
	name        string
	description string

	namespaces map[string]*Namespace
	fields     map[string]Field
	messages   map[string]*Message
	interfaces map[string]*Interface
	frames     map[string]*Frame

	// definition order, used for the schema-wide message walk
	messageList []*Message

	extraAttrs    []ExtraAttr
	extraChildren []xmlnode.Element
}

func newNamespace(s *Schema, parent Entity, name string) *Namespace {
	return &Namespace{
		parent:     parent,
		schema:     s,
		name:       name,
		namespaces: make(map[string]*Namespace),
		fields:     make(map[string]Field),
		messages:   make(map[string]*Message),
		interfaces: make(map[string]*Interface),
		frames:     make(map[string]*Frame),
	}
}

// Name returns the namespace name.
func (ns *Namespace) Name() string { return ns.name }

// Parent returns the enclosing namespace, or the schema for top-level ones.
func (ns *Namespace) Parent() Entity { return ns.parent }

// Schema returns the owning schema.
func (ns *Namespace) Schema() *Schema { return ns.schema }

// Description returns the namespace description.
func (ns *Namespace) Description() string { return ns.description }

// ExternalRef returns the dotted namespace path.
func (ns *Namespace) ExternalRef(schemaRef bool) string { return externalRef(ns, schemaRef) }

// ExtraAttributes returns the uninterpreted attributes of every declaration.
func (ns *Namespace) ExtraAttributes() []ExtraAttr { return slices.Clone(ns.extraAttrs) }

// ExtraChildren returns the uninterpreted children of every declaration.
func (ns *Namespace) ExtraChildren() []xmlnode.Element { return slices.Clone(ns.extraChildren) }

// Namespaces returns the child namespaces ordered by name.
func (ns *Namespace) Namespaces() []*Namespace { return sortedValues(ns.namespaces) }

// Fields returns the fields ordered by name.
func (ns *Namespace) Fields() []Field { return sortedValues(ns.fields) }

// Messages returns the messages ordered by name.
func (ns *Namespace) Messages() []*Message { return sortedValues(ns.messages) }

// Interfaces returns the interfaces ordered by name.
func (ns *Namespace) Interfaces() []*Interface { return sortedValues(ns.interfaces) }

// Frames returns the frames ordered by name.
func (ns *Namespace) Frames() []*Frame { return sortedValues(ns.frames) }

// Namespace returns the child namespace with the name.
func (ns *Namespace) Namespace(name string) *Namespace { return ns.namespaces[name] }

// Field returns the field with the name.
func (ns *Namespace) Field(name string) Field { return ns.fields[name] }

// Message returns the message with the name.
func (ns *Namespace) Message(name string) *Message { return ns.messages[name] }

// Interface returns the interface with the name.
func (ns *Namespace) Interface(name string) *Interface { return ns.interfaces[name] }

// Frame returns the frame with the name.
func (ns *Namespace) Frame(name string) *Frame { return ns.frames[name] }

func sortedValues[V Entity](m map[string]V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b V) int { return compareName(a.Name(), b.Name()) })
	return out
}

// walk visits ns and every nested namespace depth first in name order.
func (ns *Namespace) walk(fn func(*Namespace)) {
	fn(ns)
	for _, child := range ns.Namespaces() {
		child.walk(fn)
	}
}

var namespaceSpec = elementSpec{
	props: []string{"name", "description"},
	children: []string{
		"fields", "messages", "message", "interfaces", "interface",
		"frames", "frame", "ns",
	},
}

// processNamespace merges an <ns> element into the child namespace of
// parent with the same name.
func (s *Schema) processNamespace(parent *Namespace, elem xmlnode.Element) {
	p, err := s.readProps(elem, namespaceSpec)
	if err != nil {
		return
	}
	name, _ := p.str("name")
	if !IsValidName(name) {
		s.errorf(elem, dslerrors.ErrInvalidName, "invalid namespace name %q", name)
		return
	}
	ns, exists := parent.namespaces[name]
	if !exists {
		owner := Entity(parent)
		if parent == s.root {
			owner = s
		}
		ns = newNamespace(s, owner, name)
		ns.elem = elem
		parent.namespaces[name] = ns
	}
	if desc, ok := p.str("description"); ok && desc != ns.description {
		if ns.description == "" {
			ns.description = desc
		} else {
			s.warnf(elem, dslerrors.WarnFirstWins,
				"namespace %q: description differs from the first declaration, keeping the first", ns.ExternalRef(false))
		}
	}
	ns.extraAttrs = append(ns.extraAttrs, p.extraAttrs...)
	ns.extraChildren = append(ns.extraChildren, p.extraChildren...)
	s.processChildren(ns, p.children)
}

func (ns *Namespace) duplicate(elem xmlnode.Element, what, name string) error {
	return ns.schema.errorf(elem, dslerrors.ErrDuplicateName, "%s %q already defined in namespace %q", what, name, ns.ExternalRef(false))
}

func (ns *Namespace) addField(elem xmlnode.Element) error {
	f, err := ns.schema.newField(elem, ns)
	if err != nil {
		return err
	}
	if _, dup := ns.fields[f.Name()]; dup {
		return ns.duplicate(elem, "field", f.Name())
	}
	ns.fields[f.Name()] = f
	return nil
}

func (ns *Namespace) addMessage(elem xmlnode.Element) error {
	m, err := ns.schema.newMessage(elem, ns)
	if err != nil {
		return err
	}
	if _, dup := ns.messages[m.Name()]; dup {
		return ns.duplicate(elem, "message", m.Name())
	}
	ns.messages[m.Name()] = m
	ns.messageList = append(ns.messageList, m)
	return nil
}

func (ns *Namespace) addInterface(elem xmlnode.Element) error {
	iface, err := ns.schema.newInterface(elem, ns)
	if err != nil {
		return err
	}
	if _, dup := ns.interfaces[iface.Name()]; dup {
		return ns.duplicate(elem, "interface", iface.Name())
	}
	ns.interfaces[iface.Name()] = iface
	return nil
}

func (ns *Namespace) addFrame(elem xmlnode.Element) error {
	fr, err := ns.schema.newFrame(elem, ns)
	if err != nil {
		return err
	}
	if _, dup := ns.frames[fr.Name()]; dup {
		return ns.duplicate(elem, "frame", fr.Name())
	}
	ns.frames[fr.Name()] = fr
	return nil
}
