package model

import (
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/dslversion"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// descend follows a chain of child namespace names.
func (ns *Namespace) descend(parts []string) *Namespace {
	cur := ns
	for _, part := range parts {
		cur = cur.namespaces[part]
		if cur == nil {
			return nil
		}
	}
	return cur
}

// splits offers every (namespace, remainder) split of parts to fn, longest
// namespace path first, until fn accepts one.
func (s *Schema) splits(parts []string, fn func(ns *Namespace, rest []string) bool) bool {
	for i := len(parts) - 1; i >= 0; i-- {
		ns := s.root.descend(parts[:i])
		if ns != nil && fn(ns, parts[i:]) {
			return true
		}
	}
	return false
}

func (p *Protocol) scope(ref string, from *Schema) (*Schema, []string, bool) {
	if !IsValidRefName(ref) {
		return nil, nil, false
	}
	s, parts, ok := p.resolveSchema(ref, from)
	if !ok || len(parts) == 0 {
		return nil, nil, false
	}
	return s, parts, true
}

func (p *Protocol) findField(ref string, from *Schema) Field {
	s, parts, ok := p.scope(ref, from)
	if !ok {
		return nil
	}
	var found Field
	s.splits(parts, func(ns *Namespace, rest []string) bool {
		f := ns.fields[rest[0]]
		if f == nil {
			return false
		}
		if len(rest) == 1 {
			found = f
			return true
		}
		r, ok := f.innerRef(strings.Join(rest[1:], "."))
		if !ok || r.Type != RefValue {
			return false
		}
		found = r.Field
		return true
	})
	return found
}

func findEntity[V any](p *Protocol, ref string, from *Schema, pick func(*Namespace) map[string]V) (V, bool) {
	var zero V
	s, parts, ok := p.scope(ref, from)
	if !ok {
		return zero, false
	}
	ns := s.root.descend(parts[:len(parts)-1])
	if ns == nil {
		return zero, false
	}
	v, ok := pick(ns)[parts[len(parts)-1]]
	return v, ok
}

// FindField resolves an external field reference such as "ns.Field",
// "ns.Bundle.member" or "@Schema.ns.Field". References without a schema
// selector resolve against the last schema.
func (p *Protocol) FindField(ref string) Field {
	return p.findField(ref, nil)
}

// FindMessage resolves an external message reference.
func (p *Protocol) FindMessage(ref string) *Message {
	m, _ := findEntity(p, ref, nil, func(ns *Namespace) map[string]*Message { return ns.messages })
	return m
}

// FindInterface resolves an external interface reference.
func (p *Protocol) FindInterface(ref string) *Interface {
	i, _ := findEntity(p, ref, nil, func(ns *Namespace) map[string]*Interface { return ns.interfaces })
	return i
}

// FindFrame resolves an external frame reference.
func (p *Protocol) FindFrame(ref string) *Frame {
	f, _ := findEntity(p, ref, nil, func(ns *Namespace) map[string]*Frame { return ns.frames })
	return f
}

// FindNamespace resolves a dotted namespace path. The empty path, or a bare
// schema selector, selects the default namespace.
func (p *Protocol) FindNamespace(ref string) *Namespace {
	if ref == "" {
		if s := p.LastSchema(); s != nil {
			return s.root
		}
		return nil
	}
	schemaName, hasSchema, parts := splitRef(ref)
	if hasSchema && len(parts) == 0 {
		if s := p.Schema(schemaName); s != nil {
			return s.root
		}
		return nil
	}
	if !IsValidRefName(ref) {
		return nil
	}
	s, parts, ok := p.resolveSchema(ref, nil)
	if !ok {
		return nil
	}
	return s.root.descend(parts)
}

// checkRef rejects malformed references and schema selectors the DSL
// version does not know. It returns nil for a usable reference.
func (s *Schema) checkRef(elem xmlnode.Element, what, ref string) error {
	if !IsValidRefName(ref) {
		return s.errorf(elem, dslerrors.ErrInvalidValue, "malformed %s reference %q", what, ref)
	}
	if ref[0] == SchemaRefPrefix && !dslversion.Supported(dslversion.MultiSchema, s.dslVersion) {
		return s.errorf(elem, dslerrors.ErrVersion, "%s reference %q: schema selectors require DSL version %d",
			what, ref, dslversion.MultiSchema.MinVersion())
	}
	return nil
}

func (s *Schema) lookupField(elem xmlnode.Element, ref string) (Field, error) {
	if err := s.checkRef(elem, "field", ref); err != nil {
		return nil, err
	}
	f := s.proto.findField(ref, s)
	if f == nil {
		return nil, s.errorf(elem, dslerrors.ErrUnresolvedRef, "field %q is not defined", ref)
	}
	return f, nil
}

func (s *Schema) lookupMessage(elem xmlnode.Element, ref string) (*Message, error) {
	if err := s.checkRef(elem, "message", ref); err != nil {
		return nil, err
	}
	m, ok := findEntity(s.proto, ref, s, func(ns *Namespace) map[string]*Message { return ns.messages })
	if !ok {
		return nil, s.errorf(elem, dslerrors.ErrUnresolvedRef, "message %q is not defined", ref)
	}
	return m, nil
}

func (s *Schema) lookupInterface(elem xmlnode.Element, ref string) (*Interface, error) {
	if err := s.checkRef(elem, "interface", ref); err != nil {
		return nil, err
	}
	i, ok := findEntity(s.proto, ref, s, func(ns *Namespace) map[string]*Interface { return ns.interfaces })
	if !ok {
		return nil, s.errorf(elem, dslerrors.ErrUnresolvedRef, "interface %q is not defined", ref)
	}
	return i, nil
}

// interfaces returns every interface of the schema.
func (s *Schema) interfaces() []*Interface {
	var out []*Interface
	s.root.walk(func(ns *Namespace) {
		out = append(out, ns.Interfaces()...)
	})
	return out
}
