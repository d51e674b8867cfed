package model

import (
	"slices"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/dslversion"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

var interfaceSpec = elementSpec{
	props:         []string{"name", "displayName", "description", "copyFieldsFrom", "reuse", "reuseAliases", "reuseCode", "copyCodeFrom"},
	children:      []string{"fields", "alias", "replace"},
	fieldChildren: true,
}

// Interface describes the transport fields shared by every message, such
// as a version or flags carried by the frame.
type Interface struct {
	parent Entity
	schema *Schema
	elem   xmlnode.Element

	name         string
	displayName  string
	description  string
	reuseCode    bool
	copyCodeFrom string

	fields  []Field
	aliases []*Alias

	reusedFrom *Interface

	extraAttrs    []ExtraAttr
	extraChildren []xmlnode.Element
}

func (i *Interface) Name() string                     { return i.name }
func (i *Interface) Parent() Entity                   { return i.parent }
func (i *Interface) Schema() *Schema                  { return i.schema }
func (i *Interface) Description() string              { return i.description }
func (i *Interface) Fields() []Field                  { return slices.Clone(i.fields) }
func (i *Interface) Aliases() []*Alias                { return slices.Clone(i.aliases) }
func (i *Interface) ReusedFrom() *Interface           { return i.reusedFrom }
func (i *Interface) IsReuseCode() bool                { return i.reuseCode }
func (i *Interface) CopyCodeFrom() string             { return i.copyCodeFrom }
func (i *Interface) ExtraAttributes() []ExtraAttr     { return slices.Clone(i.extraAttrs) }
func (i *Interface) ExtraChildren() []xmlnode.Element { return slices.Clone(i.extraChildren) }

// DisplayName returns the display name, defaulting to the name.
func (i *Interface) DisplayName() string {
	if i.displayName == "" {
		return i.name
	}
	return i.displayName
}

// ExternalRef returns the dotted path resolving back to the interface.
func (i *Interface) ExternalRef(schemaRef bool) string { return externalRef(i, schemaRef) }

// Field returns the interface field called name, or nil.
func (i *Interface) Field(name string) Field { return findByName(i.fields, name) }

func (s *Schema) newInterface(elem xmlnode.Element, ns *Namespace) (*Interface, error) {
	p, err := s.readProps(elem, interfaceSpec)
	if err != nil {
		return nil, err
	}
	iface := &Interface{parent: ns, schema: s, elem: elem}
	reuseAliases := true
	if err := p.setBool("reuseAliases", &reuseAliases); err != nil {
		return nil, err
	}
	if v, ok := p.get("reuse"); ok {
		if !dslversion.Supported(dslversion.InterfaceReuse, s.dslVersion) {
			s.warnf(v.elem, dslerrors.WarnUnsupportedProperty, "interface reuse requires DSL version %d, ignored",
				dslversion.InterfaceReuse.MinVersion())
		} else {
			src, err := s.lookupInterface(v.elem, strings.TrimSpace(v.value))
			if err != nil {
				return nil, err
			}
			iface.description = src.description
			iface.displayName = src.displayName
			iface.reuseCode = src.reuseCode
			iface.copyCodeFrom = src.copyCodeFrom
			iface.fields = cloneFields(src.fields, iface)
			if reuseAliases {
				iface.aliases = src.aliases
			}
			iface.reusedFrom = src
		}
	}
	p.setString("name", &iface.name)
	if !IsValidName(iface.name) {
		return nil, s.errorf(elem, dslerrors.ErrInvalidName, "invalid interface name %q", iface.name)
	}
	p.setString("displayName", &iface.displayName)
	p.setString("description", &iface.description)
	p.setString("copyCodeFrom", &iface.copyCodeFrom)
	if err := p.setBool("reuseCode", &iface.reuseCode); err != nil {
		return nil, err
	}
	if v, ok := p.get("copyFieldsFrom"); ok {
		if iface.reusedFrom != nil {
			return nil, s.errorf(v.elem, dslerrors.ErrStructure, "interface %q: reuse and copyFieldsFrom are mutually exclusive", iface.name)
		}
		fields, aliases, err := s.copyFieldsFrom(v.elem, strings.TrimSpace(v.value), iface)
		if err != nil {
			return nil, err
		}
		iface.fields = fields
		if reuseAliases {
			iface.aliases = aliases
		}
	}
	fields, err := s.replaceMembers(iface, iface.fields, p)
	if err != nil {
		return nil, err
	}
	elems, err := s.memberElements(p, "fields")
	if err != nil {
		return nil, err
	}
	if iface.fields, err = s.appendMembers(iface, fields, elems); err != nil {
		return nil, err
	}
	if iface.aliases, err = rebindAliases(s, iface.aliases, iface, iface.fields); err != nil {
		return nil, err
	}
	if iface.aliases, err = s.parseAliases(iface, p, iface.fields, iface.aliases); err != nil {
		return nil, err
	}
	iface.extraAttrs = p.extraAttrs
	iface.extraChildren = p.extraChildren
	return iface, nil
}
