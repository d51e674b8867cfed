package model

import (
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/dslversion"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// Alias is an alternative name for a field or an inner member of one.
type Alias struct {
	parent      Entity
	elem        xmlnode.Element
	name        string
	description string
	fieldPath   string
	target      FieldRef
}

// Name returns the alias name.
func (a *Alias) Name() string { return a.name }

// Parent returns the message, interface or bundle owning the alias.
func (a *Alias) Parent() Entity { return a.parent }

// Description returns the alias description.
func (a *Alias) Description() string { return a.description }

// FieldPath returns the dotted path without the leading '$'.
func (a *Alias) FieldPath() string { return a.fieldPath }

// Target returns the resolved field reference.
func (a *Alias) Target() FieldRef { return a.target }

var aliasSpec = elementSpec{props: []string{"name", "description", "field"}}

// parseAliases reads the <alias> children of p and resolves them against
// fields. existing aliases keep their names reserved.
func (s *Schema) parseAliases(owner Entity, p *props, fields []Field, existing []*Alias) ([]*Alias, error) {
	elems := p.childrenNamed("alias")
	if len(elems) == 0 {
		return existing, nil
	}
	if !dslversion.Supported(dslversion.FieldAlias, s.dslVersion) {
		s.warnf(elems[0], dslerrors.WarnUnsupportedProperty, "<alias> requires DSL version %d, ignored",
			dslversion.FieldAlias.MinVersion())
		return existing, nil
	}
	out := existing
	for _, elem := range elems {
		ap, err := s.readProps(elem, aliasSpec)
		if err != nil {
			return nil, err
		}
		a := &Alias{parent: owner, elem: elem}
		ap.setString("name", &a.name)
		ap.setString("description", &a.description)
		if !IsValidName(a.name) {
			return nil, s.errorf(elem, dslerrors.ErrInvalidName, "invalid alias name %q", a.name)
		}
		if findByName(fields, a.name) != nil || findAlias(out, a.name) != nil {
			return nil, s.errorf(elem, dslerrors.ErrDuplicateName, "alias %q clashes with an existing name in %q", a.name, owner.Name())
		}
		path, _ := ap.str("field")
		rest, ok := strings.CutPrefix(strings.TrimSpace(path), "$")
		if !ok || rest == "" {
			return nil, s.errorf(elem, dslerrors.ErrInvalidValue, "alias %q: field must be a $ reference, got %q", a.name, path)
		}
		a.fieldPath = rest
		if err := a.resolve(s, fields); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (a *Alias) resolve(s *Schema, fields []Field) error {
	r, ok := resolveSibling(fields, a.fieldPath, RefValue)
	if !ok {
		return s.errorf(a.elem, dslerrors.ErrUnresolvedRef, "alias %q: field $%s does not resolve", a.name, a.fieldPath)
	}
	a.target = r
	return nil
}

// rebindAliases copies aliases for a new owner and resolves them against
// its fields.
func rebindAliases(s *Schema, aliases []*Alias, owner Entity, fields []Field) ([]*Alias, error) {
	if len(aliases) == 0 {
		return nil, nil
	}
	out := make([]*Alias, 0, len(aliases))
	for _, a := range aliases {
		cp := *a
		cp.parent = owner
		if findByName(fields, cp.name) != nil {
			return nil, s.errorf(cp.elem, dslerrors.ErrDuplicateName, "alias %q clashes with a field of %q", cp.name, owner.Name())
		}
		if err := cp.resolve(s, fields); err != nil {
			return nil, err
		}
		out = append(out, &cp)
	}
	return out, nil
}

func findAlias(aliases []*Alias, name string) *Alias {
	for _, a := range aliases {
		if a.name == name {
			return a
		}
	}
	return nil
}
