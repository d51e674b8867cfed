package model

import "strings"

// RefType classifies what a resolved field reference denotes.
type RefType uint8

const (
	// RefValue denotes the field value.
	RefValue RefType = iota
	// RefSize denotes the serialized size of the field.
	RefSize
	// RefExists denotes the presence of the field.
	RefExists
	// RefBit denotes one bit of a set field.
	RefBit
)

// String returns a readable name of the reference type.
func (t RefType) String() string {
	switch t {
	case RefSize:
		return "size"
	case RefExists:
		return "exists"
	case RefBit:
		return "bit"
	default:
		return "field"
	}
}

// FieldRef is the result of resolving a path inside a field.
type FieldRef struct {
	Field Field
	Type  RefType
	// Bit is the set bit name for RefBit references.
	Bit string
}

// ResolveRef resolves a dotted path relative to f. A leading '#' selects a
// size reference and a leading '?' an exists reference; both are only
// valid when the target kind supports them.
func ResolveRef(f Field, path string) (FieldRef, bool) {
	t := RefValue
	switch {
	case strings.HasPrefix(path, "#"):
		t, path = RefSize, path[1:]
	case strings.HasPrefix(path, "?"):
		t, path = RefExists, path[1:]
	}
	return resolveTyped(f, path, t)
}

func resolveTyped(f Field, path string, t RefType) (FieldRef, bool) {
	r := FieldRef{Field: f, Type: RefValue}
	if path != "" {
		var ok bool
		r, ok = f.innerRef(path)
		if !ok {
			return FieldRef{}, false
		}
	}
	if t == RefValue {
		return r, true
	}
	if r.Type != RefValue || !r.Field.supportsRef(t) {
		return FieldRef{}, false
	}
	r.Type = t
	return r, true
}

// resolveSibling resolves "name.inner.path" against a sibling list.
func resolveSibling(siblings []Field, path string, t RefType) (FieldRef, bool) {
	first, rest := splitFirst(path)
	f := findByName(siblings, first)
	if f == nil {
		return FieldRef{}, false
	}
	return resolveTyped(f, rest, t)
}

// memberRef resolves a path that starts with a member name.
func memberRef(members []Field, path string) (FieldRef, bool) {
	return resolveSibling(members, path, RefValue)
}

func existsCapable(b *fieldBase) bool {
	return b.sinceVersion != 0 || b.deprecatedSince != NotYetDeprecated
}
