package model

import "strings"

// SchemaRefPrefix selects a schema by name at the start of a reference.
const SchemaRefPrefix = '@'

// IsValidName reports whether s is a valid entity name: a letter or
// underscore followed by letters, digits or underscores.
func IsValidName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// IsValidRefName reports whether s is a well-formed dotted reference,
// optionally starting with the schema selector.
func IsValidRefName(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == SchemaRefPrefix {
		s = s[1:]
		if s == "" {
			return false
		}
	}
	for _, part := range strings.Split(s, ".") {
		if !IsValidName(part) {
			return false
		}
	}
	return true
}

// splitRef splits "a.b.c" into its segments, dropping any schema selector.
// The selected schema name is returned separately.
func splitRef(ref string) (schemaName string, hasSchema bool, parts []string) {
	if ref != "" && ref[0] == SchemaRefPrefix {
		rest := ref[1:]
		idx := strings.IndexByte(rest, '.')
		if idx < 0 {
			return rest, true, nil
		}
		return rest[:idx], true, strings.Split(rest[idx+1:], ".")
	}
	if ref == "" {
		return "", false, nil
	}
	return "", false, strings.Split(ref, ".")
}

// splitFirst splits a dotted path into its first segment and the rest.
func splitFirst(path string) (string, string) {
	if idx := strings.IndexByte(path, '.'); idx >= 0 {
		return path[:idx], path[idx+1:]
	}
	return path, ""
}

// lessName orders names by their first letter case-insensitively, then by
// the full name.
func lessName(a, b string) bool {
	la, lb := firstLower(a), firstLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func compareName(a, b string) int {
	switch {
	case lessName(a, b):
		return -1
	case lessName(b, a):
		return 1
	}
	return 0
}

func firstLower(s string) byte {
	if s == "" {
		return 0
	}
	c := s[0]
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	return c
}
