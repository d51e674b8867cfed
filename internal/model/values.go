package model

import "strings"

// lookupValue resolves ref to a field and asks get for the value named by
// the rest of the path. Longer namespace prefixes are tried first.
func lookupValue[V any](p *Protocol, ref string, from *Schema, get func(f Field, rest string) (V, bool)) (V, bool) {
	var out V
	s, parts, ok := p.scope(strings.TrimSpace(ref), from)
	if !ok {
		return out, false
	}
	found := s.splits(parts, func(ns *Namespace, rest []string) bool {
		f := ns.fields[rest[0]]
		if f == nil {
			return false
		}
		v, ok := get(f, strings.Join(rest[1:], "."))
		if ok {
			out = v
		}
		return ok
	})
	return out, found
}

type numericResult struct {
	value int64
	big   bool
}

func (p *Protocol) strToNumeric(ref string, from *Schema) (int64, bool, bool) {
	r, ok := lookupValue(p, ref, from, func(f Field, rest string) (numericResult, bool) {
		v, big, ok := f.numericValue(rest)
		return numericResult{v, big}, ok
	})
	return r.value, r.big, ok
}

func (p *Protocol) strToFloat(ref string, from *Schema) (float64, bool) {
	return lookupValue(p, ref, from, func(f Field, rest string) (float64, bool) {
		if v, ok := f.floatValue(rest); ok {
			return v, true
		}
		v, big, ok := f.numericValue(rest)
		if big {
			return float64(uint64(v)), ok
		}
		return float64(v), ok
	})
}

func (p *Protocol) strToBool(ref string, from *Schema) (bool, bool) {
	return lookupValue(p, ref, from, Field.boolValue)
}

func (p *Protocol) strToString(ref string, from *Schema) (string, bool) {
	return lookupValue(p, ref, from, Field.stringValue)
}

func (p *Protocol) strToData(ref string, from *Schema) ([]byte, bool) {
	return lookupValue(p, ref, from, Field.dataValue)
}

// StrToNumeric resolves a reference such as "ns.Enum.Value" or
// "ns.Int.Special" to an integer. big reports an unsigned value above
// MaxInt64, returned reinterpreted as int64.
func (p *Protocol) StrToNumeric(ref string) (value int64, big, ok bool) {
	return p.strToNumeric(ref, p.LastSchema())
}

// StrToFloat resolves a reference to a floating point value. Integer
// references convert.
func (p *Protocol) StrToFloat(ref string) (float64, bool) {
	return p.strToFloat(ref, p.LastSchema())
}

// StrToBool resolves a reference to a boolean, such as a set bit default.
func (p *Protocol) StrToBool(ref string) (bool, bool) {
	return p.strToBool(ref, p.LastSchema())
}

// StrToString resolves a reference to the default value of a string field.
func (p *Protocol) StrToString(ref string) (string, bool) {
	return p.strToString(ref, p.LastSchema())
}

// StrToData resolves a reference to the default value of a data field.
func (p *Protocol) StrToData(ref string) ([]byte, bool) {
	return p.strToData(ref, p.LastSchema())
}
