package model

import (
	"cmp"
	"slices"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// ValidRange is a valid value interval together with the protocol versions
// it applies to.
type ValidRange[T int64 | float64] struct {
	Min             T
	Max             T
	SinceVersion    uint
	DeprecatedSince uint
}

// normalizeRanges merges touching or overlapping ranges that share a
// version window and orders the result by (min, max, since).
func normalizeRanges[T int64 | float64](ranges []ValidRange[T], compare func(a, b T) int, adjacent func(hi, next T) bool) []ValidRange[T] {
	if len(ranges) == 0 {
		return nil
	}
	work := slices.Clone(ranges)
	slices.SortStableFunc(work, func(a, b ValidRange[T]) int {
		return cmp.Or(
			cmp.Compare(a.SinceVersion, b.SinceVersion),
			cmp.Compare(a.DeprecatedSince, b.DeprecatedSince),
			compare(a.Min, b.Min),
			compare(a.Max, b.Max),
		)
	})

	merged := make([]bool, len(work))
	cur := 0
	for i := 1; i < len(work); i++ {
		head, next := &work[cur], work[i]
		sameWindow := head.SinceVersion == next.SinceVersion && head.DeprecatedSince == next.DeprecatedSince
		if sameWindow && adjacent(head.Max, next.Min) {
			if compare(next.Max, head.Max) > 0 {
				head.Max = next.Max
			}
			merged[i] = true
			continue
		}
		cur = i
	}

	out := make([]ValidRange[T], 0, len(work))
	for i, r := range work {
		if !merged[i] {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b ValidRange[T]) int {
		return cmp.Or(
			compare(a.Min, b.Min),
			compare(a.Max, b.Max),
			cmp.Compare(a.SinceVersion, b.SinceVersion),
		)
	})
	return out
}

// flattenWindows drops the version windows so that ranges merge
// regardless of the versions they were declared for.
func flattenWindows[T int64 | float64](ranges []ValidRange[T]) {
	for i := range ranges {
		ranges[i].SinceVersion = 0
		ranges[i].DeprecatedSince = NotYetDeprecated
	}
}

type rangeKind uint8

const (
	rangeInterval rangeKind = iota
	rangeValue
	rangeMin
	rangeMax
)

// rawRange is one declared range before conversion to the field's value
// domain.
type rawRange struct {
	kind  rangeKind
	lo    string
	hi    string
	elem  xmlnode.Element
	since uint
	dep   uint
}

var validRangeProps = []string{"validRange", "validValue", "validMin", "validMax"}

// collectRanges gathers the valid* declarations of p. Child element forms
// may narrow the window with sinceVersion and deprecated attributes.
func (b *fieldBase) collectRanges(p *props) ([]rawRange, error) {
	var out []rawRange
	for _, prop := range validRangeProps {
		for _, v := range p.all(prop) {
			r := rawRange{elem: v.elem, since: b.sinceVersion, dep: b.deprecatedSince}
			if v.elem != p.elem {
				if err := b.rangeWindow(v.elem, &r); err != nil {
					return nil, err
				}
			}
			switch prop {
			case "validRange":
				lo, hi, ok := splitRangeText(v.value)
				if !ok {
					return nil, b.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid range %q", b.name, v.value)
				}
				r.kind, r.lo, r.hi = rangeInterval, lo, hi
			case "validValue":
				r.kind, r.lo, r.hi = rangeValue, strings.TrimSpace(v.value), strings.TrimSpace(v.value)
			case "validMin":
				r.kind, r.lo = rangeMin, strings.TrimSpace(v.value)
			case "validMax":
				r.kind, r.hi = rangeMax, strings.TrimSpace(v.value)
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *fieldBase) rangeWindow(elem xmlnode.Element, r *rawRange) error {
	p := &props{elem: elem, single: make(map[string]propValue), schema: b.schema}
	for _, name := range []string{"sinceVersion", "deprecated"} {
		if v, ok := elem.Attribute(name); ok {
			p.single[name] = propValue{value: v, elem: elem}
		}
	}
	if err := p.setUint("sinceVersion", &r.since); err != nil {
		return err
	}
	if err := p.setUint("deprecated", &r.dep); err != nil {
		return err
	}
	return checkVersionWindow(b.schema, elem, "valid range of field "+b.name, r.since, r.dep, false, b.sinceVersion, b.deprecatedSince)
}

// splitRangeText splits "[lo, hi]" into its bounds.
func splitRangeText(s string) (lo, hi string, ok bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}
	lo, hi, found := strings.Cut(s, ",")
	if !found {
		return "", "", false
	}
	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
	return lo, hi, lo != "" && hi != ""
}
