package model

import (
	"strconv"
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/num"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

var listSpec = elementSpec{
	props: []string{
		"element", "count", "countPrefix", "lengthPrefix", "elemLengthPrefix",
		"elemFixedLength", "termSuffix",
	},
	children:      []string{"element", "countPrefix", "lengthPrefix", "elemLengthPrefix", "termSuffix"},
	fieldChildren: true,
}

var (
	elementRule          = slotRule{name: "element"}
	countPrefixRule      = slotRule{name: "countPrefix", intOnly: true}
	elemLengthPrefixRule = slotRule{name: "elemLengthPrefix", intOnly: true}
	termSuffixRule       = slotRule{name: "termSuffix"}
)

// ListField is a sequence of elements of one field type.
type ListField struct {
	fieldBase

	element          fieldSlot
	count            int
	countPrefix      fieldSlot
	lengthPrefix     fieldSlot
	elemLengthPrefix fieldSlot
	elemFixedLength  bool
	termSuffix       fieldSlot
}

func newListField() *ListField {
	return &ListField{fieldBase: newFieldBase()}
}

// Kind returns KindList.
func (f *ListField) Kind() Kind { return KindList }

// ElementField returns the element field and its slot state.
func (f *ListField) ElementField() (Field, SlotState) {
	return f.element.field(), f.element.state()
}

// FixedCount returns the fixed element count, 0 when not fixed.
func (f *ListField) FixedCount() int { return f.count }

// CountPrefix returns the count prefix field and its slot state.
func (f *ListField) CountPrefix() (Field, SlotState) {
	return f.countPrefix.field(), f.countPrefix.state()
}

// LengthPrefix returns the length prefix field and its slot state.
func (f *ListField) LengthPrefix() (Field, SlotState) {
	return f.lengthPrefix.field(), f.lengthPrefix.state()
}

// ElemLengthPrefix returns the per-element length prefix and its state.
func (f *ListField) ElemLengthPrefix() (Field, SlotState) {
	return f.elemLengthPrefix.field(), f.elemLengthPrefix.state()
}

// ElemFixedLength reports whether the element length prefix is serialized
// once for all elements.
func (f *ListField) ElemFixedLength() bool { return f.elemFixedLength }

// TermSuffix returns the terminating suffix field and its slot state.
func (f *ListField) TermSuffix() (Field, SlotState) {
	return f.termSuffix.field(), f.termSuffix.state()
}

// DetachedCountPrefixName returns the sibling name of a detached count prefix.
func (f *ListField) DetachedCountPrefixName() string { return f.countPrefix.detached }

// DetachedLengthPrefixName returns the sibling name of a detached length prefix.
func (f *ListField) DetachedLengthPrefixName() string { return f.lengthPrefix.detached }

// DetachedElemLengthPrefixName returns the sibling name of a detached element
// length prefix.
func (f *ListField) DetachedElemLengthPrefixName() string { return f.elemLengthPrefix.detached }

// DetachedTermSuffixName returns the sibling name of a detached suffix.
func (f *ListField) DetachedTermSuffixName() string { return f.termSuffix.detached }

func (f *ListField) elemBounds() (lo, hi int) {
	e := f.element.field()
	if e == nil {
		return 0, num.Unbounded
	}
	lo, hi = e.MinLength(), e.MaxLength()
	if f.elemLengthPrefix.state() != SlotEmpty && !f.elemFixedLength {
		plo, phi := f.elemLengthPrefix.overhead()
		lo, hi = num.AddLength(lo, plo), num.AddLength(hi, phi)
	}
	return lo, hi
}

// elemOnce is the overhead of an element length prefix that precedes all
// elements once.
func (f *ListField) elemOnce() (lo, hi int) {
	if f.elemLengthPrefix.state() == SlotEmpty || !f.elemFixedLength {
		return 0, 0
	}
	return f.elemLengthPrefix.overhead()
}

// MinLength returns the serialized minimal length.
func (f *ListField) MinLength() int {
	switch {
	case f.count > 0:
		elo, _ := f.elemBounds()
		olo, _ := f.elemOnce()
		return num.AddLength(olo, num.MulLength(elo, f.count))
	case f.countPrefix.state() != SlotEmpty:
		lo, _ := f.countPrefix.overhead()
		return lo
	case f.lengthPrefix.state() != SlotEmpty:
		lo, _ := f.lengthPrefix.overhead()
		return lo
	case f.termSuffix.state() != SlotEmpty:
		lo, _ := f.termSuffix.overhead()
		return lo
	}
	return 0
}

// MaxLength returns the serialized maximal length.
func (f *ListField) MaxLength() int {
	_, ehi := f.elemBounds()
	_, ohi := f.elemOnce()
	switch {
	case f.count > 0:
		return num.AddLength(ohi, num.MulLength(ehi, f.count))
	case f.countPrefix.state() != SlotEmpty:
		return num.AddLength(ohi, prefixedMax(&f.countPrefix, ehi))
	case f.lengthPrefix.state() != SlotEmpty:
		return prefixedMax(&f.lengthPrefix, 1)
	}
	return num.Unbounded
}

// IsComparableToField accepts nothing; lists compare by size only.
func (f *ListField) IsComparableToField(Field) bool { return false }

func (f *ListField) supportsRef(t RefType) bool {
	return t == RefSize || f.fieldBase.supportsRef(t)
}

func (f *ListField) bindSiblings(siblings []Field) error {
	for _, s := range []struct {
		rule slotRule
		slot *fieldSlot
	}{
		{countPrefixRule, &f.countPrefix},
		{lengthPrefixRule, &f.lengthPrefix},
		{elemLengthPrefixRule, &f.elemLengthPrefix},
		{termSuffixRule, &f.termSuffix},
	} {
		if err := f.bindSlot(s.rule, s.slot, siblings); err != nil {
			return err
		}
	}
	return nil
}

func (f *ListField) clone(parent Entity) Field {
	cp := *f
	cp.fieldBase = f.cloneBase(parent)
	cp.element = f.element.clone(&cp)
	cp.countPrefix = f.countPrefix.clone(&cp)
	cp.lengthPrefix = f.lengthPrefix.clone(&cp)
	cp.elemLengthPrefix = f.elemLengthPrefix.clone(&cp)
	cp.termSuffix = f.termSuffix.clone(&cp)
	return &cp
}

func (f *ListField) parseKind(p *props) error {
	if err := f.parseElement(p); err != nil {
		return err
	}
	if f.element.state() == SlotEmpty {
		return f.errorf(dslerrors.ErrMissingProperty, "field %q: list requires an element", f.name)
	}
	if f.element.state() == SlotDetached {
		return f.errorf(dslerrors.ErrInvalidValue, "field %q: list element cannot reference a sibling", f.name)
	}

	// A newly declared size form replaces every cloned one.
	sizeForms := []string{"count", "countPrefix", "lengthPrefix", "termSuffix"}
	declared := 0
	for _, name := range sizeForms {
		if p.has(name) || len(p.childrenNamed(name)) > 0 {
			declared++
		}
	}
	if declared > 1 {
		return f.errorf(dslerrors.ErrLength, "field %q: count, countPrefix, lengthPrefix and termSuffix are mutually exclusive", f.name)
	}
	if declared == 1 {
		f.count = 0
		f.countPrefix, f.lengthPrefix, f.termSuffix = fieldSlot{}, fieldSlot{}, fieldSlot{}
	}
	if v, ok := p.get("count"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v.value))
		if err != nil || n <= 0 {
			return f.schema.errorf(v.elem, dslerrors.ErrLength, "field %q: invalid count %q", f.name, v.value)
		}
		f.count = n
	}
	for _, s := range []struct {
		rule slotRule
		slot *fieldSlot
	}{
		{countPrefixRule, &f.countPrefix},
		{lengthPrefixRule, &f.lengthPrefix},
		{elemLengthPrefixRule, &f.elemLengthPrefix},
		{termSuffixRule, &f.termSuffix},
	} {
		if _, err := f.parseSlot(p, f, s.rule, s.slot); err != nil {
			return err
		}
	}
	if err := p.setBool("elemFixedLength", &f.elemFixedLength); err != nil {
		return err
	}
	if f.elemFixedLength && f.elemLengthPrefix.state() != SlotEmpty {
		if e := f.element.field(); e.MinLength() != e.MaxLength() {
			return f.errorf(dslerrors.ErrLength, "field %q: elemFixedLength requires a fixed length element", f.name)
		}
	}
	return nil
}

// parseElement reads the element slot from the element property, an
// <element> wrapper or a single direct field child.
func (f *ListField) parseElement(p *props) error {
	var direct []xmlnode.Element
	for _, c := range p.children {
		if isFieldElement(c.Name()) {
			direct = append(direct, c)
		}
	}
	if len(direct) == 0 {
		_, err := f.parseSlot(p, f, elementRule, &f.element)
		return err
	}
	if len(direct) > 1 || p.has("element") || len(p.childrenNamed("element")) > 0 {
		return f.schema.errorf(direct[0], dslerrors.ErrStructure, "field %q: list must define exactly one element", f.name)
	}
	e, err := f.schema.newField(direct[0], f)
	if err != nil {
		return err
	}
	f.element = fieldSlot{owned: e}
	return nil
}
