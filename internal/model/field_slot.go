package model

import (
	"strings"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/num"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// SlotState tells which form a prefix, suffix or element slot takes.
type SlotState uint8

const (
	SlotEmpty SlotState = iota
	// SlotOwned is an inline field definition owned by the slot.
	SlotOwned
	// SlotExternal is a reference to a field defined elsewhere.
	SlotExternal
	// SlotDetached names a sibling field of the enclosing container.
	SlotDetached
)

// fieldSlot holds exactly one of an owned field, an external reference or
// a detached sibling name. resolved is the bound sibling of a detached slot.
type fieldSlot struct {
	owned    Field
	external Field
	detached string
	resolved Field
}

func (s *fieldSlot) state() SlotState {
	switch {
	case s.owned != nil:
		return SlotOwned
	case s.external != nil:
		return SlotExternal
	case s.detached != "":
		return SlotDetached
	}
	return SlotEmpty
}

// field returns the active field, nil for an empty or unbound slot.
func (s *fieldSlot) field() Field {
	switch {
	case s.owned != nil:
		return s.owned
	case s.external != nil:
		return s.external
	default:
		return s.resolved
	}
}

// overhead is the number of bytes the slot field itself adds to the owner.
// Detached siblings are serialized separately.
func (s *fieldSlot) overhead() (lo, hi int) {
	if s.detached != "" {
		return 0, 0
	}
	if f := s.field(); f != nil {
		return f.MinLength(), f.MaxLength()
	}
	return 0, 0
}

// maxValue returns the largest value a bound integer slot field holds.
func (s *fieldSlot) maxValue() (uint64, bool) {
	f, ok := resolveRefTarget(s.field()).(*IntField)
	if !ok {
		return 0, false
	}
	_, hi := f.Bounds()
	if f.IsUnsigned() {
		return uint64(hi), true
	}
	if hi < 0 {
		return 0, true
	}
	return uint64(hi), true
}

func (s *fieldSlot) clone(parent Entity) fieldSlot {
	cp := fieldSlot{external: s.external, detached: s.detached}
	if s.owned != nil {
		cp.owned = s.owned.clone(parent)
	}
	return cp
}

// slotRule constrains the field kinds a slot accepts.
type slotRule struct {
	name string
	// intOnly restricts the target to int fields.
	intOnly bool
}

// parseSlot reads a slot from either the property value (external ref or
// "$sibling") or a same-named child element wrapping one field definition.
// A present slot replaces the previous content, including cloned state.
func (b *fieldBase) parseSlot(p *props, owner Field, rule slotRule, slot *fieldSlot) (bool, error) {
	child, err := p.singleChild(rule.name)
	if err != nil {
		return false, err
	}
	v, hasProp := p.get(rule.name)
	if child != nil && hasProp {
		return false, b.schema.errorf(child, dslerrors.ErrDuplicateProperty, "field %q: %s defined more than once", b.name, rule.name)
	}
	switch {
	case child != nil:
		f, err := b.slotChild(child, owner)
		if err != nil {
			return false, err
		}
		*slot = fieldSlot{owned: f}
	case hasProp:
		ref := strings.TrimSpace(v.value)
		if name, ok := strings.CutPrefix(ref, "$"); ok {
			if !IsValidName(name) {
				return false, b.schema.errorf(v.elem, dslerrors.ErrInvalidValue, "field %q: invalid sibling reference %q", b.name, ref)
			}
			*slot = fieldSlot{detached: name}
			return true, nil
		}
		f, err := b.schema.lookupField(v.elem, ref)
		if err != nil {
			return false, err
		}
		*slot = fieldSlot{external: f}
	default:
		return false, nil
	}
	return true, b.checkSlotKind(p.elem, rule, slot.field())
}

func (b *fieldBase) slotChild(elem xmlnode.Element, owner Field) (Field, error) {
	var def xmlnode.Element
	for _, c := range elem.Children() {
		if !isFieldElement(c.Name()) {
			continue
		}
		if def != nil {
			return nil, b.schema.errorf(c, dslerrors.ErrStructure, "field %q: <%s> must hold exactly one field", b.name, elem.Name())
		}
		def = c
	}
	if def == nil {
		return nil, b.schema.errorf(elem, dslerrors.ErrStructure, "field %q: <%s> must hold exactly one field", b.name, elem.Name())
	}
	return b.schema.newField(def, owner)
}

func (b *fieldBase) checkSlotKind(elem xmlnode.Element, rule slotRule, f Field) error {
	if !rule.intOnly || f == nil {
		return nil
	}
	if _, ok := resolveRefTarget(f).(*IntField); !ok {
		return b.schema.errorf(elem, dslerrors.ErrKindMismatch, "field %q: %s must be an int field, got %s", b.name, rule.name, f.Kind())
	}
	return nil
}

// bindSlot resolves a detached slot against the preceding siblings.
func (b *fieldBase) bindSlot(rule slotRule, slot *fieldSlot, siblings []Field) error {
	if slot.detached == "" {
		return nil
	}
	f := findByName(siblings, slot.detached)
	if f == nil {
		return b.errorf(dslerrors.ErrUnresolvedRef, "field %q: %s references unknown sibling %q", b.name, rule.name, slot.detached)
	}
	if err := b.checkSlotKind(b.elem, rule, f); err != nil {
		return err
	}
	slot.resolved = f
	return nil
}

// prefixedMax returns the upper bound of a payload whose size or count
// comes from the slot field, scaled by unit bytes per counted item.
func prefixedMax(slot *fieldSlot, unit int) int {
	maxVal, ok := slot.maxValue()
	if !ok {
		return num.Unbounded
	}
	_, hi := slot.overhead()
	return num.AddLength(hi, num.MulLength(num.LengthFromValue(maxVal), unit))
}
