package services

import (
	"github.com/go-faster/errors"
	"github.com/yeremiapane/food-storefront/models"
)

// SelectionEntry is one selected option with its quantity.
type SelectionEntry struct {
	Ref      models.OptionRef `json:"ref"`
	Quantity int              `json:"quantity"`
}

// Selection holds the in-progress customization of one menu item.
type Selection struct {
	model    *OptionModel
	entries  []SelectionEntry
	note     string
	quantity int
}

func NewSelection(model *OptionModel) *Selection {
	s := &Selection{model: model}
	s.Reset()
	return s
}

// Reset selects exactly the mandatory ingredients, clears the note and sets
// the item count back to one.
func (s *Selection) Reset() {
	mandatory := s.model.MandatoryRefs()
	s.entries = make([]SelectionEntry, 0, len(mandatory))
	for _, ref := range mandatory {
		s.entries = append(s.entries, SelectionEntry{Ref: ref, Quantity: 1})
	}
	s.note = ""
	s.quantity = 1
}

func (s *Selection) Model() *OptionModel {
	return s.model
}

func (s *Selection) find(ref models.OptionRef) int {
	for i, e := range s.entries {
		if e.Ref == ref {
			return i
		}
	}
	return -1
}

// Toggle selects an unselected option or deselects a selected one. Selecting
// into a SINGLE group drops whatever else that group had selected. Mandatory
// ingredients cannot be toggled off.
func (s *Selection) Toggle(ref models.OptionRef) error {
	if _, ok := s.model.lookup(ref); !ok {
		return errors.Wrapf(ErrUnknownOption, "%s %d", ref.Type, ref.ID)
	}
	if s.model.IsMandatory(ref) {
		return nil
	}

	if i := s.find(ref); i >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		return nil
	}

	if group, ok := s.model.GroupOf(ref); ok && group.Kind == models.GroupKindSingle {
		s.dropGroup(group)
	}
	s.entries = append(s.entries, SelectionEntry{Ref: ref, Quantity: 1})
	return nil
}

func (s *Selection) dropGroup(group *models.OptionGroup) {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if g, ok := s.model.GroupOf(e.Ref); ok && g.ID == group.ID {
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
}

// Adjust changes the quantity of a selected option by delta. Reaching zero
// deselects it. Unselected options are left alone.
func (s *Selection) Adjust(ref models.OptionRef, delta int) error {
	if _, ok := s.model.lookup(ref); !ok {
		return errors.Wrapf(ErrUnknownOption, "%s %d", ref.Type, ref.ID)
	}
	if s.model.IsMandatory(ref) {
		return nil
	}

	i := s.find(ref)
	if i < 0 {
		return nil
	}

	qty := s.entries[i].Quantity + delta
	if qty < 0 {
		qty = 0
	}
	if group, ok := s.model.GroupOf(ref); ok && group.Kind != models.GroupKindMultiple && qty > 1 {
		qty = 1
	}
	if qty == 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		return nil
	}
	s.entries[i].Quantity = qty
	return nil
}

// QuantityOf returns the selected quantity of ref, zero when unselected.
func (s *Selection) QuantityOf(ref models.OptionRef) int {
	if i := s.find(ref); i >= 0 {
		return s.entries[i].Quantity
	}
	return 0
}

func (s *Selection) IsSelected(ref models.OptionRef) bool {
	return s.find(ref) >= 0
}

func (s *Selection) Entries() []SelectionEntry {
	out := make([]SelectionEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// SetQuantity sets how many units of the item are being customized.
func (s *Selection) SetQuantity(n int) {
	if n < 1 {
		n = 1
	}
	s.quantity = n
}

func (s *Selection) Quantity() int {
	return s.quantity
}

func (s *Selection) SetNote(note string) {
	s.note = note
}

func (s *Selection) Note() string {
	return s.note
}
