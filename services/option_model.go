package services

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/food-storefront/models"
)

// NormalizeSelectionGroups merges item-level and category-level groups into
// the list the customer sees. Duplicate ids keep the first occurrence, groups
// sharing a name keep the one with the highest display order, and the result
// is sorted by display order.
func NormalizeSelectionGroups(itemGroups, categoryGroups []models.OptionGroup) []models.OptionGroup {
	combined := make([]models.OptionGroup, 0, len(itemGroups)+len(categoryGroups))
	combined = append(combined, itemGroups...)
	combined = append(combined, categoryGroups...)

	seen := make(map[uint]bool, len(combined))
	deduped := make([]models.OptionGroup, 0, len(combined))
	for _, g := range combined {
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		deduped = append(deduped, g)
	}

	winner := make(map[string]int, len(deduped))
	for i, g := range deduped {
		j, ok := winner[g.Name]
		if !ok || g.DisplayOrder > deduped[j].DisplayOrder {
			winner[g.Name] = i
		}
	}

	groups := make([]models.OptionGroup, 0, len(winner))
	for i, g := range deduped {
		if winner[g.Name] != i {
			continue
		}
		if g.FreeThreshold < 0 {
			g.FreeThreshold = 0
		}
		opts := make([]models.Option, len(g.Options))
		for k, o := range g.Options {
			if o.GroupID == 0 {
				o.GroupID = g.ID
			}
			opts[k] = o
		}
		g.Options = opts
		groups = append(groups, g)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].DisplayOrder < groups[b].DisplayOrder
	})
	return groups
}

type optionSlot struct {
	name      string
	price     decimal.Decimal
	mandatory bool
	group     int // index into OptionModel.Groups, -1 outside groups
	position  int
}

// OptionModel is the normalized, indexed option catalog of one menu item.
type OptionModel struct {
	Item        models.MenuItem
	Ingredients []models.Ingredient
	Drinks      []models.AddOn
	Sides       []models.AddOn
	Groups      []models.OptionGroup

	index map[models.OptionRef]optionSlot
}

func NewOptionModel(item models.MenuItem, opts models.ItemOptions) *OptionModel {
	m := &OptionModel{
		Item:        item,
		Ingredients: opts.Ingredients,
		Drinks:      opts.DrinkOptions,
		Sides:       opts.SideOptions,
		Groups:      NormalizeSelectionGroups(opts.SelectionGroups, opts.CategorySelectionGroups),
		index:       make(map[models.OptionRef]optionSlot),
	}

	for i, ing := range m.Ingredients {
		m.register(models.OptionRef{ID: ing.ID, Type: models.OptionTypeIngredient}, optionSlot{
			name: ing.Name, price: ing.ExtraCost, mandatory: ing.IsMandatory, group: -1, position: i,
		})
	}
	for i, d := range m.Drinks {
		m.register(models.OptionRef{ID: d.ID, Type: models.OptionTypeDrink}, optionSlot{
			name: d.Name, price: d.Price, group: -1, position: i,
		})
	}
	for i, s := range m.Sides {
		m.register(models.OptionRef{ID: s.ID, Type: models.OptionTypeSide}, optionSlot{
			name: s.Name, price: s.Price, group: -1, position: i,
		})
	}
	for gi, g := range m.Groups {
		for pi, o := range g.Options {
			m.register(models.OptionRef{ID: o.ID, Type: models.OptionTypeSelection}, optionSlot{
				name: o.Name, price: o.Price, group: gi, position: pi,
			})
		}
	}
	return m
}

// register keeps the first slot seen for a reference.
func (m *OptionModel) register(ref models.OptionRef, slot optionSlot) {
	if _, exists := m.index[ref]; exists {
		return
	}
	m.index[ref] = slot
}

func (m *OptionModel) lookup(ref models.OptionRef) (optionSlot, bool) {
	slot, ok := m.index[ref]
	return slot, ok
}

// GroupOf returns the group a selection option belongs to.
func (m *OptionModel) GroupOf(ref models.OptionRef) (*models.OptionGroup, bool) {
	slot, ok := m.index[ref]
	if !ok || slot.group < 0 {
		return nil, false
	}
	return &m.Groups[slot.group], true
}

func (m *OptionModel) IsMandatory(ref models.OptionRef) bool {
	slot, ok := m.index[ref]
	return ok && slot.mandatory
}

// MandatoryRefs lists the mandatory ingredients in catalog order.
func (m *OptionModel) MandatoryRefs() []models.OptionRef {
	refs := make([]models.OptionRef, 0)
	for _, ing := range m.Ingredients {
		if ing.IsMandatory {
			refs = append(refs, models.OptionRef{ID: ing.ID, Type: models.OptionTypeIngredient})
		}
	}
	return refs
}

// GroupOrder is the group names in display order, snapshotted onto basket lines.
func (m *OptionModel) GroupOrder() []string {
	names := make([]string, len(m.Groups))
	for i, g := range m.Groups {
		names[i] = g.Name
	}
	return names
}
