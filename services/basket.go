package services

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/food-storefront/models"
)

// SelectionKey identifies a set of selected options by id, type and quantity.
// Prices are left out so a price change never splits otherwise equal lines.
func SelectionKey(options []models.SelectedOption) string {
	type keyPart struct {
		ID       uint              `json:"id"`
		Type     models.OptionType `json:"type"`
		Quantity int               `json:"quantity"`
	}
	parts := make([]keyPart, len(options))
	for i, o := range options {
		parts[i] = keyPart{ID: o.ID, Type: o.Type, Quantity: o.Quantity}
	}
	raw, _ := json.Marshal(parts)
	return string(raw)
}

// NewLineItem turns a priced customization into a basket line.
func NewLineItem(model *OptionModel, price PriceBreakdown, note string) models.LineItem {
	options := make([]models.SelectedOption, len(price.Options))
	copy(options, price.Options)

	return models.LineItem{
		MenuItemID:    model.Item.ID,
		Name:          model.Item.Name,
		Image:         model.Item.ImageURL,
		Quantity:      price.Quantity,
		BasePrice:     price.SingleItemPrice,
		OriginalPrice: price.OriginalPrice,
		Note:          strings.TrimSpace(note),
		SelectedItems: options,
		SelectionKey:  SelectionKey(options),
		GroupOrder:    model.GroupOrder(),
	}
}

// Basket is an ordered list of priced lines. Revision increases on every
// change to its composition so observers can detect staleness cheaply.
type Basket struct {
	items    []models.LineItem
	revision uint64
}

func NewBasket() *Basket {
	return &Basket{items: make([]models.LineItem, 0)}
}

// Restore replaces the basket content with persisted lines.
func (b *Basket) Restore(items []models.LineItem, revision uint64) {
	b.items = make([]models.LineItem, len(items))
	copy(b.items, items)
	b.revision = revision
}

func (b *Basket) Items() []models.LineItem {
	out := make([]models.LineItem, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Basket) Len() int {
	return len(b.items)
}

func (b *Basket) IsEmpty() bool {
	return len(b.items) == 0
}

func (b *Basket) Revision() uint64 {
	return b.revision
}

// ItemCount is the number of units across all lines, shown on the header badge.
func (b *Basket) ItemCount() int {
	n := 0
	for _, it := range b.items {
		n += it.Quantity
	}
	return n
}

func (b *Basket) changed() {
	b.revision++
	b.ClearDiscounts()
}

// AddOrMerge adds a line, or folds it into an existing line with the same item,
// selection and note. A merge keeps the existing unit price. It returns the
// index of the affected line.
func (b *Basket) AddOrMerge(candidate models.LineItem) (int, bool) {
	if candidate.Quantity < 1 {
		candidate.Quantity = 1
	}
	if candidate.SelectionKey == "" {
		candidate.SelectionKey = SelectionKey(candidate.SelectedItems)
	}

	for i := range b.items {
		existing := &b.items[i]
		if existing.MenuItemID != candidate.MenuItemID ||
			existing.SelectionKey != candidate.SelectionKey ||
			existing.Note != candidate.Note {
			continue
		}
		existing.Quantity += candidate.Quantity
		existing.OriginalPrice = lineTotal(existing.BasePrice, existing.Quantity)
		b.changed()
		return i, true
	}

	candidate.OriginalPrice = lineTotal(candidate.BasePrice, candidate.Quantity)
	candidate.DiscountedPrice = nil
	candidate.DiscountPercentage = nil
	b.items = append(b.items, candidate)
	b.changed()
	return len(b.items) - 1, false
}

func (b *Basket) checkIndex(i int) error {
	if i < 0 || i >= len(b.items) {
		return errors.Wrapf(ErrInvalidIndex, "index %d of %d", i, len(b.items))
	}
	return nil
}

func (b *Basket) Increment(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	it := &b.items[i]
	it.Quantity++
	it.OriginalPrice = lineTotal(it.BasePrice, it.Quantity)
	b.changed()
	return nil
}

// Decrement lowers the quantity by one, never below one.
func (b *Basket) Decrement(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	it := &b.items[i]
	if it.Quantity <= 1 {
		return nil
	}
	it.Quantity--
	it.OriginalPrice = lineTotal(it.BasePrice, it.Quantity)
	b.changed()
	return nil
}

// Remove deletes a line. Discounts on the remaining lines are cleared.
func (b *Basket) Remove(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	b.items = append(b.items[:i], b.items[i+1:]...)
	b.changed()
	return nil
}

// Clear empties the basket after a completed order.
func (b *Basket) Clear() {
	if len(b.items) == 0 {
		return
	}
	b.items = make([]models.LineItem, 0)
	b.changed()
}

// ApplyDiscount sets the discount fields of every line from a coupon ratio.
// Lines whose discounted price would not be below the original stay
// undiscounted.
func (b *Basket) ApplyDiscount(ratio decimal.Decimal) {
	percentage := ratio.Mul(decimal.NewFromInt(100))
	for i := range b.items {
		it := &b.items[i]
		discounted := Discount(it.OriginalPrice, ratio)
		if !discounted.LessThan(it.OriginalPrice) {
			it.DiscountedPrice = nil
			it.DiscountPercentage = nil
			continue
		}
		p := percentage
		it.DiscountedPrice = &discounted
		it.DiscountPercentage = &p
	}
}

func (b *Basket) ClearDiscounts() {
	for i := range b.items {
		b.items[i].DiscountedPrice = nil
		b.items[i].DiscountPercentage = nil
	}
}

func (b *Basket) HasDiscount() bool {
	for _, it := range b.items {
		if it.HasDiscount() {
			return true
		}
	}
	return false
}

// Subtotal is what the customer pays: discounted prices where present.
func (b *Basket) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range b.items {
		total = total.Add(it.EffectivePrice())
	}
	return total
}

// OriginalSubtotal ignores discounts. Minimum order checks use this value.
func (b *Basket) OriginalSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range b.items {
		total = total.Add(it.OriginalPrice)
	}
	return total
}

func lineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

const otherOptionsGroup = "Other"

// GroupSelectedOptions arranges a line's options under their group headings.
// Groups named in the line's GroupOrder come first in that order; the rest
// follow by display order, then name.
func GroupSelectedOptions(line models.LineItem) []models.OptionSection {
	sections := make(map[string]*models.OptionSection)
	names := make([]string, 0)
	for _, opt := range line.SelectedItems {
		name := opt.GroupName
		order := opt.GroupDisplayOrder
		if name == "" {
			name = otherOptionsGroup
			order = 9999
		}
		sec, ok := sections[name]
		if !ok {
			sec = &models.OptionSection{Name: name, DisplayOrder: order}
			sections[name] = sec
			names = append(names, name)
		}
		sec.Options = append(sec.Options, opt)
	}

	rank := make(map[string]int, len(line.GroupOrder))
	for i, n := range line.GroupOrder {
		if _, dup := rank[n]; !dup {
			rank[n] = i
		}
	}

	sort.SliceStable(names, func(a, b int) bool {
		ra, okA := rank[names[a]]
		rb, okB := rank[names[b]]
		switch {
		case okA && okB:
			return ra < rb
		case okA != okB:
			return okA
		}
		sa, sb := sections[names[a]], sections[names[b]]
		if sa.DisplayOrder != sb.DisplayOrder {
			return sa.DisplayOrder < sb.DisplayOrder
		}
		return sa.Name < sb.Name
	})

	out := make([]models.OptionSection, 0, len(names))
	for _, n := range names {
		out = append(out, *sections[n])
	}
	return out
}
