package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/food-storefront/models"
)

// PriceBreakdown is the priced form of a customization.
type PriceBreakdown struct {
	Options         []models.SelectedOption `json:"options"`
	ExtraCost       decimal.Decimal         `json:"extra_cost"`
	SingleItemPrice decimal.Decimal         `json:"single_item_price"`
	OriginalPrice   decimal.Decimal         `json:"original_price"`
	Quantity        int                     `json:"quantity"`
}

// CalculatePrice prices the group selections of one item. Every group is
// priced on its own: selected options are walked in the group's option order
// and the first FreeThreshold units are free.
func CalculatePrice(basePrice decimal.Decimal, groups []models.OptionGroup, selected []SelectionEntry, orderQuantity int) PriceBreakdown {
	qty := make(map[uint]int, len(selected))
	for _, e := range selected {
		if e.Ref.Type == models.OptionTypeSelection {
			qty[e.Ref.ID] += e.Quantity
		}
	}

	b := PriceBreakdown{ExtraCost: decimal.Zero}
	seen := make(map[uint]bool)
	for _, g := range groups {
		remainingFree := max(g.FreeThreshold, 0)
		for _, o := range g.Options {
			if seen[o.ID] {
				continue
			}
			seen[o.ID] = true

			q := qty[o.ID]
			if q <= 0 {
				continue
			}
			free := min(remainingFree, q)
			remainingFree -= free
			paid := q - free

			b.Options = append(b.Options, models.SelectedOption{
				ID:                o.ID,
				Name:              o.Name,
				Type:              models.OptionTypeSelection,
				Quantity:          q,
				Price:             o.Price,
				FreeQuantity:      free,
				PaidQuantity:      paid,
				GroupID:           g.ID,
				GroupName:         g.Name,
				GroupDisplayOrder: g.DisplayOrder,
			})
			b.ExtraCost = b.ExtraCost.Add(o.Price.Mul(decimal.NewFromInt(int64(paid))))
		}
	}
	b.finish(basePrice, orderQuantity)
	return b
}

func (b *PriceBreakdown) finish(basePrice decimal.Decimal, orderQuantity int) {
	if orderQuantity < 1 {
		orderQuantity = 1
	}
	b.Quantity = orderQuantity
	b.SingleItemPrice = basePrice.Add(b.ExtraCost)
	b.OriginalPrice = b.SingleItemPrice.Mul(decimal.NewFromInt(int64(orderQuantity)))
}

// PriceSelection prices a full customization: group selections first, then
// ingredients, drinks and sides in catalog order. Those carry no free
// allowance, except mandatory ingredients which belong to the dish.
func PriceSelection(sel *Selection) PriceBreakdown {
	m := sel.Model()
	entries := sel.Entries()
	b := CalculatePrice(m.Item.Price, m.Groups, entries, sel.Quantity())

	add := func(ref models.OptionRef, name string, price decimal.Decimal, mandatory bool) {
		q := sel.QuantityOf(ref)
		if q <= 0 || mandatory {
			return
		}
		b.Options = append(b.Options, models.SelectedOption{
			ID:           ref.ID,
			Name:         name,
			Type:         ref.Type,
			Quantity:     q,
			Price:        price,
			PaidQuantity: q,
		})
		b.ExtraCost = b.ExtraCost.Add(price.Mul(decimal.NewFromInt(int64(q))))
	}
	for _, ing := range m.Ingredients {
		add(models.OptionRef{ID: ing.ID, Type: models.OptionTypeIngredient}, ing.Name, ing.ExtraCost, ing.IsMandatory)
	}
	for _, d := range m.Drinks {
		add(models.OptionRef{ID: d.ID, Type: models.OptionTypeDrink}, d.Name, d.Price, false)
	}
	for _, s := range m.Sides {
		add(models.OptionRef{ID: s.ID, Type: models.OptionTypeSide}, s.Name, s.Price, false)
	}

	b.finish(m.Item.Price, sel.Quantity())
	return b
}

// Discount applies a coupon ratio to an undiscounted price. The result is
// kept exact; rounding is left to presentation.
func Discount(original, ratio decimal.Decimal) decimal.Decimal {
	return original.Mul(decimal.NewFromInt(1).Sub(ratio))
}

// ValidateSelection checks group bounds. It reports the first violated group
// in display order and is independent of pricing.
func ValidateSelection(groups []models.OptionGroup, selected []SelectionEntry) error {
	chosen := make(map[uint]bool, len(selected))
	for _, e := range selected {
		if e.Ref.Type == models.OptionTypeSelection && e.Quantity > 0 {
			chosen[e.Ref.ID] = true
		}
	}

	for _, g := range groups {
		count := 0
		for _, o := range g.Options {
			if chosen[o.ID] {
				count++
			}
		}

		switch {
		case g.IsRequired && count == 0:
			return &BusinessRuleError{
				Rule:    RuleRequiredGroup,
				GroupID: g.ID,
				Message: fmt.Sprintf("please choose an option for %s", g.Name),
			}
		case g.MaxSelect > 0 && count > g.MaxSelect:
			return &BusinessRuleError{
				Rule:    RuleMaxSelect,
				GroupID: g.ID,
				Message: fmt.Sprintf("choose at most %d options for %s", g.MaxSelect, g.Name),
			}
		case count > 0 && g.MinSelect > count:
			return &BusinessRuleError{
				Rule:    RuleMinSelect,
				GroupID: g.ID,
				Message: fmt.Sprintf("choose at least %d options for %s", g.MinSelect, g.Name),
			}
		}
	}
	return nil
}
