package models

import "github.com/shopspring/decimal"

// SelectedOption is a snapshot of one chosen option inside a basket line.
// Price is the unit price at the time the line was built.
type SelectedOption struct {
	ID                uint            `json:"id"`
	Name              string          `json:"name"`
	Type              OptionType      `json:"type"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	FreeQuantity      int             `json:"free_quantity"`
	PaidQuantity      int             `json:"paid_quantity"`
	GroupID           uint            `json:"group_id,omitempty"`
	GroupName         string          `json:"group_name,omitempty"`
	GroupDisplayOrder int             `json:"group_display_order,omitempty"`
}

// LineItem is a priced basket entry. OriginalPrice is always BasePrice times
// Quantity; the discount fields are set only while a coupon is applied.
type LineItem struct {
	MenuItemID         uint             `json:"menu_item_id"`
	Name               string           `json:"name"`
	Image              string           `json:"image,omitempty"`
	Quantity           int              `json:"quantity"`
	BasePrice          decimal.Decimal  `json:"base_price"`
	OriginalPrice      decimal.Decimal  `json:"original_price"`
	DiscountedPrice    *decimal.Decimal `json:"discounted_price,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	Note               string           `json:"note"`
	SelectedItems      []SelectedOption `json:"selected_items"`
	SelectionKey       string           `json:"selection_key"`
	GroupOrder         []string         `json:"group_order,omitempty"`
}

// EffectivePrice is the amount charged for the line.
func (l LineItem) EffectivePrice() decimal.Decimal {
	if l.DiscountedPrice != nil {
		return *l.DiscountedPrice
	}
	return l.OriginalPrice
}

func (l LineItem) HasDiscount() bool {
	return l.DiscountedPrice != nil && l.DiscountedPrice.LessThan(l.OriginalPrice)
}

// OptionSection is a group of selected options rendered under one heading.
type OptionSection struct {
	Name         string           `json:"name"`
	DisplayOrder int              `json:"display_order"`
	Options      []SelectedOption `json:"options"`
}
