package models

import "github.com/shopspring/decimal"

type MenuItem struct {
	ID           uint            `json:"id"`
	CategoryID   uint            `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"image_url,omitempty"`
	Allergens    []string        `json:"allergens,omitempty"`
}

// Ingredient is part of a dish. Mandatory ingredients are always selected and
// are covered by the item's base price.
type Ingredient struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	ExtraCost   decimal.Decimal `json:"extra_cost"`
	IsMandatory bool            `json:"is_mandatory"`
	CanExclude  bool            `json:"can_exclude"`
}

// AddOn is a drink or side offered next to an item.
type AddOn struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ItemOptions is the raw option payload of a menu item as served by the catalog.
type ItemOptions struct {
	Ingredients             []Ingredient  `json:"ingredients"`
	DrinkOptions            []AddOn       `json:"drink_options"`
	SideOptions             []AddOn       `json:"side_options"`
	SelectionGroups         []OptionGroup `json:"selection_groups"`
	CategorySelectionGroups []OptionGroup `json:"category_selection_groups"`
}
