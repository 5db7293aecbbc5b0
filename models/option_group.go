package models

import "github.com/shopspring/decimal"

type GroupKind string

const (
	GroupKindSingle     GroupKind = "SINGLE"
	GroupKindMultiple   GroupKind = "MULTIPLE"
	GroupKindExclusions GroupKind = "EXCLUSIONS"
)

type OptionType string

const (
	OptionTypeIngredient OptionType = "ingredient"
	OptionTypeDrink      OptionType = "drink"
	OptionTypeSide       OptionType = "side"
	OptionTypeSelection  OptionType = "selection"
)

func (t OptionType) Valid() bool {
	switch t {
	case OptionTypeIngredient, OptionTypeDrink, OptionTypeSide, OptionTypeSelection:
		return true
	}
	return false
}

type Option struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	GroupID      uint            `json:"group_id"`
	DisplayOrder int             `json:"display_order"`
}

// OptionGroup is a named set of options. FreeThreshold is the number of option
// units the group gives away before it starts charging.
type OptionGroup struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Kind          GroupKind `json:"kind"`
	IsRequired    bool      `json:"is_required"`
	MinSelect     int       `json:"min_select"`
	MaxSelect     int       `json:"max_select"`
	FreeThreshold int       `json:"free_threshold"`
	DisplayOrder  int       `json:"display_order"`
	Options       []Option  `json:"options"`
}

// OptionRef identifies a selectable option. Ids are only unique per type.
type OptionRef struct {
	ID   uint       `json:"id" binding:"required"`
	Type OptionType `json:"type" binding:"required"`
}
