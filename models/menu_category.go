package models

// DefaultCategoryOrder is used for categories that carry no display order.
const DefaultCategoryOrder = 999

type Category struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}

// MenuSection is one category with its items, as rendered on the menu page.
type MenuSection struct {
	Category Category   `json:"category"`
	Items    []MenuItem `json:"items"`
}
