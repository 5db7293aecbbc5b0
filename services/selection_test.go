package services

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/food-storefront/models"
)

func TestNormalizeSelectionGroups(t *testing.T) {
	item := []models.OptionGroup{
		{ID: 1, Name: "Sauce", DisplayOrder: 5, FreeThreshold: -2, Options: []models.Option{{ID: 11}}},
		{ID: 2, Name: "Size", DisplayOrder: 1},
	}
	category := []models.OptionGroup{
		{ID: 1, Name: "Sauce (category copy)", DisplayOrder: 0},
		{ID: 3, Name: "Sauce", DisplayOrder: 7},
		{ID: 4, Name: "Extras", DisplayOrder: 3},
		{ID: 5, Name: "Extras", DisplayOrder: 3},
	}

	groups := NormalizeSelectionGroups(item, category)

	ids := make([]uint, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	// id 1 loses the name clash to id 3, id 5 ties with id 4 and loses
	assert.Equal(t, []uint{2, 4, 3}, ids)
	for _, g := range groups {
		assert.GreaterOrEqual(t, g.FreeThreshold, 0)
	}

	withNeg := NormalizeSelectionGroups(item[:1], nil)
	require.Len(t, withNeg, 1)
	assert.Equal(t, 0, withNeg[0].FreeThreshold)
	assert.Equal(t, uint(1), withNeg[0].Options[0].GroupID)
}

func TestNewOptionModel(t *testing.T) {
	m := pizzaModel()

	assert.Equal(t, []string{"Size", "Toppings"}, m.GroupOrder())
	assert.Equal(t, []models.OptionRef{{ID: doughID, Type: models.OptionTypeIngredient}}, m.MandatoryRefs())
	assert.True(t, m.IsMandatory(models.OptionRef{ID: doughID, Type: models.OptionTypeIngredient}))

	g, ok := m.GroupOf(sel(hamID))
	require.True(t, ok)
	assert.Equal(t, uint(toppingGroupID), g.ID)

	_, ok = m.GroupOf(models.OptionRef{ID: colaID, Type: models.OptionTypeDrink})
	assert.False(t, ok)

	// ids are scoped by type
	_, ok = m.lookup(models.OptionRef{ID: colaID, Type: models.OptionTypeSide})
	assert.False(t, ok)
}

func TestSelection_ResetSelectsMandatory(t *testing.T) {
	s := NewSelection(pizzaModel())
	dough := models.OptionRef{ID: doughID, Type: models.OptionTypeIngredient}

	assert.True(t, s.IsSelected(dough))
	assert.Equal(t, 1, s.Quantity())

	require.NoError(t, s.Toggle(dough))
	assert.True(t, s.IsSelected(dough), "mandatory ingredients stay selected")

	require.NoError(t, s.Toggle(sel(hamID)))
	s.SetQuantity(4)
	s.SetNote("no basil")
	s.Reset()

	assert.Equal(t, []SelectionEntry{{Ref: dough, Quantity: 1}}, s.Entries())
	assert.Equal(t, 1, s.Quantity())
	assert.Empty(t, s.Note())
}

func TestSelection_Toggle(t *testing.T) {
	s := NewSelection(pizzaModel())

	err := s.Toggle(sel(999))
	assert.True(t, errors.Is(err, ErrUnknownOption))

	require.NoError(t, s.Toggle(sel(smallID)))
	require.NoError(t, s.Toggle(sel(largeID)))
	assert.False(t, s.IsSelected(sel(smallID)), "single group keeps one option")
	assert.True(t, s.IsSelected(sel(largeID)))

	require.NoError(t, s.Toggle(sel(olivesID)))
	require.NoError(t, s.Toggle(sel(hamID)))
	assert.True(t, s.IsSelected(sel(olivesID)))
	assert.True(t, s.IsSelected(sel(hamID)))

	require.NoError(t, s.Toggle(sel(olivesID)))
	assert.False(t, s.IsSelected(sel(olivesID)))
	assert.True(t, s.IsSelected(sel(largeID)), "deselecting a topping leaves the size")
}

func TestSelection_Adjust(t *testing.T) {
	tests := []struct {
		name    string
		ref     models.OptionRef
		toggle  bool
		deltas  []int
		wantQty int
	}{
		{name: "multiple group grows", ref: sel(hamID), toggle: true, deltas: []int{2}, wantQty: 3},
		{name: "single group caps at one", ref: sel(largeID), toggle: true, deltas: []int{3}, wantQty: 1},
		{name: "reaching zero deselects", ref: sel(hamID), toggle: true, deltas: []int{1, -5}, wantQty: 0},
		{name: "unselected option is left alone", ref: sel(hamID), toggle: false, deltas: []int{2}, wantQty: 0},
		{name: "drinks have no cap", ref: models.OptionRef{ID: colaID, Type: models.OptionTypeDrink}, toggle: true, deltas: []int{4}, wantQty: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelection(pizzaModel())
			if tt.toggle {
				require.NoError(t, s.Toggle(tt.ref))
			}
			for _, d := range tt.deltas {
				require.NoError(t, s.Adjust(tt.ref, d))
			}
			assert.Equal(t, tt.wantQty, s.QuantityOf(tt.ref))
			assert.Equal(t, tt.wantQty > 0, s.IsSelected(tt.ref))
		})
	}

	s := NewSelection(pizzaModel())
	assert.True(t, errors.Is(s.Adjust(sel(999), 1), ErrUnknownOption))
}

func TestSelection_SetQuantityFloorsAtOne(t *testing.T) {
	s := NewSelection(pizzaModel())
	s.SetQuantity(0)
	assert.Equal(t, 1, s.Quantity())
	s.SetQuantity(-3)
	assert.Equal(t, 1, s.Quantity())
	s.SetQuantity(3)
	assert.Equal(t, 3, s.Quantity())
}
