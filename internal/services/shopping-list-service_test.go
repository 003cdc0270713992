package services

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShoppingListSumsAcrossRecipes(t *testing.T) {
	f := newFixture(t)
	cook := f.user(t, "cook")
	other := f.user(t, "other")
	flourG := f.ingredient(t, "flour", "g")
	flourCup := f.ingredient(t, "flour", "cup")
	eggs := f.ingredient(t, "eggs", "pcs")
	tag := f.tagID(t, "breakfast")

	bread := f.recipe(t, cook, "Bread", []uint{tag}, amount(flourG.ID, 200))
	cake := f.recipe(t, cook, "Cake", []uint{tag}, amount(flourG.ID, 100), amount(eggs.ID, 3), amount(flourCup.ID, 1))
	notInCart := f.recipe(t, cook, "Pie", []uint{tag}, amount(flourG.ID, 999))

	require.NoError(t, f.cart.Add(ctx, cook.ID, bread.ID))
	require.NoError(t, f.cart.Add(ctx, cook.ID, cake.ID))
	require.NoError(t, f.cart.Add(ctx, other.ID, notInCart.ID))

	lines, err := f.shopping.Lines(ctx, cook.ID)
	require.NoError(t, err)
	assert.Equal(t, []ShoppingLine{
		{Name: "eggs", MeasurementUnit: "pcs", Amount: 3},
		{Name: "flour", MeasurementUnit: "cup", Amount: 1},
		{Name: "flour", MeasurementUnit: "g", Amount: 300},
	}, lines)

	assert.Equal(t, "Shopping list\n- eggs: 3 pcs\n- flour: 1 cup\n- flour: 300 g", RenderShoppingList(lines))
}

func TestShoppingListEmptyCart(t *testing.T) {
	f := newFixture(t)
	cook := f.user(t, "cook")

	lines, err := f.shopping.Lines(ctx, cook.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Equal(t, "Shopping list", RenderShoppingList(lines))

	var buf bytes.Buffer
	require.NoError(t, f.shopping.WritePDF(ctx, cook.ID, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestShoppingListPDF(t *testing.T) {
	f := newFixture(t)
	cook := f.user(t, "cook")
	tag := f.tagID(t, "dinner")
	creme := f.ingredient(t, "crème fraîche", "g")
	var items []ShoppingLine
	for i := 0; i < 80; i++ {
		items = append(items, ShoppingLine{Name: "item", MeasurementUnit: "g", Amount: int64(i)})
	}
	recipe := f.recipe(t, cook, "Tart", []uint{tag}, amount(creme.ID, 50))
	require.NoError(t, f.cart.Add(ctx, cook.ID, recipe.ID))

	var buf bytes.Buffer
	require.NoError(t, f.shopping.WritePDF(ctx, cook.ID, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	// long lists spill onto more pages
	var long bytes.Buffer
	require.NoError(t, renderPDF(items, &long))
	assert.Greater(t, long.Len(), buf.Len())
}

// utf16BE is how text set in an embedded Unicode font appears in the page stream
func utf16BE(s string) []byte {
	var out []byte
	for _, u := range utf16.Encode([]rune(s)) {
		out = binary.BigEndian.AppendUint16(out, u)
	}
	return out
}

func TestShoppingListPDFKeepsNonLatinText(t *testing.T) {
	f := newFixture(t)
	cook := f.user(t, "cook")
	tag := f.tagID(t, "lunch")
	flour := f.ingredient(t, "мука", "г")
	recipe := f.recipe(t, cook, "Блины", []uint{tag}, amount(flour.ID, 300))
	require.NoError(t, f.cart.Add(ctx, cook.ID, recipe.ID))

	lines, err := f.shopping.Lines(ctx, cook.ID)
	require.NoError(t, err)
	lines = append(lines, ShoppingLine{Name: "flour", MeasurementUnit: "g", Amount: 5})

	pdf := newShoppingListPDF(lines)
	pdf.SetCompression(false)
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))

	assert.True(t, bytes.Contains(buf.Bytes(), utf16BE("- мука: 300 г")), "cyrillic line is written as-is")
	assert.True(t, bytes.Contains(buf.Bytes(), utf16BE("- flour: 5 g")))
	assert.False(t, bytes.Contains(buf.Bytes(), []byte("(- ....: 300 .)")))
}
