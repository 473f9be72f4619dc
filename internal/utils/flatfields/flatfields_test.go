package flatfields

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
)

func TestReconstruct(t *testing.T) {
	fields := map[string]string{
		"product_uuid#0": "prod-a",
		"unit_uuid#0":    "unit-a",
		"qty#0":          "3",
		"price#0":        "1500",
		"product_uuid#1": "prod-b",
		"unit_uuid#1":    "unit-b",
		"qty#1":          "1.5",
		"price#1":        "200",
		"subtotal#1":     "350",
		"grand_total":    "4850", // no index, not a line field
		"customer_name":  "Budi",
	}

	items := Reconstruct(fields)
	require.Len(t, items, 2)

	assert.Equal(t, "prod-a", items[0].ProductID)
	assert.Equal(t, "unit-a", items[0].UnitID)
	assert.True(t, items[0].Qty.Equal(decimal.NewFromInt(3)))
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(1500)))
	assert.Nil(t, items[0].Subtotal)

	assert.Equal(t, "prod-b", items[1].ProductID)
	require.NotNil(t, items[1].Subtotal)
	assert.True(t, items[1].Subtotal.Equal(decimal.NewFromInt(350)))
}

func TestReconstructLegacyDelimiter(t *testing.T) {
	// Old payloads index with an underscore: the last segment is the index
	// even though the field name itself contains underscores.
	fields := map[string]string{
		"product_uuid_0": "prod-a",
		"unit_uuid_0":    "unit-a",
		"qty_0":          "2",
		"buy_price_0":    "750",
	}

	items := Reconstruct(fields)
	require.Len(t, items, 1)
	assert.Equal(t, "prod-a", items[0].ProductID)
	assert.Equal(t, "unit-a", items[0].UnitID)
	assert.True(t, items[0].Qty.Equal(decimal.NewFromInt(2)))
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(750)), "buy_price should fill the price field")
}

func TestReconstructSparseIndexesKeepOrder(t *testing.T) {
	fields := map[string]string{
		"product_uuid#7": "prod-late",
		"unit_uuid#7":    "unit-late",
		"qty#7":          "1",
		"product_uuid#2": "prod-early",
		"unit_uuid#2":    "unit-early",
		"qty#2":          "4",
	}

	items := Reconstruct(fields)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Index)
	assert.Equal(t, "prod-early", items[0].ProductID)
	assert.Equal(t, 7, items[1].Index)
}

func TestReconstructIgnoresMalformedKeys(t *testing.T) {
	fields := map[string]string{
		"qty#abc":         "3",          // non-numeric index
		"qty#-1":          "3",          // negative index
		"qty#":            "3",          // empty index
		"#0":              "3",          // empty field name
		"unknown_thing#0": "value",      // unrecognized field name still claims the index
		"product_uuid#0":  "prod-a",
		"qty#0":           "bad-number", // parse failure leaves zero qty
	}

	items := Reconstruct(fields)
	require.Len(t, items, 1)
	assert.Equal(t, "prod-a", items[0].ProductID)
	assert.True(t, items[0].Qty.IsZero())
}

func TestFlattenRoundTrip(t *testing.T) {
	sub := decimal.NewFromInt(900)
	items := []domain.LineItem{
		{ProductID: "prod-a", UnitID: "unit-a", Qty: decimal.NewFromInt(3), Price: decimal.NewFromInt(300)},
		{ProductID: "prod-b", UnitID: "unit-b", Qty: decimal.NewFromInt(1), Price: decimal.NewFromInt(1000), Subtotal: &sub},
	}

	got := Reconstruct(Flatten(items))
	require.Len(t, got, 2)
	assert.Equal(t, "prod-a", got[0].ProductID)
	assert.Nil(t, got[0].Subtotal)
	require.NotNil(t, got[1].Subtotal)
	assert.True(t, got[1].Subtotal.Equal(sub))
}
