package domain

import "github.com/shopspring/decimal"

// LineItem is one reconstructed transaction line: a (product, unit) pair with
// a quantity and a unit price. Subtotal overrides Qty*Price when set.
type LineItem struct {
	Index     int              `json:"index"`
	ProductID string           `json:"productUUID"`
	UnitID    string           `json:"unitUUID"`
	Qty       decimal.Decimal  `json:"qty"`
	Price     decimal.Decimal  `json:"price"`
	Subtotal  *decimal.Decimal `json:"subtotal,omitempty"`
}

// Valid reports whether the item is usable for stock/nominal fact emission.
// Items missing a product, a unit, or a positive quantity are dropped.
func (li LineItem) Valid() bool {
	return li.ProductID != "" && li.UnitID != "" && li.Qty.IsPositive()
}

// Total returns the nominal value of the line: the explicit subtotal if
// present, otherwise Qty*Price.
func (li LineItem) Total() decimal.Decimal {
	if li.Subtotal != nil {
		return *li.Subtotal
	}
	return li.Qty.Mul(li.Price)
}

// StockAdjustment is one (product, unit) pair in a stock opname: the counted
// quantity replaces the derived one, recorded as a signed delta fact.
type StockAdjustment struct {
	ProductID string          `json:"productUUID"`
	UnitID    string          `json:"unitUUID"`
	OldQty    decimal.Decimal `json:"oldQty"`
	NewQty    decimal.Decimal `json:"newQty"`
}

// Diff returns NewQty - OldQty.
func (a StockAdjustment) Diff() decimal.Decimal {
	return a.NewQty.Sub(a.OldQty)
}
