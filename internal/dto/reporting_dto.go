package dto

import "github.com/shopspring/decimal"

// DailyTotal is one day in the sale-vs-buy time series.
type DailyTotal struct {
	Date      string          `json:"date"` // YYYY-MM-DD
	TotalSale decimal.Decimal `json:"totalSale"`
	TotalBuy  decimal.Decimal `json:"totalBuy"`
}

// CurrentStockResponse maps unit ids to their derived current quantity.
type CurrentStockResponse struct {
	Stock map[string]decimal.Decimal `json:"stock"`
}
