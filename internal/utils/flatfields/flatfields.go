// Package flatfields converts between structured line items and the flat
// indexed field map used in transaction payloads ("product_uuid#0",
// "qty#0", ...). A legacy underscore form ("qty_0") is still accepted on
// the way in; writing always uses the hash delimiter.
package flatfields

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tokosume/toko_backoffice_app/internal/core/domain"
)

// Delimiter separates the field name from the line index in a flat key.
const Delimiter = "#"

const legacyDelimiter = "_"

// Recognized per-line field names.
const (
	FieldProductUUID = "product_uuid"
	FieldUnitUUID    = "unit_uuid"
	FieldQty         = "qty"
	FieldPrice       = "price"
	FieldBuyPrice    = "buy_price" // alias of price on purchase payloads
	FieldSubtotal    = "subtotal"
)

// Reconstruct parses a flat field map back into line items ordered by index.
// Keys whose trailing segment is not a non-negative integer are ignored, as
// are field names outside the recognized set; validity filtering (missing
// product, non-positive qty) is left to the consumer.
func Reconstruct(fields map[string]string) []domain.LineItem {
	byIndex := make(map[int]*domain.LineItem)

	for key, value := range fields {
		field, index, ok := splitIndexed(key)
		if !ok {
			continue
		}
		item, exists := byIndex[index]
		if !exists {
			item = &domain.LineItem{Index: index}
			byIndex[index] = item
		}
		switch field {
		case FieldProductUUID:
			item.ProductID = value
		case FieldUnitUUID:
			item.UnitID = value
		case FieldQty:
			if d, err := decimal.NewFromString(value); err == nil {
				item.Qty = d
			}
		case FieldPrice, FieldBuyPrice:
			if d, err := decimal.NewFromString(value); err == nil {
				item.Price = d
			}
		case FieldSubtotal:
			if d, err := decimal.NewFromString(value); err == nil {
				item.Subtotal = &d
			}
		}
	}

	indexes := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	items := make([]domain.LineItem, 0, len(indexes))
	for _, i := range indexes {
		items = append(items, *byIndex[i])
	}
	return items
}

// Flatten encodes line items into the flat indexed form Reconstruct parses.
// The slice position becomes the index.
func Flatten(items []domain.LineItem) map[string]string {
	fields := make(map[string]string, len(items)*4)
	for i, item := range items {
		suffix := Delimiter + strconv.Itoa(i)
		fields[FieldProductUUID+suffix] = item.ProductID
		fields[FieldUnitUUID+suffix] = item.UnitID
		fields[FieldQty+suffix] = item.Qty.String()
		fields[FieldPrice+suffix] = item.Price.String()
		if item.Subtotal != nil {
			fields[FieldSubtotal+suffix] = item.Subtotal.String()
		}
	}
	return fields
}

// splitIndexed splits a key into field name and line index. The last
// delimiter-separated segment is the index; everything before it, rejoined,
// is the field name. This keeps field names that themselves contain the
// delimiter intact ("product_uuid_0" -> "product_uuid", 0).
func splitIndexed(key string) (field string, index int, ok bool) {
	delim := legacyDelimiter
	if strings.Contains(key, Delimiter) {
		delim = Delimiter
	}
	pos := strings.LastIndex(key, delim)
	if pos <= 0 || pos == len(key)-1 {
		return "", 0, false
	}
	index, err := strconv.Atoi(key[pos+1:])
	if err != nil || index < 0 {
		return "", 0, false
	}
	return key[:pos], index, true
}
