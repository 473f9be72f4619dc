// Package factcodec defines the canonical key scheme for journal facts and
// decodes raw key/value pairs into a small closed set of tagged variants.
// Both sides of the ledger go through it: the transaction encoder builds keys
// with the helpers here, the aggregators decode with the parser registry, so
// correctness never depends on ad hoc string convention discipline.
package factcodec

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Key prefixes for per-(product, unit) facts.
const (
	PrefixStockPlus   = "stok_plus_"     // stock increase
	PrefixStockMin    = "stok_min_"      // stock decrease
	PrefixAdjustMeta  = "stok_adj_meta_" // JSON{diff, old, new} audit metadata
	PrefixNominalSale = "nominal_sale_"
	PrefixNominalBuy  = "nominal_buy_"
)

// Exact-match keys for journal-level facts.
const (
	KeyNominalAR       = "nominal_ar"
	KeyNominalAP       = "nominal_ap"
	KeyNominalARGlobal = "nominal_ar_global"
	KeyNominalAPGlobal = "nominal_ap_global"
	KeyNominalARPaid   = "nominal_ar_paid"
	KeyNominalAPPaid   = "nominal_ap_paid"
	KeyGrandTotal      = "grand_total"
)

// Well-known caller-supplied field names.
const (
	KeyAmount           = "amount"
	KeyIsCredit         = "is_credit"
	KeyDueDate          = "due_date"
	KeyCustomerName     = "customer_name"
	KeySupplier         = "supplier"
	KeyPaymentMethod    = "payment_method"
	KeyReferenceJournal = "reference_journal_code"
)

// NominalKind tags the flavor of a monetary fact.
type NominalKind string

const (
	KindSale             NominalKind = "sale"
	KindBuy              NominalKind = "buy"
	KindReceivable       NominalKind = "ar"
	KindPayable          NominalKind = "ap"
	KindReceivableGlobal NominalKind = "ar_global"
	KindPayableGlobal    NominalKind = "ap_global"
	KindReceivablePaid   NominalKind = "ar_paid"
	KindPayablePaid      NominalKind = "ap_paid"
	KindGrandTotal       NominalKind = "grand_total"
)

// Decoded is the closed set of fact variants.
type Decoded interface {
	isDecoded()
}

// StockDelta is a signed inventory movement for a (product, unit) pair.
type StockDelta struct {
	ProductID string
	UnitID    string
	Qty       decimal.Decimal // positive for stok_plus_, negative for stok_min_
}

// NominalEntry is a monetary fact. ProductID/UnitID are set only for the
// per-line nominal_sale_/nominal_buy_ keys.
type NominalEntry struct {
	Kind      NominalKind
	ProductID string
	UnitID    string
	Amount    decimal.Decimal
}

// MetadataEntry is any fact the registry has no structured parser for.
type MetadataEntry struct {
	Name  string
	Value string
}

func (StockDelta) isDecoded()    {}
func (NominalEntry) isDecoded()  {}
func (MetadataEntry) isDecoded() {}

type prefixParser struct {
	prefix string
	parse  func(rest, value string) (Decoded, error)
}

// Codec decodes fact keys through parsers registered per prefix or exact key.
type Codec struct {
	exact    map[string]func(value string) (Decoded, error)
	prefixed []prefixParser
}

// New builds a codec with all default parsers registered.
func New() *Codec {
	c := &Codec{exact: make(map[string]func(string) (Decoded, error))}

	stock := func(sign decimal.Decimal) func(rest, value string) (Decoded, error) {
		return func(rest, value string) (Decoded, error) {
			productID, unitID, err := splitPair(rest)
			if err != nil {
				return nil, err
			}
			qty, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("stock fact value %q is not numeric: %w", value, err)
			}
			return StockDelta{ProductID: productID, UnitID: unitID, Qty: qty.Mul(sign)}, nil
		}
	}
	nominalPair := func(kind NominalKind) func(rest, value string) (Decoded, error) {
		return func(rest, value string) (Decoded, error) {
			productID, unitID, err := splitPair(rest)
			if err != nil {
				return nil, err
			}
			amount, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("nominal fact value %q is not numeric: %w", value, err)
			}
			return NominalEntry{Kind: kind, ProductID: productID, UnitID: unitID, Amount: amount}, nil
		}
	}
	nominal := func(kind NominalKind) func(value string) (Decoded, error) {
		return func(value string) (Decoded, error) {
			amount, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("nominal fact value %q is not numeric: %w", value, err)
			}
			return NominalEntry{Kind: kind, Amount: amount}, nil
		}
	}

	c.registerPrefix(PrefixAdjustMeta, func(rest, value string) (Decoded, error) {
		// Adjustment audit metadata stays opaque; aggregation only reads the
		// paired stok_plus_/stok_min_ deltas.
		return MetadataEntry{Name: PrefixAdjustMeta + rest, Value: value}, nil
	})
	c.registerPrefix(PrefixStockPlus, stock(decimal.NewFromInt(1)))
	c.registerPrefix(PrefixStockMin, stock(decimal.NewFromInt(-1)))
	c.registerPrefix(PrefixNominalSale, nominalPair(KindSale))
	c.registerPrefix(PrefixNominalBuy, nominalPair(KindBuy))

	c.exact[KeyNominalAR] = nominal(KindReceivable)
	c.exact[KeyNominalAP] = nominal(KindPayable)
	c.exact[KeyNominalARGlobal] = nominal(KindReceivableGlobal)
	c.exact[KeyNominalAPGlobal] = nominal(KindPayableGlobal)
	c.exact[KeyNominalARPaid] = nominal(KindReceivablePaid)
	c.exact[KeyNominalAPPaid] = nominal(KindPayablePaid)
	c.exact[KeyGrandTotal] = nominal(KindGrandTotal)

	return c
}

func (c *Codec) registerPrefix(prefix string, parse func(rest, value string) (Decoded, error)) {
	c.prefixed = append(c.prefixed, prefixParser{prefix: prefix, parse: parse})
}

// Decode parses one fact. Keys without a registered parser decode to a
// MetadataEntry; a registered key with a malformed payload is an error.
func (c *Codec) Decode(key, value string) (Decoded, error) {
	if parse, ok := c.exact[key]; ok {
		return parse(value)
	}
	for _, p := range c.prefixed {
		if strings.HasPrefix(key, p.prefix) {
			return p.parse(strings.TrimPrefix(key, p.prefix), value)
		}
	}
	return MetadataEntry{Name: key, Value: value}, nil
}

// PrefixesFor returns the stock and nominal key prefixes for a line-item
// transaction type. The sign convention: stok_plus_ increases stock,
// stok_min_ decreases it; returns also carry the original sale/buy nominal.
func PrefixesFor(txnType string) (stockPrefix, nominalPrefix string, ok bool) {
	switch txnType {
	case "SALE":
		return PrefixStockMin, PrefixNominalSale, true
	case "BUY":
		return PrefixStockPlus, PrefixNominalBuy, true
	case "RT_SALE":
		return PrefixStockPlus, PrefixNominalSale, true
	case "RT_BUY":
		return PrefixStockMin, PrefixNominalBuy, true
	}
	return "", "", false
}

// PairKey builds "{prefix}{productID}_{unitID}".
func PairKey(prefix, productID, unitID string) string {
	return prefix + productID + "_" + unitID
}

// splitPair breaks "{productID}_{unitID}" at the last underscore, so product
// ids that themselves contain underscores survive.
func splitPair(rest string) (productID, unitID string, err error) {
	i := strings.LastIndex(rest, "_")
	if i <= 0 || i == len(rest)-1 {
		return "", "", fmt.Errorf("malformed pair key remainder %q", rest)
	}
	return rest[:i], rest[i+1:], nil
}
