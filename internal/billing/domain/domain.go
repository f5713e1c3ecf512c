package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money travels on the wire as plain JSON numbers, same as the API contract.
	decimal.MarshalJSONWithoutQuotes = true
}

// TaxRate is the flat sales tax applied to every invoice. Not configurable.
var TaxRate = decimal.New(10, -2) // 0.10

// CurrencyPrefix is prepended to every rendered amount.
const CurrencyPrefix = "$"

const (
	CategoryPizza    = "Pizza"
	CategoryTopping  = "Topping"
	CategoryBeverage = "Beverage"
)

type Item struct {
	ID           uint64          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Availability bool            `json:"availability"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty"`
}

type InvoiceItem struct {
	ID        uint64          `json:"id"`
	InvoiceID uint64          `json:"invoice_id"`
	ItemID    uint64          `json:"item_id"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Item      Item            `json:"item"`
}

type Invoice struct {
	ID           uint64          `json:"id"`
	Date         time.Time       `json:"date"`
	Total        decimal.Decimal `json:"total"`
	Tax          decimal.Decimal `json:"tax"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	InvoiceItems []InvoiceItem   `json:"invoice_items"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
}

// InvoiceLine is one (item, quantity) pair of an invoice creation request.
type InvoiceLine struct {
	ItemID   uint64 `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// CreateInvoiceRequest is the only write shape for invoice creation. The
// server resolves prices itself; the client never submits amounts.
type CreateInvoiceRequest struct {
	Items []InvoiceLine `json:"items"`
}

var ErrNoLines = errors.New("invoice must have at least one item")

func (r CreateInvoiceRequest) Validate() error {
	if len(r.Items) == 0 {
		return ErrNoLines
	}
	for i, line := range r.Items {
		if line.ItemID == 0 {
			return fmt.Errorf("line %d: item_id is required", i)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("line %d: quantity must be >= 1", i)
		}
	}
	return nil
}

// Tax returns the tax owed on a total, rounded to cents.
func Tax(total decimal.Decimal) decimal.Decimal {
	return total.Mul(TaxRate).Round(2)
}

// GrandTotal returns total plus tax.
func GrandTotal(total decimal.Decimal) decimal.Decimal {
	return total.Add(Tax(total))
}

// LineSubtotal is price * quantity rounded to cents.
func LineSubtotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// FormatMoney renders an amount with the fixed currency prefix and two
// decimal places, e.g. "$8.99".
func FormatMoney(d decimal.Decimal) string {
	return CurrencyPrefix + d.StringFixed(2)
}
