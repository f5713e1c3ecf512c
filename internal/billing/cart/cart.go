// Package cart holds the transient selection of items for the invoice being
// built. A Cart is an immutable value: every operation returns a new Cart and
// leaves its input untouched, so views can hold on to old states freely.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
)

// ErrEmptyCart is returned when an empty cart is submitted.
var ErrEmptyCart = errors.New("cart is empty")

// Entry is one selected item with its quantity. Quantity is always >= 1
// while the entry exists; entries are removed instead of kept at zero.
type Entry struct {
	Item     domain.Item
	Quantity int
}

// Cart is an insertion-ordered list of entries, at most one per item id.
// The zero value is an empty cart ready for use.
type Cart struct {
	entries []Entry
}

// New builds a cart from entries, keeping the first occurrence of each item
// id. Mostly useful in tests.
func New(entries ...Entry) Cart {
	c := Cart{}
	for _, e := range entries {
		if e.Quantity < 1 {
			continue
		}
		if _, ok := c.find(e.Item.ID); ok {
			continue
		}
		c.entries = append(c.entries, e)
	}
	return c
}

// Entries returns a copy of the cart's entries in insertion order.
func (c Cart) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of distinct items in the cart.
func (c Cart) Len() int { return len(c.entries) }

// Empty reports whether the cart has no entries.
func (c Cart) Empty() bool { return len(c.entries) == 0 }

// Units returns the total quantity across all entries.
func (c Cart) Units() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

func (c Cart) find(itemID uint64) (int, bool) {
	for i, e := range c.entries {
		if e.Item.ID == itemID {
			return i, true
		}
	}
	return 0, false
}

// clone copies the entry slice so mutations never alias a previous state.
func (c Cart) clone() Cart {
	out := Cart{entries: make([]Entry, len(c.entries))}
	copy(out.entries, c.entries)
	return out
}

// Add increments the quantity of an existing entry for item.ID, or appends a
// new entry with quantity 1.
func (c Cart) Add(item domain.Item) Cart {
	next := c.clone()
	if i, ok := next.find(item.ID); ok {
		next.entries[i].Quantity++
		return next
	}
	next.entries = append(next.entries, Entry{Item: item, Quantity: 1})
	return next
}

// AdjustQuantity changes an entry's quantity by delta, clamping at zero and
// dropping the entry when it reaches zero. Unknown item ids are a no-op.
func (c Cart) AdjustQuantity(itemID uint64, delta int) Cart {
	i, ok := c.find(itemID)
	if !ok {
		return c
	}
	next := c.clone()
	q := next.entries[i].Quantity + delta
	if q <= 0 {
		next.entries = append(next.entries[:i], next.entries[i+1:]...)
		return next
	}
	next.entries[i].Quantity = q
	return next
}

// Remove drops the entry for itemID if present.
func (c Cart) Remove(itemID uint64) Cart {
	i, ok := c.find(itemID)
	if !ok {
		return c
	}
	next := c.clone()
	next.entries = append(next.entries[:i], next.entries[i+1:]...)
	return next
}

// Subtotal sums price * quantity over all entries. Zero for an empty cart.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range c.entries {
		sum = sum.Add(domain.LineSubtotal(e.Item.Price, e.Quantity))
	}
	return sum
}

// Tax applies the fixed rate to the subtotal.
func (c Cart) Tax() decimal.Decimal {
	return domain.Tax(c.Subtotal())
}

// GrandTotal is subtotal plus tax, the amount presented as payable.
func (c Cart) GrandTotal() decimal.Decimal {
	return domain.GrandTotal(c.Subtotal())
}

// ToInvoiceRequest serializes the cart into the server's write shape, one
// line per entry in insertion order. Fails with ErrEmptyCart on an empty
// cart so no request is ever sent for it.
func (c Cart) ToInvoiceRequest() (domain.CreateInvoiceRequest, error) {
	if c.Empty() {
		return domain.CreateInvoiceRequest{}, ErrEmptyCart
	}
	req := domain.CreateInvoiceRequest{Items: make([]domain.InvoiceLine, 0, len(c.entries))}
	for _, e := range c.entries {
		req.Items = append(req.Items, domain.InvoiceLine{ItemID: e.Item.ID, Quantity: e.Quantity})
	}
	return req, nil
}
