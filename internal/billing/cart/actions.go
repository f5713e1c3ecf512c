package cart

import "github.com/nazeru/pizza-billing-go/internal/billing/domain"

// Action is a cart state transition. Views dispatch actions through Apply
// instead of mutating shared state, which keeps the cart testable away from
// any rendering code.
type Action interface {
	apply(Cart) Cart
}

// AddAction puts one more unit of Item in the cart.
type AddAction struct {
	Item domain.Item
}

// AdjustAction changes the quantity of an existing entry by Delta.
type AdjustAction struct {
	ItemID uint64
	Delta  int
}

// RemoveAction drops an entry regardless of quantity.
type RemoveAction struct {
	ItemID uint64
}

// ClearAction empties the cart, used after a successful submission.
type ClearAction struct{}

func (a AddAction) apply(c Cart) Cart    { return c.Add(a.Item) }
func (a AdjustAction) apply(c Cart) Cart { return c.AdjustQuantity(a.ItemID, a.Delta) }
func (a RemoveAction) apply(c Cart) Cart { return c.Remove(a.ItemID) }
func (ClearAction) apply(Cart) Cart      { return Cart{} }

// Apply is the reducer: (cart, action) -> cart. A nil action returns the
// cart unchanged.
func Apply(c Cart, a Action) Cart {
	if a == nil {
		return c
	}
	return a.apply(c)
}
