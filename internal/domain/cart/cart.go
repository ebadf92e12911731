// Package cart holds the shopper's de-duplicated list of line items and the
// derived count and total used by the cart badge and progress displays.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Kind distinguishes regular products from the membership add-on.
type Kind string

const (
	// KindProduct is a catalog product.
	KindProduct Kind = "product"
	// KindMembership is the discount membership add-on. It is excluded from
	// the percentage discount and from the free-delivery threshold.
	KindMembership Kind = "membership"
)

// LineItem is one distinct product (by ID) with its quantity and unit price.
type LineItem struct {
	ID        string
	Title     string
	Image     string
	UnitPrice decimal.Decimal
	Quantity  int
	Kind      Kind
}

// LineTotal returns UnitPrice * Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Product is the input to AddItem.
type Product struct {
	ID        string
	Title     string
	Image     string
	UnitPrice decimal.Decimal
}

// Listener receives a copy of the items after every completed mutation.
type Listener func(items []LineItem)

// Cart is the aggregate root for one session's purchase intent. Items keep
// the order in which they were first added. The zero value is an empty cart.
//
// Cart is not safe for concurrent use; the owning session serializes access.
type Cart struct {
	items     []LineItem
	listeners map[int]Listener
	nextID    int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddItem increments the quantity of the line with the same ID, refreshing
// its other fields from p, or appends a new line with quantity 1. IDs of the
// membership lines are rejected with ErrReservedID.
func (c *Cart) AddItem(p Product) error {
	if isMembershipID(p.ID) {
		return ErrReservedID
	}
	if i := c.index(p.ID); i >= 0 {
		c.items[i] = LineItem{
			ID:        p.ID,
			Title:     p.Title,
			Image:     p.Image,
			UnitPrice: p.UnitPrice,
			Quantity:  c.items[i].Quantity + 1,
			Kind:      KindProduct,
		}
	} else {
		c.items = append(c.items, LineItem{
			ID:        p.ID,
			Title:     p.Title,
			Image:     p.Image,
			UnitPrice: p.UnitPrice,
			Quantity:  1,
			Kind:      KindProduct,
		})
	}
	c.notify()
	return nil
}

// RemoveItem deletes the line with the given ID regardless of its quantity.
// Removing an absent ID is a no-op.
func (c *Cart) RemoveItem(id string) {
	i := c.index(id)
	if i < 0 {
		return
	}
	c.items = slices.Delete(c.items, i, i+1)
	c.notify()
}

// DecrementItem lowers the quantity of the line by one, removing it when the
// quantity is 1. The change is applied in a single step, so listeners never
// see the line missing when it should only have shrunk.
func (c *Cart) DecrementItem(id string) {
	i := c.index(id)
	if i < 0 {
		return
	}
	if c.items[i].Quantity <= 1 {
		c.items = slices.Delete(c.items, i, i+1)
	} else {
		c.items[i].Quantity--
	}
	c.notify()
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
	c.notify()
}

// Count returns the sum of all quantities.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Total returns the sum of UnitPrice * Quantity over all lines.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []LineItem {
	return slices.Clone(c.items)
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// Subscribe registers fn to be called synchronously after every mutation.
// The returned func removes the listener.
func (c *Cart) Subscribe(fn Listener) (unsubscribe func()) {
	if c.listeners == nil {
		c.listeners = make(map[int]Listener)
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

func (c *Cart) index(id string) int {
	return slices.IndexFunc(c.items, func(it LineItem) bool { return it.ID == id })
}

func (c *Cart) notify() {
	if len(c.listeners) == 0 {
		return
	}
	snapshot := c.Items()
	for _, fn := range c.listeners {
		fn(slices.Clone(snapshot))
	}
}
