package checkout

import (
	"github.com/xenking/commerce-hub/internal/domain/cart"
	"github.com/xenking/commerce-hub/internal/domain/pricing"
)

// Basket is the checkout state of one session: the cart plus the order-level
// choices made on the checkout page.
type Basket struct {
	Cart     *cart.Cart
	Delivery pricing.DeliveryMethod
	Donation pricing.Donation
	// Member is set when the shopper already holds a membership, either from
	// before the session or from an earlier order in it.
	Member bool
}

// NewBasket returns an empty basket with standard delivery.
func NewBasket() *Basket {
	return &Basket{
		Cart:     cart.New(),
		Delivery: pricing.DeliveryStandard,
	}
}

// HasMembership reports whether the discount applies: an existing
// membership or one being purchased in this order.
func (b *Basket) HasMembership() bool {
	if b.Member {
		return true
	}
	_, ok := b.Cart.Membership()
	return ok
}

// Options collects the pricing options for the current state.
func (b *Basket) Options() pricing.Options {
	return pricing.Options{
		Delivery:      b.Delivery,
		HasMembership: b.HasMembership(),
		Donation:      b.Donation.Amount(),
	}
}

// Quote prices the basket as it stands.
func (b *Basket) Quote() pricing.Result {
	return pricing.Compute(b.Cart.Items(), b.Options())
}

// PurchaseMembership adds the plan's membership line, replacing any other,
// which also turns the member discount on for this order.
func (b *Basket) PurchaseMembership(p cart.Plan) error {
	return b.Cart.SetMembership(p)
}

// SetDelivery changes the delivery method.
func (b *Basket) SetDelivery(m pricing.DeliveryMethod) {
	b.Delivery = m
}
