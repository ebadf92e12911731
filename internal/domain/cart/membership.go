package cart

import (
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Plan identifies a purchasable membership term.
type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

var (
	// ErrUnknownPlan is returned for a plan that is not offered.
	ErrUnknownPlan = errors.New("unknown membership plan")
	// ErrReservedID is returned when a product uses a membership line ID.
	ErrReservedID = errors.New("id is reserved for membership")
)

var plans = map[Plan]LineItem{
	PlanMonthly: {
		ID:        "membership-monthly",
		Title:     "961 Deals Membership (Monthly)",
		UnitPrice: decimal.RequireFromString("4.99"),
		Quantity:  1,
		Kind:      KindMembership,
	},
	PlanYearly: {
		ID:        "membership-yearly",
		Title:     "961 Deals Membership (Yearly)",
		UnitPrice: decimal.RequireFromString("49.99"),
		Quantity:  1,
		Kind:      KindMembership,
	},
}

func isMembershipID(id string) bool {
	for _, li := range plans {
		if li.ID == id {
			return true
		}
	}
	return false
}

// PlanPrice returns the price of the given plan.
func PlanPrice(p Plan) (decimal.Decimal, error) {
	li, ok := plans[p]
	if !ok {
		return decimal.Zero, ErrUnknownPlan
	}
	return li.UnitPrice, nil
}

// SetMembership puts the membership line for plan into the cart, replacing
// any existing membership line in place. A cart never holds more than one.
func (c *Cart) SetMembership(p Plan) error {
	li, ok := plans[p]
	if !ok {
		return ErrUnknownPlan
	}
	if i := c.membershipIndex(); i >= 0 {
		c.items[i] = li
	} else {
		c.items = append(c.items, li)
	}
	c.notify()
	return nil
}

// Membership returns the plan of the membership line, if any.
func (c *Cart) Membership() (Plan, bool) {
	i := c.membershipIndex()
	if i < 0 {
		return "", false
	}
	for p, li := range plans {
		if li.ID == c.items[i].ID {
			return p, true
		}
	}
	return "", false
}

// RemoveMembership drops the membership line if present.
func (c *Cart) RemoveMembership() {
	if i := c.membershipIndex(); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
		c.notify()
	}
}

func (c *Cart) membershipIndex() int {
	return slices.IndexFunc(c.items, func(it LineItem) bool { return it.Kind == KindMembership })
}
