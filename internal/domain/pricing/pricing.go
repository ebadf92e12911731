// Package pricing turns a list of cart lines plus order-level options into a
// fully itemized order total.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/commerce-hub/internal/domain/cart"
)

// DeliveryMethod selects the delivery fee tier.
type DeliveryMethod string

const (
	DeliveryStandard DeliveryMethod = "standard"
	DeliveryPriority DeliveryMethod = "priority"
)

// ErrUnknownDelivery is returned by ParseDelivery for unsupported methods.
var ErrUnknownDelivery = errors.New("unknown delivery method")

// ParseDelivery validates a delivery method name.
func ParseDelivery(s string) (DeliveryMethod, error) {
	switch m := DeliveryMethod(s); m {
	case DeliveryStandard, DeliveryPriority:
		return m, nil
	default:
		return "", ErrUnknownDelivery
	}
}

var (
	freeDeliveryThreshold = decimal.NewFromInt(20)
	standardFee           = decimal.RequireFromString("3.50")
	priorityFee           = decimal.RequireFromString("4.99")
	memberDiscountRate    = decimal.RequireFromString("0.10")
	pointsPerUnit         = decimal.NewFromInt(20)
)

// Options are the order-level inputs that are not cart lines.
type Options struct {
	Delivery      DeliveryMethod
	HasMembership bool
	Donation      decimal.Decimal
}

// Result is the itemized order total. Amounts are exact; callers round for
// display.
type Result struct {
	ProductSubtotal decimal.Decimal
	MembershipCost  decimal.Decimal
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	DeliveryFee     decimal.Decimal
	Donation        decimal.Decimal
	Total           decimal.Decimal
	PointsEarned    int64
}

// Compute prices an order. Inputs are assumed well-formed: non-negative
// prices and donation, quantities of at least 1.
func Compute(items []cart.LineItem, opts Options) Result {
	productSubtotal := decimal.Zero
	membershipCost := decimal.Zero
	for _, it := range items {
		switch it.Kind {
		case cart.KindMembership:
			membershipCost = it.UnitPrice
		default:
			productSubtotal = productSubtotal.Add(it.LineTotal())
		}
	}

	discount := decimal.Zero
	if opts.HasMembership {
		discount = productSubtotal.Mul(memberDiscountRate)
	}

	subtotal := productSubtotal.Add(membershipCost)
	fee := DeliveryFee(productSubtotal, opts.Delivery)
	total := subtotal.Add(fee).Sub(discount).Add(opts.Donation)

	return Result{
		ProductSubtotal: productSubtotal,
		MembershipCost:  membershipCost,
		Subtotal:        subtotal,
		Discount:        discount,
		DeliveryFee:     fee,
		Donation:        opts.Donation,
		Total:           total,
		PointsEarned:    Points(total),
	}
}

// DeliveryFee is a step function of the product subtotal: free from 20,
// otherwise a flat fee per method. An unset method is charged as standard.
func DeliveryFee(productSubtotal decimal.Decimal, m DeliveryMethod) decimal.Decimal {
	if productSubtotal.GreaterThanOrEqual(freeDeliveryThreshold) {
		return decimal.Zero
	}
	if m == DeliveryPriority {
		return priorityFee
	}
	return standardFee
}

// Points returns round(total * 20), rounding half away from zero.
func Points(total decimal.Decimal) int64 {
	return total.Mul(pointsPerUnit).Round(0).IntPart()
}

// AmountToFreeDelivery returns how much more product subtotal is needed for
// free delivery, or zero once the threshold is reached.
func AmountToFreeDelivery(productSubtotal decimal.Decimal) decimal.Decimal {
	rest := freeDeliveryThreshold.Sub(productSubtotal)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}
