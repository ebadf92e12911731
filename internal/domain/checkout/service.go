// Package checkout wires the cart, the catalog and the pricing engine into
// the storefront's add-to-cart and place-order operations.
package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/commerce-hub/internal/domain/cart"
	"github.com/xenking/commerce-hub/internal/domain/pricing"
	"github.com/xenking/commerce-hub/internal/domain/product"
)

// ErrEmptyCart is returned when placing an order with no product lines.
var ErrEmptyCart = errors.New("cart is empty")

// Receipt is the confirmation of a placed order.
type Receipt struct {
	Number   string
	PlacedAt time.Time
	Lines    []cart.LineItem
	Delivery pricing.DeliveryMethod
	Pricing  pricing.Result
}

// Service implements the storefront checkout operations. Basket access must
// be serialized by the caller.
type Service struct {
	products product.Repository

	orders metric.Int64Counter
	points metric.Int64Counter
	adds   metric.Int64Counter
}

// NewService creates a checkout Service. Counters are registered on meter.
func NewService(products product.Repository, meter metric.Meter) (*Service, error) {
	orders, err := meter.Int64Counter("checkout.orders",
		metric.WithDescription("Orders placed"))
	if err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	points, err := meter.Int64Counter("checkout.points",
		metric.WithDescription("Loyalty points issued"))
	if err != nil {
		return nil, errors.Wrap(err, "points counter")
	}
	adds, err := meter.Int64Counter("checkout.cart_adds",
		metric.WithDescription("Products added to carts"))
	if err != nil {
		return nil, errors.Wrap(err, "cart adds counter")
	}
	return &Service{
		products: products,
		orders:   orders,
		points:   points,
		adds:     adds,
	}, nil
}

// AddProduct looks the product up in the catalog and adds one unit of it to
// the basket's cart.
func (s *Service) AddProduct(ctx context.Context, b *Basket, productID string) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "get product %s", productID)
	}
	if err := b.Cart.AddItem(p.CartProduct()); err != nil {
		return nil, errors.Wrapf(err, "add product %s", productID)
	}
	s.adds.Add(ctx, 1, metric.WithAttributes(attribute.String("category", p.Category)))
	return p, nil
}

// PlaceOrder prices the basket, issues a receipt and resets the basket for
// the next order. A membership bought in this order makes the shopper a
// member for the rest of the session.
func (s *Service) PlaceOrder(ctx context.Context, b *Basket, now time.Time) (*Receipt, error) {
	lines := b.Cart.Items()
	hasProduct := false
	for _, li := range lines {
		if li.Kind == cart.KindProduct {
			hasProduct = true
			break
		}
	}
	if !hasProduct {
		return nil, ErrEmptyCart
	}

	result := pricing.Compute(lines, b.Options())
	id, err := ulid.New(ulid.Timestamp(now), ulid.DefaultEntropy())
	if err != nil {
		return nil, errors.Wrap(err, "order number")
	}

	r := &Receipt{
		Number:   id.String(),
		PlacedAt: now,
		Lines:    lines,
		Delivery: b.Delivery,
		Pricing:  result,
	}

	member := b.HasMembership()
	if _, purchased := b.Cart.Membership(); purchased {
		b.Member = true
	}
	b.Cart.Clear()
	b.Donation.Reset()

	attrs := metric.WithAttributes(
		attribute.String("delivery", string(r.Delivery)),
		attribute.Bool("member", member),
	)
	s.orders.Add(ctx, 1, attrs)
	s.points.Add(ctx, result.PointsEarned, attrs)

	zctx.From(ctx).Info("Order placed",
		zap.String("order", r.Number),
		zap.Int("lines", len(lines)),
		zap.Stringer("total", result.Total),
		zap.Int64("points", result.PointsEarned),
	)
	return r, nil
}
