package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/commerce-hub/internal/domain/cart"
	"github.com/xenking/commerce-hub/internal/domain/checkout"
	"github.com/xenking/commerce-hub/internal/domain/pricing"
)

func (h *Handler) setDelivery(w http.ResponseWriter, r *http.Request) {
	var method string
	if err := decodeObject(r, stringField("method", &method)); err != nil {
		badRequest(w, err)
		return
	}
	m, err := pricing.ParseDelivery(method)
	if err != nil {
		fail(w, r, err, checkoutError)
		return
	}
	b := sessionFrom(r).Basket
	b.SetDelivery(m)
	writeQuote(w, b)
}

func (h *Handler) buyMembership(w http.ResponseWriter, r *http.Request) {
	var plan string
	if err := decodeObject(r, stringField("plan", &plan)); err != nil {
		badRequest(w, err)
		return
	}
	b := sessionFrom(r).Basket
	if err := b.PurchaseMembership(cart.Plan(plan)); err != nil {
		fail(w, r, err, checkoutError)
		return
	}
	writeQuote(w, b)
}

// setDonation takes either {"preset": 5} or {"custom": "12.50"}. A null
// custom switches to custom entry and keeps the current amount.
func (h *Handler) setDonation(w http.ResponseWriter, r *http.Request) {
	var (
		preset    decimal.Decimal
		hasPreset bool
		custom    string
		hasCustom bool
		pending   bool
	)
	if err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "preset":
			preset, err = decodeDecimal(d)
			hasPreset = true
		case "custom":
			hasCustom = true
			if d.Next() == jx.Null {
				pending = true
				return d.Null()
			}
			custom, err = decodeNumberText(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		badRequest(w, err)
		return
	}
	if hasPreset == hasCustom {
		badRequest(w, errors.New("exactly one of preset or custom is required"))
		return
	}

	b := sessionFrom(r).Basket
	// Work on a copy so a rejected value leaves the session untouched.
	d := b.Donation
	var err error
	switch {
	case hasPreset:
		err = d.SelectPreset(preset)
	case pending:
		d.SelectCustom()
	default:
		err = d.EnterCustom(custom)
	}
	if err != nil {
		fail(w, r, err, checkoutError)
		return
	}
	b.Donation = d
	writeQuote(w, b)
}

func (h *Handler) getQuote(w http.ResponseWriter, r *http.Request) {
	writeQuote(w, sessionFrom(r).Basket)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.checkout.PlaceOrder(r.Context(), sessionFrom(r).Basket, h.now())
	if err != nil {
		fail(w, r, err, checkoutError)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("number", func(e *jx.Encoder) { e.Str(receipt.Number) })
			e.Field("placedAt", func(e *jx.Encoder) { e.Str(receipt.PlacedAt.UTC().Format(time.RFC3339)) })
			e.Field("delivery", func(e *jx.Encoder) { e.Str(string(receipt.Delivery)) })
			e.Field("items", func(e *jx.Encoder) { encodeLines(e, receipt.Lines) })
			e.Field("pricing", func(e *jx.Encoder) { encodeResult(e, receipt.Pricing) })
		})
	})
}

func writeQuote(w http.ResponseWriter, b *checkout.Basket) {
	q := b.Quote()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("delivery", func(e *jx.Encoder) { e.Str(string(b.Delivery)) })
			e.Field("member", func(e *jx.Encoder) { e.Bool(b.HasMembership()) })
			e.Field("donation", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("amount", func(e *jx.Encoder) { money(e, b.Donation.Amount()) })
					e.Field("custom", func(e *jx.Encoder) { e.Bool(b.Donation.Custom()) })
					e.Field("presets", func(e *jx.Encoder) {
						e.Arr(func(e *jx.Encoder) {
							for _, p := range pricing.DonationPresets() {
								money(e, p)
							}
						})
					})
				})
			})
			e.Field("amountToFreeDelivery", func(e *jx.Encoder) {
				money(e, pricing.AmountToFreeDelivery(q.ProductSubtotal))
			})
			e.Field("pricing", func(e *jx.Encoder) { encodeResult(e, q) })
		})
	})
}

func encodeResult(e *jx.Encoder, q pricing.Result) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productSubtotal", func(e *jx.Encoder) { money(e, q.ProductSubtotal) })
		e.Field("membershipCost", func(e *jx.Encoder) { money(e, q.MembershipCost) })
		e.Field("subtotal", func(e *jx.Encoder) { money(e, q.Subtotal) })
		e.Field("discount", func(e *jx.Encoder) { money(e, q.Discount) })
		e.Field("deliveryFee", func(e *jx.Encoder) { money(e, q.DeliveryFee) })
		e.Field("donation", func(e *jx.Encoder) { money(e, q.Donation) })
		e.Field("total", func(e *jx.Encoder) { money(e, q.Total) })
		e.Field("pointsEarned", func(e *jx.Encoder) { e.Int64(q.PointsEarned) })
	})
}

func stringField(name string, dst *string) func(d *jx.Decoder, key string) error {
	return func(d *jx.Decoder, key string) error {
		if key != name {
			return d.Skip()
		}
		v, err := d.Str()
		*dst = v
		return err
	}
}
