package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/commerce-hub/internal/domain/cart"
	"github.com/xenking/commerce-hub/internal/domain/checkout"
	"github.com/xenking/commerce-hub/internal/domain/pricing"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	writeCart(w, http.StatusOK, sessionFrom(r).Basket)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var productID string
	if err := decodeObject(r, stringField("productId", &productID)); err != nil {
		badRequest(w, err)
		return
	}
	if productID == "" {
		badRequest(w, errors.New("productId is required"))
		return
	}

	b := sessionFrom(r).Basket
	if _, err := h.checkout.AddProduct(r.Context(), b, productID); err != nil {
		fail(w, r, err, cartError)
		return
	}
	writeCart(w, http.StatusOK, b)
}

func (h *Handler) decrementCartItem(w http.ResponseWriter, r *http.Request) {
	b := sessionFrom(r).Basket
	b.Cart.DecrementItem(chi.URLParam(r, "id"))
	writeCart(w, http.StatusOK, b)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	b := sessionFrom(r).Basket
	b.Cart.RemoveItem(chi.URLParam(r, "id"))
	writeCart(w, http.StatusOK, b)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	b := sessionFrom(r).Basket
	b.Cart.Clear()
	writeCart(w, http.StatusOK, b)
}

func writeCart(w http.ResponseWriter, status int, b *checkout.Basket) {
	items := b.Cart.Items()
	quote := pricing.Compute(items, b.Options())
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) { encodeLines(e, items) })
			e.Field("count", func(e *jx.Encoder) { e.Int(b.Cart.Count()) })
			e.Field("total", func(e *jx.Encoder) { money(e, b.Cart.Total()) })
			e.Field("amountToFreeDelivery", func(e *jx.Encoder) {
				money(e, pricing.AmountToFreeDelivery(quote.ProductSubtotal))
			})
		})
	})
}

func encodeLines(e *jx.Encoder, items []cart.LineItem) {
	e.Arr(func(e *jx.Encoder) {
		for _, li := range items {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(li.ID) })
				e.Field("title", func(e *jx.Encoder) { e.Str(li.Title) })
				e.Field("image", func(e *jx.Encoder) { e.Str(li.Image) })
				e.Field("kind", func(e *jx.Encoder) { e.Str(string(li.Kind)) })
				e.Field("unitPrice", func(e *jx.Encoder) { money(e, li.UnitPrice) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(li.Quantity) })
				e.Field("lineTotal", func(e *jx.Encoder) { money(e, li.LineTotal()) })
			})
		}
	})
}
