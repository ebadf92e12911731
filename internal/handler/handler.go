// Package handler exposes the storefront, agent and onboarding operations
// over JSON/HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/commerce-hub/internal/domain/checkout"
	"github.com/xenking/commerce-hub/internal/domain/product"
	"github.com/xenking/commerce-hub/internal/session"
	"github.com/xenking/commerce-hub/pkg/httpmiddleware"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	ImageBaseURL string
}

// Handler serves the API. Every session route runs with the session locked.
type Handler struct {
	products product.Repository
	checkout *checkout.Service
	sessions *session.Store

	imageBaseURL string
	now          func() time.Time
}

// New constructs a Handler.
func New(cfg Config, products product.Repository, svc *checkout.Service, sessions *session.Store) *Handler {
	return &Handler{
		products:     products,
		checkout:     svc,
		sessions:     sessions,
		imageBaseURL: cfg.ImageBaseURL,
		now:          time.Now,
	}
}

// Routes returns the API router, meant to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)

	r.Post("/sessions", h.createSession)
	r.Route("/sessions/{sid}", func(r chi.Router) {
		r.Use(h.loadSession)
		r.Delete("/", h.deleteSession)

		r.Get("/cart", h.getCart)
		r.Delete("/cart", h.clearCart)
		r.Post("/cart/items", h.addCartItem)
		r.Delete("/cart/items/{id}", h.removeCartItem)
		r.Post("/cart/items/{id}/decrement", h.decrementCartItem)

		r.Put("/checkout/delivery", h.setDelivery)
		r.Post("/checkout/membership", h.buyMembership)
		r.Put("/checkout/donation", h.setDonation)
		r.Get("/checkout/quote", h.getQuote)
		r.Post("/checkout/orders", h.placeOrder)

		r.Get("/agent/settlement", h.getSettlement)
		r.Post("/agent/settlement/topups", h.recordTopUp)
		r.Post("/agent/settlement/settlements", h.recordSettlement)
		r.Put("/agent/fee", h.changeFee)

		r.Get("/onboarding/{flow}", h.getFlow)
		r.Post("/onboarding/{flow}", h.advanceFlow)
	})
	return r
}

// RoutePattern reports the chi route that matched r. It is only complete
// once routing finished, so middleware calls it after the handler returns.
func RoutePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

type sessionKey struct{}

func (h *Handler) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := h.sessions.Get(chi.URLParam(r, "sid"))
		if err != nil {
			writeError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
		st.Lock()
		defer st.Unlock()

		w.Header().Set(httpmiddleware.SessionHeader, st.ID())
		ctx := context.WithValue(r.Context(), sessionKey{}, st)
		ctx = zctx.Base(ctx, zctx.From(ctx).With(zap.String("session", st.ID())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session.State {
	return r.Context().Value(sessionKey{}).(*session.State)
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Create()
	zctx.From(r.Context()).Debug("Session created", zap.String("session", st.ID()))
	w.Header().Set(httpmiddleware.SessionHeader, st.ID())
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Str(st.ID()) })
		})
	})
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(sessionFrom(r).ID())
	w.WriteHeader(http.StatusNoContent)
}
