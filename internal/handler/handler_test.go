package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/commerce-hub/internal/domain/checkout"
	"github.com/xenking/commerce-hub/internal/domain/product"
	"github.com/xenking/commerce-hub/internal/session"
	"github.com/xenking/commerce-hub/internal/storage/memory"
)

var testNow = time.Date(2024, time.April, 30, 18, 0, 0, 0, time.UTC)

type testAPI struct {
	t   *testing.T
	srv http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	catalog, err := memory.NewCatalog([]product.Product{
		{
			ID: "p1", Name: "Waffle Box", Category: "Waffle",
			Price: decimal.RequireFromString("19.99"),
			Image: product.Image{Thumbnail: "images/waffle.jpg"},
		},
		{ID: "p2", Name: "Brownie", Category: "Brownie", Price: decimal.RequireFromString("3.00")},
	})
	require.NoError(t, err)

	svc, err := checkout.NewService(catalog, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	h := New(Config{ImageBaseURL: "https://cdn.example.com/"}, catalog, svc, session.NewStore(time.Hour))
	h.now = func() time.Time { return testNow }

	r := chi.NewRouter()
	r.Mount("/api", h.Routes())
	return &testAPI{t: t, srv: r}
}

func (a *testAPI) do(method, path, body string) (int, map[string]any) {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.srv.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 && strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (a *testAPI) session() string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/sessions", "")
	require.Equal(a.t, http.StatusCreated, code)
	id, _ := body["id"].(string)
	require.NotEmpty(a.t, id)
	return "/api/sessions/" + id
}

func pricingOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	p, ok := body["pricing"].(map[string]any)
	require.True(t, ok, "pricing missing in %v", body)
	return p
}

func TestProducts(t *testing.T) {
	a := newTestAPI(t)

	w := httptest.NewRecorder()
	a.srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0]["id"])
	assert.Equal(t, "19.99", list[0]["price"])

	code, body := a.do(http.MethodGet, "/api/products/p1", "")
	require.Equal(t, http.StatusOK, code)
	img := body["image"].(map[string]any)
	assert.Equal(t, "https://cdn.example.com/images/waffle.jpg", img["thumbnail"])
	assert.Equal(t, "", img["mobile"])

	code, body = a.do(http.MethodGet, "/api/products/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "product_not_found", body["code"])
}

func TestSession_Unknown(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(http.MethodGet, "/api/sessions/missing/cart", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "session_not_found", body["code"])
}

func TestSession_Delete(t *testing.T) {
	a := newTestAPI(t)
	s := a.session()
	code, _ := a.do(http.MethodDelete, s, "")
	require.Equal(t, http.StatusNoContent, code)
	code, _ = a.do(http.MethodGet, s+"/cart", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCart(t *testing.T) {
	a := newTestAPI(t)
	s := a.session()

	for _, id := range []string{"p1", "p2", "p1"} {
		code, _ := a.do(http.MethodPost, s+"/cart/items", `{"productId":"`+id+`"}`)
		require.Equal(t, http.StatusOK, code)
	}
	code, body := a.do(http.MethodGet, s+"/cart", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["count"])
	assert.Equal(t, "42.98", body["total"])
	assert.Equal(t, "0.00", body["amountToFreeDelivery"])
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.EqualValues(t, 2, items[0].(map[string]any)["quantity"])

	_, body = a.do(http.MethodPost, s+"/cart/items/p1/decrement", "")
	assert.EqualValues(t, 2, body["count"])

	_, body = a.do(http.MethodDelete, s+"/cart/items/p2", "")
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "19.99", body["total"])
	assert.Equal(t, "0.01", body["amountToFreeDelivery"])

	code, body = a.do(http.MethodPost, s+"/cart/items", `{"productId":"nope"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "product_not_found", body["code"])

	code, _ = a.do(http.MethodPost, s+"/cart/items", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(http.MethodPost, s+"/cart/items", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	_, body = a.do(http.MethodDelete, s+"/cart", "")
	assert.EqualValues(t, 0, body["count"])
}

func TestCheckout_QuoteAndDelivery(t *testing.T) {
	a := newTestAPI(t)
	s := a.session()
	a.do(http.MethodPost, s+"/cart/items", `{"productId":"p1"}`)

	code, body := a.do(http.MethodGet, s+"/checkout/quote", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "standard", body["delivery"])
	p := pricingOf(t, body)
	assert.Equal(t, "3.50", p["deliveryFee"])
	assert.Equal(t, "23.49", p["total"])
	assert.EqualValues(t, 470, p["pointsEarned"])

	_, body = a.do(http.MethodPut, s+"/checkout/delivery", `{"method":"priority"}`)
	p = pricingOf(t, body)
	assert.Equal(t, "4.99", p["deliveryFee"])
	assert.Equal(t, "24.98", p["total"])
	assert.EqualValues(t, 500, p["pointsEarned"])

	code, body = a.do(http.MethodPut, s+"/checkout/delivery", `{"method":"drone"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unknown_delivery", body["code"])
	_, body = a.do(http.MethodGet, s+"/checkout/quote", "")
	assert.Equal(t, "priority", body["delivery"], "rejected method leaves state unchanged")
}

func TestCheckout_Donation(t *testing.T) {
	a := newTestAPI(t)
	s := a.session()
	a.do(http.MethodPost, s+"/cart/items", `{"productId":"p2"}`)

	code, body := a.do(http.MethodPut, s+"/checkout/donation", `{"preset":5}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "5.00", pricingOf(t, body)["donation"])

	code, body = a.do(http.MethodPut, s+"/checkout/donation", `{"custom":"0.50"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "invalid_donation", body["code"])

	_, body = a.do(http.MethodGet, s+"/checkout/quote", "")
	d := body["donation"].(map[string]any)
	assert.Equal(t, "5.00", d["amount"])
	assert.Equal(t, false, d["custom"])

	_, body = a.do(http.MethodPut, s+"/checkout/donation", `{"custom":"12.5"}`)
	d = body["donation"].(map[string]any)
	assert.Equal(t, "12.50", d["amount"])
	assert.Equal(t, true, d["custom"])

	code, _ = a.do(http.MethodPut, s+"/checkout/donation", `{"preset":3}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	code, _ = a.do(http.MethodPut, s+"/checkout/donation", `{"preset":5,"custom":"7"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCheckout_DonationCustomEntry(t *testing.T) {
	a := newTestAPI(t)
	s := a.session()
	a.do(http.MethodPost, s+"/cart/items", `{"productId":"p2"}`)
	a.do(http.MethodPut, s+"/checkout/donation", `{"preset":2}`)

	code, body := a.do(http.MethodPut, s+"/checkout/donation", `{"custom":null}`)
	require.Equal(t, http.StatusOK, code)
	d := body["donation"].(map[string]any)
	assert.Equal(t, true, d["custom"])
	assert.Equal(t, "2.00", d["amount"], "amount is kept until a value is entered")
	assert.Equal(t, "2.00", pricingOf(t, body)["donation"])

	code, _ = a.do(http.MethodPut, s+"/checkout/donation", `{"custom":null,"preset":2}`)
	assert.Equal(t, http.StatusBadRequest, code)

	_, body = a.do(http.MethodPut, s+"/checkout/donation", `{"custom":"25"}`)
	d = body["donation"].(map[string]any)
	assert.Equal(t, "25.00", d["amount"])
	assert.Equal(t, true, d["custom"])
}

func TestCheckout_MembershipAndOrder(t *testing.T) {
	a := newTestAPI(t)
	s := a.session()

	code, body := a.do(http.MethodPost, s+"/checkout/orders", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "empty_cart", body["code"])

	a.do(http.MethodPost, s+"/cart/items", `{"productId":"p1"}`)
	code, body = a.do(http.MethodPost, s+"/checkout/membership", `{"plan":"monthly"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["member"])
	p := pricingOf(t, body)
	assert.Equal(t, "4.99", p["membershipCost"])
	assert.Equal(t, "2.00", p["discount"])

	code, _ = a.do(http.MethodPost, s+"/checkout/membership", `{"plan":"lifetime"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(http.MethodPost, s+"/checkout/orders", "")
	require.Equal(t, http.StatusCreated, code)
	assert.Len(t, body["number"], 26)
	assert.Equal(t, "2024-04-30T18:00:00Z", body["placedAt"])
	assert.Len(t, body["items"], 2)

	_, body = a.do(http.MethodGet, s+"/cart", "")
	assert.EqualValues(t, 0, body["count"])
	_, body = a.do(http.MethodGet, s+"/checkout/quote", "")
	assert.Equal(t, true, body["member"], "membership carries over to later orders")
}

func TestAgent_Settlement(t *testing.T) {
	a := newTestAPI(t)
	s := a.session()

	code, body := a.do(http.MethodGet, s+"/agent/settlement", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["due"])
	assert.Equal(t, true, body["canChangeFee"])
	assert.NotContains(t, body, "deadline")

	code, body = a.do(http.MethodPut, s+"/agent/fee", `{"fee":"2.50"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "fee_out_of_range", body["code"])

	code, body = a.do(http.MethodPut, s+"/agent/fee", `{"fee":"1.50"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.50", body["fee"])
	assert.Equal(t, false, body["canChangeFee"])
	assert.Equal(t, "2024-05-01T00:00:00Z", body["nextFeeChange"])

	code, body = a.do(http.MethodPut, s+"/agent/fee", `{"fee":"1.00"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "fee_change_cooldown", body["code"])

	a.do(http.MethodPost, s+"/agent/settlement/topups", `{}`)
	_, body = a.do(http.MethodPost, s+"/agent/settlement/topups", `{"fee":1}`)
	assert.Equal(t, "2.50", body["unsettled"])
	assert.Equal(t, true, body["due"])
	assert.Equal(t, "2024-05-31T17:00:00Z", body["deadline"])
	assert.EqualValues(t, 31, body["daysLeft"])
	assert.Equal(t, "low", body["urgency"])

	_, body = a.do(http.MethodPost, s+"/agent/settlement/settlements", `{"amount":"2.50"}`)
	assert.Equal(t, "0.00", body["unsettled"])
	assert.Equal(t, false, body["due"])

	code, body = a.do(http.MethodPost, s+"/agent/settlement/settlements", `{"amount":"-1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "negative_amount", body["code"])
	code, _ = a.do(http.MethodPost, s+"/agent/settlement/settlements", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestOnboarding_AgentSetup(t *testing.T) {
	a := newTestAPI(t)
	s := a.session()
	flow := s + "/onboarding/agent-setup"

	code, body := a.do(http.MethodGet, flow, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "info", body["step"])
	assert.Equal(t, []any{"info", "fee", "hours", "done"}, body["steps"])

	code, body = a.do(http.MethodPost, flow, `{"action":"back"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "invalid_transition", body["code"])

	code, body = a.do(http.MethodPost, flow, `{"action":"next"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "step_incomplete", body["code"])

	code, body = a.do(http.MethodPost, flow, `{"action":"next","name":"Corner Shop","phone":null}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "fee", body["step"])

	code, body = a.do(http.MethodPost, flow, `{"action":"next","fee":"2.01"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "fee_out_of_range", body["code"])

	_, body = a.do(http.MethodPost, flow, `{"action":"next","fee":"1.25"}`)
	assert.Equal(t, "hours", body["step"])

	_, body = a.do(http.MethodPost, flow, `{"action":"next","hours":[{"day":"mon","open":"09:00","close":"17:00"}]}`)
	assert.Equal(t, true, body["done"])

	_, body = a.do(http.MethodGet, s+"/agent/settlement", "")
	assert.Equal(t, "1.25", body["fee"])

	code, _ = a.do(http.MethodPost, flow, `{"action":"jump"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestOnboarding_UnknownFlow(t *testing.T) {
	a := newTestAPI(t)
	s := a.session()
	code, body := a.do(http.MethodGet, s+"/onboarding/tax-return", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "unknown_flow", body["code"])
}
