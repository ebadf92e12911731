package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/commerce-hub/internal/domain/account"
	"github.com/xenking/commerce-hub/internal/domain/cart"
	"github.com/xenking/commerce-hub/internal/domain/checkout"
	"github.com/xenking/commerce-hub/internal/domain/onboarding"
	"github.com/xenking/commerce-hub/internal/domain/pricing"
	"github.com/xenking/commerce-hub/internal/domain/product"
	"github.com/xenking/commerce-hub/internal/domain/settlement"
	"github.com/xenking/commerce-hub/internal/session"
)

// errorMapper classifies a domain error. A zero status means unmapped.
type errorMapper func(err error) (status int, code string)

// fail writes the mapped error, or logs and writes 500 when no mapper knows
// the error.
func fail(w http.ResponseWriter, r *http.Request, err error, mappers ...errorMapper) {
	for _, m := range mappers {
		if status, code := m(err); status != 0 {
			writeError(w, status, code, err.Error())
			return
		}
	}
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal", "internal server error")
}

func badRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "bad_request", err.Error())
}

func catalogError(err error) (int, string) {
	if errors.Is(err, product.ErrNotFound) {
		return http.StatusNotFound, "product_not_found"
	}
	return 0, ""
}

func cartError(err error) (int, string) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		return http.StatusUnprocessableEntity, "product_not_found"
	case errors.Is(err, cart.ErrReservedID):
		return http.StatusUnprocessableEntity, "reserved_id"
	case errors.Is(err, cart.ErrUnknownPlan):
		return http.StatusBadRequest, "unknown_plan"
	}
	return 0, ""
}

func checkoutError(err error) (int, string) {
	switch {
	case errors.Is(err, pricing.ErrUnknownDelivery):
		return http.StatusBadRequest, "unknown_delivery"
	case errors.Is(err, cart.ErrUnknownPlan):
		return http.StatusBadRequest, "unknown_plan"
	case errors.Is(err, pricing.ErrDonationNotPreset),
		errors.Is(err, pricing.ErrDonationNotNumeric),
		errors.Is(err, pricing.ErrDonationOutOfRange):
		return http.StatusUnprocessableEntity, "invalid_donation"
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "empty_cart"
	}
	return 0, ""
}

func agentError(err error) (int, string) {
	switch {
	case errors.Is(err, settlement.ErrFeeOutOfRange):
		return http.StatusUnprocessableEntity, "fee_out_of_range"
	case errors.Is(err, settlement.ErrFeeChangeCooldown):
		return http.StatusUnprocessableEntity, "fee_change_cooldown"
	case errors.Is(err, settlement.ErrNegativeAmount):
		return http.StatusUnprocessableEntity, "negative_amount"
	}
	return 0, ""
}

func onboardingError(err error) (int, string) {
	var transition *onboarding.InvalidTransitionError
	var duplicate *account.DuplicateBrandError
	switch {
	case errors.Is(err, onboarding.ErrUnknownKind):
		return http.StatusNotFound, "unknown_flow"
	case errors.As(err, &transition):
		return http.StatusUnprocessableEntity, "invalid_transition"
	case errors.As(err, &duplicate):
		return http.StatusUnprocessableEntity, "duplicate_brand"
	case errors.Is(err, account.ErrNameRequired),
		errors.Is(err, session.ErrBusinessEmailRequired):
		return http.StatusUnprocessableEntity, "step_incomplete"
	}
	return agentError(err)
}
