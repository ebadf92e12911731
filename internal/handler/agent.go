package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/commerce-hub/internal/domain/settlement"
	"github.com/xenking/commerce-hub/internal/session"
)

func (h *Handler) getSettlement(w http.ResponseWriter, r *http.Request) {
	h.writeSettlement(w, sessionFrom(r))
}

// recordTopUp books a completed top-up. The fee defaults to the agent's
// current fee.
func (h *Handler) recordTopUp(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)
	fee, ok, err := decodeAmount(r, "fee")
	if err != nil {
		badRequest(w, err)
		return
	}
	if !ok {
		fee = st.Fee.Fee
	}
	if err := st.Ledger.RecordTopUp(fee); err != nil {
		fail(w, r, err, agentError)
		return
	}
	h.writeSettlement(w, st)
}

func (h *Handler) recordSettlement(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)
	amount, ok, err := decodeAmount(r, "amount")
	if err != nil {
		badRequest(w, err)
		return
	}
	if !ok {
		badRequest(w, errors.New("amount is required"))
		return
	}
	if err := st.Ledger.RecordSettlement(amount); err != nil {
		fail(w, r, err, agentError)
		return
	}
	h.writeSettlement(w, st)
}

func (h *Handler) changeFee(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r)
	fee, ok, err := decodeAmount(r, "fee")
	if err != nil {
		badRequest(w, err)
		return
	}
	if !ok {
		badRequest(w, errors.New("fee is required"))
		return
	}
	if err := st.Fee.Change(fee, h.now()); err != nil {
		fail(w, r, err, agentError)
		return
	}
	zctx.From(r.Context()).Info("Agent fee changed", zap.Stringer("fee", fee))
	h.writeSettlement(w, st)
}

func (h *Handler) writeSettlement(w http.ResponseWriter, st *session.State) {
	now := h.now()
	status := st.Ledger.Status(now)
	fee := st.Fee
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("unsettled", func(e *jx.Encoder) { money(e, status.Unsettled) })
			e.Field("due", func(e *jx.Encoder) { e.Bool(status.Due) })
			if status.Due {
				e.Field("deadline", func(e *jx.Encoder) { e.Str(status.Deadline.Format(time.RFC3339)) })
				e.Field("daysLeft", func(e *jx.Encoder) { e.Int(status.DaysLeft) })
				e.Field("urgency", func(e *jx.Encoder) { e.Str(string(status.Urgency)) })
			}
			e.Field("fee", func(e *jx.Encoder) { money(e, fee.Fee) })
			e.Field("canChangeFee", func(e *jx.Encoder) {
				e.Bool(fee.LastFeeChange.IsZero() || settlement.CanChangeFee(fee.LastFeeChange, now))
			})
			if !fee.LastFeeChange.IsZero() {
				e.Field("lastFeeChange", func(e *jx.Encoder) { e.Str(fee.LastFeeChange.Format(time.RFC3339)) })
				e.Field("nextFeeChange", func(e *jx.Encoder) { e.Str(fee.NextChangeAllowed().Format(time.RFC3339)) })
			}
		})
	})
}

// decodeAmount reads a single decimal field. ok is false when the body does
// not carry it.
func decodeAmount(r *http.Request, name string) (v decimal.Decimal, ok bool, err error) {
	err = decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != name {
			return d.Skip()
		}
		var derr error
		v, derr = decodeDecimal(d)
		ok = derr == nil
		return derr
	})
	return v, ok, err
}
