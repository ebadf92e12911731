package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/commerce-hub/internal/domain/account"
	"github.com/xenking/commerce-hub/internal/domain/onboarding"
	"github.com/xenking/commerce-hub/internal/session"
)

func (h *Handler) getFlow(w http.ResponseWriter, r *http.Request) {
	f, err := sessionFrom(r).Flow(onboarding.Kind(chi.URLParam(r, "flow")))
	if err != nil {
		fail(w, r, err, onboardingError)
		return
	}
	writeFlow(w, f)
}

func (h *Handler) advanceFlow(w http.ResponseWriter, r *http.Request) {
	kind := onboarding.Kind(chi.URLParam(r, "flow"))
	action, in, err := decodeStep(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	st := sessionFrom(r)
	f, err := st.Advance(kind, action, in, h.now())
	if err != nil {
		fail(w, r, err, onboardingError)
		return
	}
	if f.Done() {
		zctx.From(r.Context()).Info("Onboarding completed", zap.String("flow", string(kind)))
	}
	writeFlow(w, f)
}

func writeFlow(w http.ResponseWriter, f *onboarding.Flow) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("flow", func(e *jx.Encoder) { e.Str(string(f.Kind())) })
			e.Field("step", func(e *jx.Encoder) { e.Str(string(f.Current())) })
			e.Field("done", func(e *jx.Encoder) { e.Bool(f.Done()) })
			e.Field("steps", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, s := range f.Steps() {
						e.Str(string(s))
					}
				})
			})
		})
	})
}

func decodeStep(r *http.Request) (onboarding.Action, session.StepInput, error) {
	var (
		action string
		in     session.StepInput
	)
	optional := func(d *jx.Decoder) (*string, error) {
		if d.Next() == jx.Null {
			return nil, d.Null()
		}
		v, err := d.Str()
		return &v, err
	}
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "action":
			action, err = d.Str()
		case "name":
			in.Name, err = d.Str()
		case "email":
			in.Email, err = d.Str()
		case "brandId":
			in.BrandID, err = d.Str()
		case "phone":
			in.Phone, err = optional(d)
		case "address":
			in.Address, err = optional(d)
		case "fee":
			fee, derr := decodeDecimal(d)
			in.Fee, err = &fee, derr
		case "hours":
			err = d.Arr(func(d *jx.Decoder) error {
				var oh account.OpeningHours
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					var err error
					switch key {
					case "day":
						oh.Day, err = d.Str()
					case "open":
						oh.Open, err = d.Str()
					case "close":
						oh.Close, err = d.Str()
					default:
						err = d.Skip()
					}
					return err
				}); err != nil {
					return err
				}
				in.Hours = append(in.Hours, oh)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return "", in, err
	}
	switch a := onboarding.Action(action); a {
	case onboarding.ActionNext, onboarding.ActionBack:
		return a, in, nil
	default:
		return "", in, errors.Errorf("unknown action %q", action)
	}
}
