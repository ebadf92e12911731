package session

import (
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/commerce-hub/internal/domain/account"
	"github.com/xenking/commerce-hub/internal/domain/checkout"
	"github.com/xenking/commerce-hub/internal/domain/onboarding"
	"github.com/xenking/commerce-hub/internal/domain/settlement"
)

// ErrBusinessEmailRequired guards the signup auth step.
var ErrBusinessEmailRequired = errors.New("email is required")

// State is everything one UI session owns. Callers hold the lock for the
// whole of a read-modify-write sequence.
type State struct {
	mu sync.Mutex

	id       string
	lastSeen time.Time

	Basket    *checkout.Basket
	Fee       settlement.FeeRecord
	Ledger    settlement.Ledger
	Directory account.Directory

	AgentDraft    account.AgentProfile
	BusinessDraft account.Business
	BrandDraft    account.Brand

	flows map[onboarding.Kind]*onboarding.Flow
}

func newState(id string, now time.Time) *State {
	return &State{
		id:       id,
		lastSeen: now,
		Basket:   checkout.NewBasket(),
		flows:    make(map[onboarding.Kind]*onboarding.Flow),
	}
}

// ID returns the session identifier.
func (s *State) ID() string { return s.id }

// Lock acquires the session lock.
func (s *State) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *State) Unlock() { s.mu.Unlock() }

// StepInput is the typed data a wizard step may submit. Only the fields that
// belong to the current step are read.
type StepInput struct {
	Name    string
	Email   string
	Phone   *string
	Address *string
	Fee     *decimal.Decimal
	Hours   []account.OpeningHours
	BrandID string
}

// Flow returns the session's wizard of the given kind, creating it on first
// use.
func (s *State) Flow(kind onboarding.Kind) (*onboarding.Flow, error) {
	if f, ok := s.flows[kind]; ok {
		return f, nil
	}
	f, err := onboarding.New(kind, s.guards(kind))
	if err != nil {
		return nil, err
	}
	s.flows[kind] = f
	return f, nil
}

// Advance records in into the draft owned by the current step and applies
// action. Leaving the last step commits the drafts first: the agent setup
// sets the initial fee, the business signup registers business and brand.
// A failed commit keeps the flow on the last step.
func (s *State) Advance(kind onboarding.Kind, action onboarding.Action, in StepInput, now time.Time) (*onboarding.Flow, error) {
	f, err := s.Flow(kind)
	if err != nil {
		return nil, err
	}
	if action == onboarding.ActionNext {
		s.record(f.Current(), in)
		if f.Final() {
			if err := f.Check(); err != nil {
				return f, err
			}
			if err := s.commit(kind, now); err != nil {
				return f, err
			}
		}
	}
	if err := f.Apply(action); err != nil {
		return f, err
	}
	return f, nil
}

func (s *State) record(step onboarding.Step, in StepInput) {
	switch step {
	case onboarding.StepInfo:
		s.AgentDraft.Name = in.Name
		s.AgentDraft.Phone = in.Phone
		s.AgentDraft.Address = in.Address
	case onboarding.StepFee:
		if in.Fee != nil {
			s.AgentDraft.Fee = *in.Fee
		}
	case onboarding.StepHours:
		s.AgentDraft.Hours = in.Hours
	case onboarding.StepAuth:
		s.BusinessDraft.Email = in.Email
	case onboarding.StepBusiness:
		s.BusinessDraft.Name = in.Name
		s.BusinessDraft.Phone = in.Phone
	case onboarding.StepBrand:
		s.BrandDraft.ID = in.BrandID
		s.BrandDraft.Name = in.Name
	}
}

func (s *State) guards(kind onboarding.Kind) map[onboarding.Step]onboarding.Guard {
	switch kind {
	case onboarding.KindAgentSetup:
		return map[onboarding.Step]onboarding.Guard{
			onboarding.StepInfo: func() error { return s.AgentDraft.Validate() },
			onboarding.StepFee: func() error {
				return settlement.ValidateFee(s.AgentDraft.Fee)
			},
		}
	case onboarding.KindBusinessSignup:
		return map[onboarding.Step]onboarding.Guard{
			onboarding.StepAuth: func() error {
				if s.BusinessDraft.Email == "" {
					return ErrBusinessEmailRequired
				}
				return nil
			},
			onboarding.StepBusiness: func() error { return s.BusinessDraft.Validate() },
			onboarding.StepBrand:    func() error { return s.BrandDraft.Validate() },
		}
	default:
		return nil
	}
}

func (s *State) commit(kind onboarding.Kind, now time.Time) error {
	switch kind {
	case onboarding.KindAgentSetup:
		if s.AgentDraft.ID == "" {
			s.AgentDraft.ID = s.id
		}
		rec := s.Fee
		rec.BrandID = s.AgentDraft.ID
		if err := rec.Change(s.AgentDraft.Fee, now); err != nil {
			return errors.Wrap(err, "set initial fee")
		}
		s.Fee = rec
	case onboarding.KindBusinessSignup:
		if s.BusinessDraft.ID == "" {
			s.BusinessDraft.ID = s.id
		}
		if s.BrandDraft.ID == "" {
			s.BrandDraft.ID = uuid.NewString()
		}
		s.BrandDraft.BusinessID = s.BusinessDraft.ID
		if err := s.Directory.Register(s.BusinessDraft, s.BrandDraft); err != nil {
			return errors.Wrap(err, "register business")
		}
	}
	return nil
}
