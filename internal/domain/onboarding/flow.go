// Package onboarding models the multi-step setup wizards as explicit finite
// state machines with forward and back transitions.
package onboarding

import (
	"fmt"
	"slices"

	"github.com/go-faster/errors"
)

// Kind names a wizard.
type Kind string

const (
	KindAgentSetup     Kind = "agent-setup"
	KindBusinessSignup Kind = "business-signup"
)

// ErrUnknownKind is returned by New for an unsupported wizard.
var ErrUnknownKind = errors.New("unknown onboarding flow")

// Step is one state of a wizard.
type Step string

const (
	StepInfo  Step = "info"
	StepFee   Step = "fee"
	StepHours Step = "hours"

	StepAuth     Step = "auth"
	StepBusiness Step = "business"
	StepBrand    Step = "brand"

	StepDone Step = "done"
)

var sequences = map[Kind][]Step{
	KindAgentSetup:     {StepInfo, StepFee, StepHours, StepDone},
	KindBusinessSignup: {StepAuth, StepBusiness, StepBrand, StepDone},
}

// Action is a transition request.
type Action string

const (
	ActionNext Action = "next"
	ActionBack Action = "back"
)

// InvalidTransitionError is returned when an action is not allowed from the
// current step. The flow state is left unchanged.
type InvalidTransitionError struct {
	From   Step
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s from step %q", e.Action, e.From)
}

// Guard validates the data collected on a step before the flow may leave it
// forward.
type Guard func() error

// Flow is a linear wizard ending in StepDone.
type Flow struct {
	kind   Kind
	steps  []Step
	pos    int
	guards map[Step]Guard
}

// New returns a flow of the given kind positioned on its first step. Guards
// are optional and keyed by the step they protect.
func New(kind Kind, guards map[Step]Guard) (*Flow, error) {
	steps, ok := sequences[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return &Flow{
		kind:   kind,
		steps:  slices.Clone(steps),
		guards: guards,
	}, nil
}

// Kind returns the wizard kind.
func (f *Flow) Kind() Kind { return f.kind }

// Current returns the current step.
func (f *Flow) Current() Step { return f.steps[f.pos] }

// Done reports whether the flow reached its terminal step.
func (f *Flow) Done() bool { return f.Current() == StepDone }

// Steps returns the full ordered step list.
func (f *Flow) Steps() []Step { return slices.Clone(f.steps) }

// Final reports whether Next from the current step would finish the flow.
func (f *Flow) Final() bool {
	return !f.Done() && f.steps[f.pos+1] == StepDone
}

// Check runs the current step's guard without moving.
func (f *Flow) Check() error {
	if f.Done() {
		return &InvalidTransitionError{From: f.Current(), Action: ActionNext}
	}
	if g, ok := f.guards[f.Current()]; ok && g != nil {
		if err := g(); err != nil {
			return errors.Wrapf(err, "step %s", f.Current())
		}
	}
	return nil
}

// Next advances one step after the current step's guard passes.
func (f *Flow) Next() error {
	if err := f.Check(); err != nil {
		return err
	}
	f.pos++
	return nil
}

// Back returns to the previous step. It is not allowed from the first step
// or once the flow is done.
func (f *Flow) Back() error {
	if f.pos == 0 || f.Done() {
		return &InvalidTransitionError{From: f.Current(), Action: ActionBack}
	}
	f.pos--
	return nil
}

// Apply dispatches an action.
func (f *Flow) Apply(a Action) error {
	switch a {
	case ActionNext:
		return f.Next()
	case ActionBack:
		return f.Back()
	default:
		return &InvalidTransitionError{From: f.Current(), Action: a}
	}
}
