package settlement

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNegativeAmount is returned when a top-up fee or settlement is negative.
var ErrNegativeAmount = errors.New("amount must not be negative")

// Ledger tracks an agent's unsettled balance: fees collected on completed
// top-ups minus amounts already settled with the platform.
type Ledger struct {
	unsettled decimal.Decimal
}

// RecordTopUp adds the fee of a completed top-up.
func (l *Ledger) RecordTopUp(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return ErrNegativeAmount
	}
	l.unsettled = l.unsettled.Add(fee)
	return nil
}

// RecordSettlement subtracts a completed settlement.
func (l *Ledger) RecordSettlement(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	l.unsettled = l.unsettled.Sub(amount)
	return nil
}

// Unsettled returns the running balance.
func (l *Ledger) Unsettled() decimal.Decimal {
	return l.unsettled
}

// Status is the derived view shown on the agent dashboard.
type Status struct {
	Unsettled decimal.Decimal
	// Due is false when nothing is owed; Deadline, DaysLeft and Urgency are
	// then zero values.
	Due      bool
	Deadline time.Time
	DaysLeft int
	Urgency  Urgency
}

// Status derives the deadline and urgency. They are only set while the
// unsettled balance is positive.
func (l *Ledger) Status(now time.Time) Status {
	st := Status{Unsettled: l.unsettled}
	if !l.unsettled.IsPositive() {
		return st
	}
	deadline := Deadline(now)
	st.Due = true
	st.Deadline = deadline
	st.DaysLeft = DaysUntil(deadline, now)
	st.Urgency = ComputeUrgency(deadline, now)
	return st
}
