package settlement

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrFeeOutOfRange is returned for a fee outside [0, 2.00].
	ErrFeeOutOfRange = errors.New("fee must be between 0 and 2.00")
	// ErrFeeChangeCooldown is returned when the fee was already changed in
	// the current calendar month.
	ErrFeeChangeCooldown = errors.New("fee can be changed once per calendar month")
)

// MaxFee is the platform-enforced ceiling for an agent fee.
var MaxFee = decimal.RequireFromString("2.00")

// ValidateFee rejects fees outside [0, MaxFee]. Out-of-range values are never
// clamped.
func ValidateFee(fee decimal.Decimal) error {
	if fee.IsNegative() || fee.GreaterThan(MaxFee) {
		return ErrFeeOutOfRange
	}
	return nil
}

// MonthsBetween returns the calendar-month difference from since to now,
// ignoring the day of month entirely.
func MonthsBetween(since, now time.Time) int {
	return (now.Year()-since.Year())*12 + int(now.Month()-since.Month())
}

// CanChangeFee reports whether at least one calendar-month boundary has been
// crossed since lastChange. A change on Jan 31 is eligible again on Feb 1.
func CanChangeFee(lastChange, now time.Time) bool {
	return MonthsBetween(lastChange, now) >= 1
}

// FeeRecord is the fee an agent charges for a brand's top-ups.
type FeeRecord struct {
	BrandID       string
	Fee           decimal.Decimal
	LastFeeChange time.Time
}

// Change validates newFee against the bounds and the monthly cooldown and,
// on success, applies it with now as the change date. A rejected change
// leaves the record untouched.
func (r *FeeRecord) Change(newFee decimal.Decimal, now time.Time) error {
	if err := ValidateFee(newFee); err != nil {
		return err
	}
	if !r.LastFeeChange.IsZero() && !CanChangeFee(r.LastFeeChange, now) {
		return ErrFeeChangeCooldown
	}
	r.Fee = newFee
	r.LastFeeChange = now
	return nil
}

// NextChangeAllowed returns the first instant a new change is permitted: the
// start of the month after the last change.
func (r *FeeRecord) NextChangeAllowed() time.Time {
	if r.LastFeeChange.IsZero() {
		return time.Time{}
	}
	last := r.LastFeeChange
	return time.Date(last.Year(), last.Month()+1, 1, 0, 0, 0, 0, last.Location())
}
