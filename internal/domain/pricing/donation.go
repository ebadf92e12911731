package pricing

import (
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrDonationNotPreset is returned when a preset selection is not one of
	// the offered amounts.
	ErrDonationNotPreset = errors.New("donation amount is not a preset")
	// ErrDonationOutOfRange is returned when a custom amount is outside
	// [1, 10000].
	ErrDonationOutOfRange = errors.New("donation amount must be between 1 and 10000")
	// ErrDonationNotNumeric is returned when a custom amount does not parse.
	ErrDonationNotNumeric = errors.New("donation amount is not a number")
)

var (
	minCustomDonation = decimal.NewFromInt(1)
	maxCustomDonation = decimal.NewFromInt(10000)

	donationPresets = []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(2),
		decimal.NewFromInt(5),
		decimal.NewFromInt(10),
	}
)

// DonationPresets returns the preset amounts offered at checkout.
func DonationPresets() []decimal.Decimal {
	return slices.Clone(donationPresets)
}

// Donation tracks the committed donation amount and whether the shopper is
// typing a custom value. A rejected entry never changes the committed amount.
type Donation struct {
	amount decimal.Decimal
	custom bool
}

// Amount returns the committed donation amount (zero by default).
func (d *Donation) Amount() decimal.Decimal {
	return d.amount
}

// Custom reports whether custom entry mode is active.
func (d *Donation) Custom() bool {
	return d.custom
}

// SelectPreset commits one of the preset amounts and leaves custom mode.
func (d *Donation) SelectPreset(amount decimal.Decimal) error {
	if !slices.ContainsFunc(donationPresets, amount.Equal) {
		return ErrDonationNotPreset
	}
	d.amount = amount
	d.custom = false
	return nil
}

// SelectCustom enters custom entry mode. The committed amount is kept until
// a valid custom value is entered.
func (d *Donation) SelectCustom() {
	d.custom = true
}

// EnterCustom parses text and commits it when it lies in [1, 10000].
// Entering a value also switches to custom mode.
func (d *Donation) EnterCustom(text string) error {
	d.custom = true
	v, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return ErrDonationNotNumeric
	}
	if v.LessThan(minCustomDonation) || v.GreaterThan(maxCustomDonation) {
		return ErrDonationOutOfRange
	}
	d.amount = v
	return nil
}

// Reset returns to the default zero donation.
func (d *Donation) Reset() {
	*d = Donation{}
}
