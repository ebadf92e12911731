package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDonation_DefaultsToZero(t *testing.T) {
	var dn Donation
	assert.True(t, dn.Amount().IsZero())
	assert.False(t, dn.Custom())
}

func TestDonation_SelectPreset(t *testing.T) {
	var dn Donation
	dn.SelectCustom()
	require.NoError(t, dn.SelectPreset(decimal.NewFromInt(5)))

	assert.True(t, decimal.NewFromInt(5).Equal(dn.Amount()))
	assert.False(t, dn.Custom(), "preset clears custom mode")

	require.ErrorIs(t, dn.SelectPreset(decimal.NewFromInt(7)), ErrDonationNotPreset)
	assert.True(t, decimal.NewFromInt(5).Equal(dn.Amount()))
}

func TestDonation_SelectCustomKeepsAmount(t *testing.T) {
	var dn Donation
	require.NoError(t, dn.SelectPreset(decimal.NewFromInt(10)))
	dn.SelectCustom()

	assert.True(t, dn.Custom())
	assert.True(t, decimal.NewFromInt(10).Equal(dn.Amount()))
}

func TestDonation_EnterCustom(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		want    string
	}{
		{name: "below floor rejected", input: "0.50", wantErr: ErrDonationOutOfRange, want: "2"},
		{name: "floor accepted", input: "1", want: "1"},
		{name: "ceiling accepted", input: "10000", want: "10000"},
		{name: "above ceiling rejected", input: "10000.01", wantErr: ErrDonationOutOfRange, want: "2"},
		{name: "negative rejected", input: "-3", wantErr: ErrDonationOutOfRange, want: "2"},
		{name: "garbage rejected", input: "ten", wantErr: ErrDonationNotNumeric, want: "2"},
		{name: "empty rejected", input: "", wantErr: ErrDonationNotNumeric, want: "2"},
		{name: "whitespace trimmed", input: " 12.5 ", want: "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dn Donation
			require.NoError(t, dn.SelectPreset(decimal.NewFromInt(2)))

			err := dn.EnterCustom(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, decimal.RequireFromString(tt.want).Equal(dn.Amount()),
				"expected %s, got %s", tt.want, dn.Amount())
			assert.True(t, dn.Custom())
		})
	}
}

func TestDonation_Reset(t *testing.T) {
	var dn Donation
	require.NoError(t, dn.EnterCustom("25"))
	dn.Reset()

	assert.True(t, dn.Amount().IsZero())
	assert.False(t, dn.Custom())
}

func TestDonationPresets_Copy(t *testing.T) {
	p := DonationPresets()
	p[0] = decimal.NewFromInt(999)
	assert.True(t, DonationPresets()[0].IsZero())
}
