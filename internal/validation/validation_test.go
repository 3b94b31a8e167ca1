package validation

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/staking-rewards/internal/model"
)

func TestVerifyUserInput(t *testing.T) {
	now := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   string
		end     string
		wantErr error
	}{
		{"valid range", "2024-01-01", "2024-06-01", nil},
		{"same day", "2024-01-01", "2024-01-01", nil},
		{"end today", "2024-06-01", "2024-07-01", nil},
		{"start after end", "2024-06-01", "2024-01-01", ErrInvalidRange},
		{"end tomorrow", "2024-01-01", "2024-07-02", ErrFutureDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRange(tt.start, tt.end)
			require.NoError(t, err)

			err = VerifyUserInputAt(r, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifyUserInput_WallClock(t *testing.T) {
	r, err := ParseRange("2024-06-01", "2024-01-01")
	require.NoError(t, err)
	assert.ErrorIs(t, VerifyUserInput(r), ErrInvalidRange)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	err = VerifyUserInput(Range{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: tomorrow})
	assert.ErrorIs(t, err, ErrFutureDate)
}

func TestParseRange_Invalid(t *testing.T) {
	_, err := ParseRange("01-01-2024", "2024-02-01")
	assert.ErrorContains(t, err, "start date")

	_, err = ParseRange("2024-01-01", "tomorrow")
	assert.ErrorContains(t, err, "end date")
}

func validReport() *model.Report {
	return &model.Report{
		Message: model.MessageEmpty,
		Data: model.Data{
			NumberOfDays: 2,
			List: []model.DayRecord{
				{Day: "01-01-2024", Price: 5, AmountPlanks: decimal.NewFromInt(10),
					Payouts: []model.Payout{{AmountPlanks: decimal.NewFromInt(10)}}},
				{Day: "02-01-2024", Price: 0, AmountPlanks: decimal.Zero, Payouts: []model.Payout{}},
			},
		},
	}
}

func TestValidateLedger(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.Report)
		valid  bool
	}{
		{"valid", func(r *model.Report) {}, true},
		{"negative price", func(r *model.Report) { r.Data.List[0].Price = -1 }, false},
		{"NaN price", func(r *model.Report) { r.Data.List[1].Price = math.NaN() }, false},
		{"negative planks", func(r *model.Report) { r.Data.List[1].AmountPlanks = decimal.NewFromInt(-3) }, false},
		{"negative payout", func(r *model.Report) {
			r.Data.List[0].Payouts[0].AmountPlanks = decimal.NewFromInt(-1)
		}, false},
		{"bad day identifier", func(r *model.Report) { r.Data.List[0].Day = "2024-01-01" }, false},
		{"day count mismatch", func(r *model.Report) { r.Data.NumberOfDays = 3 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReport()
			tt.mutate(r)

			err := ValidateLedger(r)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidLedger)
		})
	}
}
