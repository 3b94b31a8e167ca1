package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/staking-rewards/internal/ledger"
	"github.com/yourorg/staking-rewards/internal/model"
	"github.com/yourorg/staking-rewards/internal/types"
)

// fixedDenomination applies the same factor to every network
type fixedDenomination float64

func (f fixedDenomination) Denomination(string) (float64, error) {
	return float64(f), nil
}

// newReport builds an empty report of n days starting 2024-01-01
func newReport(t *testing.T, n int, startBalance float64) *model.Report {
	t.Helper()
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := ledger.BuildDaySequence(start, start.AddDate(0, 0, n-1))
	require.Len(t, days, n)
	return ledger.InitializeReport(days, ledger.Params{
		Network:      "testnet",
		Currency:     "usd",
		StartBalance: startBalance,
	})
}

// pay records a single payout of planks on day i
func pay(r *model.Report, i int, planks int64) {
	amount := decimal.NewFromInt(planks)
	day := &r.Data.List[i]
	day.Payouts = append(day.Payouts, model.Payout{AmountPlanks: amount})
	day.AmountPlanks = day.AmountPlanks.Add(amount)
}

func TestComputeMetrics_EndToEnd(t *testing.T) {
	const startBalance = 100.0
	r := newReport(t, 3, startBalance)
	pay(r, 0, 100)
	r.Data.List[0].Price = 2.0
	r.Data.List[1].Price = 3.0
	r.Data.List[2].Price = 4.0

	got, err := ComputeMetrics(r, fixedDenomination(0.01))
	require.NoError(t, err)
	assert.Same(t, r, got)

	day0 := got.Data.List[0]
	assert.InDelta(t, 1.0, day0.AmountHumanReadable, 1e-12)
	assert.InDelta(t, 2.0, day0.ValueFiat, 1e-12)
	require.Len(t, day0.Payouts, 1)
	assert.InDelta(t, 1.0, day0.Payouts[0].AmountHumanReadable, 1e-12)
	assert.InDelta(t, 2.0, day0.Payouts[0].ValueFiat, 1e-12)

	for _, d := range got.Data.List[1:] {
		assert.Zero(t, d.AmountHumanReadable)
		assert.Zero(t, d.ValueFiat)
	}

	assert.Equal(t, 2.0, got.TotalValueFiat)
	assert.InDelta(t, 1.0, got.TotalAmountHumanReadable, 1e-12)
	assert.Equal(t, 2.0, got.CurrentValueRewardsFiat)
	assert.Equal(t, day0.Day, got.FirstReward)
	assert.Equal(t, day0.Day, got.LastReward)

	want := math.Pow(1+1.0/startBalance, 365) - 1
	assert.InDelta(t, want, got.AnnualizedReturn, want*1e-9)
	assert.Equal(t, 3, got.Data.NumberOfDays)
}

func TestComputeMetrics_PayoutsUseDayPrice(t *testing.T) {
	r := newReport(t, 2, 1000)
	pay(r, 1, 300)
	pay(r, 1, 200)
	r.Data.List[1].Price = 1.5

	_, err := ComputeMetrics(r, fixedDenomination(0.1))
	require.NoError(t, err)

	day := r.Data.List[1]
	assert.InDelta(t, 50.0, day.AmountHumanReadable, 1e-9)
	assert.InDelta(t, 75.0, day.ValueFiat, 1e-9)
	assert.InDelta(t, 30.0, day.Payouts[0].AmountHumanReadable, 1e-9)
	assert.InDelta(t, 45.0, day.Payouts[0].ValueFiat, 1e-9)
	assert.InDelta(t, 20.0, day.Payouts[1].AmountHumanReadable, 1e-9)
	assert.InDelta(t, 30.0, day.Payouts[1].ValueFiat, 1e-9)
}

func TestComputeMetrics_NormalizationLinearity(t *testing.T) {
	factors := []float64{1e-10, 1e-12, 1e-18, 0.5}

	for _, f := range factors {
		single := newReport(t, 1, 1)
		pay(single, 0, 123456789)
		double := newReport(t, 1, 1)
		pay(double, 0, 2*123456789)

		_, err := ComputeMetrics(single, fixedDenomination(f))
		require.NoError(t, err)
		_, err = ComputeMetrics(double, fixedDenomination(f))
		require.NoError(t, err)

		a := single.Data.List[0].AmountHumanReadable
		assert.InDelta(t, 123456789*f, a, math.Abs(a)*1e-12)
		assert.InDelta(t, 2*a, double.Data.List[0].AmountHumanReadable, math.Abs(a)*1e-12)
	}
}

func TestComputeMetrics_Rounding(t *testing.T) {
	tests := []struct {
		name        string
		price       float64
		planks      int64
		wantTotal   float64
		wantCurrent float64
	}{
		{"many decimals", 1.23456, 1, 1.23, 1.23},
		{"round half up", 0.125, 1, 0.13, 0.13},
		{"whole", 3, 7, 21, 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReport(t, 1, 10)
			pay(r, 0, tt.planks)
			r.Data.List[0].Price = tt.price

			_, err := ComputeMetrics(r, fixedDenomination(1))
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, r.TotalValueFiat)
			assert.Equal(t, tt.wantCurrent, r.CurrentValueRewardsFiat)
		})
	}
}

func TestComputeMetrics_CurrentValueUsesFirstDayPrice(t *testing.T) {
	r := newReport(t, 3, 100)
	r.Data.List[0].Price = 2
	r.Data.List[2].Price = 10
	pay(r, 2, 1)

	_, err := ComputeMetrics(r, fixedDenomination(1))
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.TotalValueFiat)
	assert.Equal(t, 2.0, r.CurrentValueRewardsFiat)
}

func TestComputeMetrics_Idempotent(t *testing.T) {
	r := newReport(t, 5, 500)
	pay(r, 1, 40)
	pay(r, 3, 60)
	for i := range r.Data.List {
		r.Data.List[i].Price = float64(i + 1)
	}

	_, err := ComputeMetrics(r, fixedDenomination(1))
	require.NoError(t, err)
	first := *r
	r.Message = model.MessageSuccess

	_, err = ComputeMetrics(r, fixedDenomination(1))
	require.NoError(t, err)
	assert.Equal(t, first.TotalValueFiat, r.TotalValueFiat)
	assert.Equal(t, first.TotalAmountHumanReadable, r.TotalAmountHumanReadable)
	assert.Equal(t, first.AnnualizedReturn, r.AnnualizedReturn)
	assert.Equal(t, 320.0, r.TotalValueFiat)
}

func TestComputeMetrics_Errors(t *testing.T) {
	t.Run("no payouts", func(t *testing.T) {
		r := newReport(t, 4, 100)
		_, err := ComputeMetrics(r, fixedDenomination(1))
		assert.ErrorIs(t, err, ErrUndefinedRewardWindow)
		assert.Empty(t, r.FirstReward)
	})

	t.Run("empty ledger", func(t *testing.T) {
		r := &model.Report{StartBalance: 1, Message: model.MessageEmpty}
		_, err := ComputeMetrics(r, fixedDenomination(1))
		assert.ErrorIs(t, err, ErrEmptyLedger)
	})

	t.Run("zero start balance", func(t *testing.T) {
		r := newReport(t, 2, 0)
		pay(r, 0, 1)
		_, err := ComputeMetrics(r, fixedDenomination(1))
		assert.ErrorIs(t, err, ErrInvalidStartBalance)
	})

	t.Run("unknown network", func(t *testing.T) {
		r := newReport(t, 2, 10)
		pay(r, 0, 1)
		_, err := ComputeMetrics(r, types.DefaultRegistry())
		assert.ErrorIs(t, err, types.ErrUnknownNetwork)
	})
}

func TestFirstAndLastReward(t *testing.T) {
	r := newReport(t, 10, 1)
	pay(r, 2, 1)
	pay(r, 5, 1)
	pay(r, 7, 1)

	first, last, err := FirstAndLastReward(r)
	require.NoError(t, err)
	assert.Equal(t, r.Data.List[2].Day, first)
	assert.Equal(t, r.Data.List[7].Day, last)
}

func TestDaysBetweenRewards(t *testing.T) {
	tests := []struct {
		first, last string
		want        float64
	}{
		{"01-01-2024", "01-01-2024", 1},
		{"01-01-2024", "02-01-2024", 2},
		{"28-02-2024", "01-03-2024", 3},
		{"01-01-2023", "31-12-2023", 365},
	}

	for _, tt := range tests {
		got, err := DaysBetweenRewards(tt.first, tt.last)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s..%s", tt.first, tt.last)
	}

	_, err := DaysBetweenRewards("2024-01-01", "01-01-2024")
	assert.Error(t, err)
}

func TestAnnualizedReturn_FullYearWindow(t *testing.T) {
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := ledger.BuildDaySequence(start, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC))
	require.Len(t, days, 365)

	r := ledger.InitializeReport(days, ledger.Params{StartBalance: 1000})
	pay(r, 0, 5)
	pay(r, 364, 5)
	r.TotalAmountHumanReadable = 10

	got, err := AnnualizedReturn(r)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, got, 1e-12)
	assert.Equal(t, "01-01-2023", r.FirstReward)
	assert.Equal(t, "31-12-2023", r.LastReward)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.24, Round(1.235, 2))
	assert.Equal(t, -1.24, Round(-1.235, 2))
	assert.Equal(t, 2.0, Round(1.999, 2))
	assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
}
