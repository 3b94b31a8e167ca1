package aggregate

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/staking-rewards/internal/dates"
	"github.com/yourorg/staking-rewards/internal/model"
)

// Errors returned by ComputeMetrics
var (
	ErrEmptyLedger           = errors.New("report has no days")
	ErrInvalidStartBalance   = errors.New("start balance must be positive")
	ErrUndefinedRewardWindow = errors.New("no payouts in range, reward window undefined")
)

// daysPerYear is the annualization period
const daysPerYear = 365

// Denominator resolves the planks-to-unit factor of a network
type Denominator interface {
	Denomination(network string) (float64, error)
}

// ComputeMetrics derives human-readable amounts, fiat values, totals and the
// annualized return from the raw planks and prices of a filled report.
// Derived fields are rebuilt from raw inputs on every call, so running it
// twice yields the same report.
func ComputeMetrics(r *model.Report, d Denominator) (*model.Report, error) {
	if len(r.Data.List) == 0 {
		return r, ErrEmptyLedger
	}
	if r.StartBalance <= 0 {
		return r, fmt.Errorf("%w: %v", ErrInvalidStartBalance, r.StartBalance)
	}

	normalization, err := d.Denomination(r.Network)
	if err != nil {
		return r, fmt.Errorf("denomination lookup: %w", err)
	}

	if r.IsComputed() {
		logrus.WithField("message", r.Message).Debug("Recomputing metrics of a computed report")
	}

	r.TotalValueFiat = 0
	r.TotalAmountHumanReadable = 0

	for i := range r.Data.List {
		day := &r.Data.List[i]

		day.AmountHumanReadable = humanReadable(day.AmountPlanks, normalization)
		day.ValueFiat = day.AmountHumanReadable * day.Price

		// payouts inherit the day's price point
		for j := range day.Payouts {
			p := &day.Payouts[j]
			p.AmountHumanReadable = humanReadable(p.AmountPlanks, normalization)
			p.ValueFiat = p.AmountHumanReadable * day.Price
		}

		r.TotalValueFiat += day.ValueFiat
		r.TotalAmountHumanReadable += day.AmountHumanReadable
	}

	r.TotalValueFiat = Round(r.TotalValueFiat, 2)
	r.CurrentValueRewardsFiat = Round(r.TotalAmountHumanReadable*r.Data.List[0].Price, 2)

	annualized, err := AnnualizedReturn(r)
	if err != nil {
		return r, err
	}
	r.AnnualizedReturn = annualized

	logrus.WithFields(logrus.Fields{
		"network":           r.Network,
		"days":              r.Data.NumberOfDays,
		"total_amount":      r.TotalAmountHumanReadable,
		"total_value_fiat":  r.TotalValueFiat,
		"annualized_return": r.AnnualizedReturn,
	}).Debug("Metrics computed")

	return r, nil
}

// AnnualizedReturn locates the reward window, records it on the report and
// extrapolates the return over it to a 365-day period. The result is not rounded.
func AnnualizedReturn(r *model.Report) (float64, error) {
	first, last, err := FirstAndLastReward(r)
	if err != nil {
		return 0, err
	}
	r.FirstReward = first
	r.LastReward = last

	days, err := DaysBetweenRewards(first, last)
	if err != nil {
		return 0, err
	}

	rateOfReturn := 1 + r.TotalAmountHumanReadable/r.StartBalance
	return math.Pow(rateOfReturn, daysPerYear/days) - 1, nil
}

// FirstAndLastReward returns the identifiers of the first and last days
// carrying at least one payout.
func FirstAndLastReward(r *model.Report) (first, last string, err error) {
	list := r.Data.List

	i := 0
	for ; i < len(list); i++ {
		if list[i].HasPayouts() {
			first = list[i].Day
			break
		}
	}
	if i == len(list) {
		return "", "", ErrUndefinedRewardWindow
	}

	for x := len(list) - 1; x >= i; x-- {
		if list[x].HasPayouts() {
			last = list[x].Day
			break
		}
	}
	return first, last, nil
}

// DaysBetweenRewards counts the days of the reward window, both boundary
// days included. A single reward day yields 1.
func DaysBetweenRewards(first, last string) (float64, error) {
	firstUnix, err := dates.DayToUnix(first)
	if err != nil {
		return 0, fmt.Errorf("first reward: %w", err)
	}
	lastUnix, err := dates.DayToUnix(last)
	if err != nil {
		return 0, fmt.Errorf("last reward: %w", err)
	}
	return float64(lastUnix-firstUnix)/dates.SecondsPerDay + 1, nil
}

// Round rounds v half away from zero to the given number of decimal places
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// humanReadable converts a plank amount with the network factor
func humanReadable(planks decimal.Decimal, normalization float64) float64 {
	return planks.InexactFloat64() * normalization
}
