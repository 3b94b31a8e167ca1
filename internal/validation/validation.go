// Package validation checks user input and the data handed over by the
// fetch collaborators before metrics are computed.
package validation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/staking-rewards/internal/dates"
	"github.com/yourorg/staking-rewards/internal/model"
)

// Validation errors
var (
	ErrInvalidRange  = errors.New("start date must be before end date")
	ErrFutureDate    = errors.New("end date is in the future")
	ErrInvalidLedger = errors.New("invalid ledger")
)

// Range is the requested reporting period
type Range struct {
	Start time.Time
	End   time.Time
}

// ParseRange parses YYYY-MM-DD start and end dates as UTC midnights
func ParseRange(start, end string) (Range, error) {
	s, err := dates.ParseInput(start)
	if err != nil {
		return Range{}, fmt.Errorf("start date: %w", err)
	}
	e, err := dates.ParseInput(end)
	if err != nil {
		return Range{}, fmt.Errorf("end date: %w", err)
	}
	return Range{Start: s, End: e}, nil
}

// VerifyUserInput rejects ranges that run backwards or end in the future.
// It must pass before any report is built.
func VerifyUserInput(r Range) error {
	return VerifyUserInputAt(r, time.Now())
}

// VerifyUserInputAt is VerifyUserInput against a fixed clock
func VerifyUserInputAt(r Range, now time.Time) error {
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			r.Start.Format(dates.InputLayout), r.End.Format(dates.InputLayout))
	}

	if r.End.After(now) {
		return fmt.Errorf("%w: %s", ErrFutureDate, r.End.Format(dates.InputLayout))
	}

	return nil
}

// ValidateLedger checks that the fetch collaborators filled the report
// consistently: one record per day, non-negative finite planks and prices.
func ValidateLedger(r *model.Report) error {
	var errs []error

	if r.Data.NumberOfDays != len(r.Data.List) {
		errs = append(errs, fmt.Errorf("numberOfDays %d != %d records",
			r.Data.NumberOfDays, len(r.Data.List)))
	}

	for _, day := range r.Data.List {
		if err := validateDay(day); err != nil {
			logrus.WithFields(logrus.Fields{
				"day":    day.Day,
				"price":  day.Price,
				"planks": day.AmountPlanks.String(),
			}).Debug("Invalid day record")
			errs = append(errs, fmt.Errorf("day %s: %w", day.Day, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidLedger, errors.Join(errs...))
	}
	return nil
}

// validateDay checks a single record against the fetch contract
func validateDay(day model.DayRecord) error {
	if _, err := dates.ParseDay(day.Day); err != nil {
		return err
	}

	if math.IsNaN(day.Price) || math.IsInf(day.Price, 0) || day.Price < 0 {
		return fmt.Errorf("invalid price %v", day.Price)
	}

	if day.AmountPlanks.IsNegative() {
		return fmt.Errorf("negative planks %s", day.AmountPlanks)
	}

	for i, p := range day.Payouts {
		if p.AmountPlanks.IsNegative() {
			return fmt.Errorf("payout %d: negative planks %s", i, p.AmountPlanks)
		}
	}

	return nil
}
