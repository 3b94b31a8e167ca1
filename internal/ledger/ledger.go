// Package ledger builds the empty per-day report skeleton that the fetch
// collaborators fill and the aggregate package computes.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourorg/staking-rewards/internal/dates"
	"github.com/yourorg/staking-rewards/internal/model"
)

// Params carries the identity and API settings copied into a new report.
type Params struct {
	Network      string
	Name         string
	Address      string
	Currency     string
	StartBalance float64
	Ticker       string

	SubscanAPIKey string
	APISleepDelay int
	PriceAPI      string
}

// BuildDaySequence returns one DD-MM-YYYY identifier per day from start,
// stepping a day at a time while before end. The end date is always appended.
func BuildDaySequence(start, end time.Time) []string {
	var days []string
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, dates.FormatDay(d))
	}
	return append(days, dates.FormatDay(end))
}

// InitializeReport allocates a report with one zeroed record per day.
func InitializeReport(days []string, p Params) *model.Report {
	r := &model.Report{
		Message:       model.MessageEmpty,
		Address:       p.Address,
		Network:       p.Network,
		Name:          p.Name,
		Ticker:        p.Ticker,
		Currency:      p.Currency,
		StartBalance:  p.StartBalance,
		SubscanAPIKey: p.SubscanAPIKey,
		APISleepDelay: p.APISleepDelay,
		PriceAPI:      p.PriceAPI,
		Data: model.Data{
			NumberOfDays: len(days),
			List:         make([]model.DayRecord, len(days)),
		},
	}

	for i, day := range days {
		r.Data.List[i] = model.DayRecord{
			Day:          day,
			Payouts:      []model.Payout{},
			AmountPlanks: decimal.Zero,
		}
	}
	return r
}
