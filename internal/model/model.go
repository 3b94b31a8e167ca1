// Package model defines the core data structures for staking reward reports.
package model

import (
	"github.com/shopspring/decimal"
)

// Report message values.
const (
	// MessageEmpty marks a report whose metrics have not been computed yet
	MessageEmpty = "empty"

	// MessageSuccess is set by the pipeline once metrics are computed
	MessageSuccess = "success"
)

// Report is the result of a reward analysis for one address on one network.
// This is the core data structure that flows through the entire application.
type Report struct {
	Message  string `json:"message"`
	Address  string `json:"address"`
	Network  string `json:"network"`
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Currency string `json:"currency"`

	// StartBalance is the staked balance in human-readable units,
	// used as the compounding base
	StartBalance float64 `json:"startBalance"`

	// FirstReward and LastReward are the day identifiers of the
	// first and last day with at least one payout
	FirstReward string `json:"firstReward"`
	LastReward  string `json:"lastReward"`

	// AnnualizedReturn is expressed as a ratio, e.g. 0.05 for 5%
	AnnualizedReturn float64 `json:"annualizedReturn"`

	// CurrentValueRewardsFiat values all rewards at the first day's price
	CurrentValueRewardsFiat float64 `json:"currentValueRewardsFiat"`

	TotalAmountHumanReadable float64 `json:"totalAmountHumanReadable"`
	TotalValueFiat           float64 `json:"totalValueFiat"`

	// API configuration passed through to the fetch collaborators
	SubscanAPIKey string `json:"-"`
	APISleepDelay int    `json:"apiSleepDelay"`
	PriceAPI      string `json:"priceApi"`

	Data Data `json:"data"`
}

// Data holds the per-day ledger of a report.
type Data struct {
	NumberRewardsParsed int         `json:"numberRewardsParsed"`
	NumberOfDays        int         `json:"numberOfDays"`
	List                []DayRecord `json:"list"`
}

// DayRecord is one calendar day of the ledger.
type DayRecord struct {
	// Day is formatted as DD-MM-YYYY
	Day     string   `json:"day"`
	Payouts []Payout `json:"payouts"`

	// Price is the fiat price of one human-readable token unit on that day
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`

	// AmountPlanks is the raw reward of the day in base units
	AmountPlanks decimal.Decimal `json:"amountPlanks"`

	AmountHumanReadable float64 `json:"amountHumanReadable"`
	ValueFiat           float64 `json:"valueFiat"`
}

// Payout is a single reward event within a day.
type Payout struct {
	AmountPlanks        decimal.Decimal `json:"amountPlanks"`
	AmountHumanReadable float64         `json:"amountHumanReadable"`
	ValueFiat           float64         `json:"valueFiat"`

	BlockTimestamp int64  `json:"blockTimestamp,omitempty"`
	EventID        string `json:"eventId,omitempty"`
}

// HasPayouts reports whether at least one reward was paid on the day
func (d DayRecord) HasPayouts() bool {
	return len(d.Payouts) != 0
}

// IsComputed reports whether the report has left the empty state
func (r *Report) IsComputed() bool {
	return r.Message != MessageEmpty
}
