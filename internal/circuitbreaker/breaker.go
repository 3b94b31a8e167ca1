// Package circuitbreaker guards report output against implausible results
// caused by erroneous price data or a wrong start balance.
package circuitbreaker

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/staking-rewards/internal/model"
)

// ErrTripped is returned for every check while the breaker is open
var ErrTripped = errors.New("circuit breaker open")

// State represents the current state of the circuit breaker
type State int

// Circuit breaker states
const (
	StateClosed State = iota // Normal operation
	StateOpen                // Tripped, reports are rejected until Reset
)

// Thresholds defines the limits that will trigger the circuit breaker.
// A zero value disables the corresponding check.
type Thresholds struct {
	// Maximum allowed annualized return (e.g. 10.0 for 1000%)
	MaxAnnualizedReturn float64 `json:"max_annualized_return"`

	// Maximum allowed price change between consecutive priced days (e.g. 0.5 for 50%)
	MaxPriceChange float64 `json:"max_price_change"`
}

// Enabled reports whether any check is configured
func (t Thresholds) Enabled() bool {
	return t.MaxAnnualizedReturn > 0 || t.MaxPriceChange > 0
}

// CircuitBreaker rejects computed reports that violate its thresholds and
// stays open afterwards, so a batch of reports stops at the first bad one.
type CircuitBreaker struct {
	thresholds Thresholds

	mu     sync.RWMutex
	state  State
	reason string

	onTripCallback func(reason string, r *model.Report)
}

// New creates a new CircuitBreaker with the provided thresholds
func New(t Thresholds) *CircuitBreaker {
	return &CircuitBreaker{
		thresholds: t,
		state:      StateClosed,
	}
}

// WithTripCallback sets a callback function that is called when the circuit trips
func (cb *CircuitBreaker) WithTripCallback(callback func(reason string, r *model.Report)) *CircuitBreaker {
	cb.onTripCallback = callback
	return cb
}

// Check evaluates a computed report against the thresholds. A nil breaker
// accepts everything.
func (cb *CircuitBreaker) Check(r *model.Report) error {
	if cb == nil {
		return nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		return fmt.Errorf("%w: %s", ErrTripped, cb.reason)
	}

	if max := cb.thresholds.MaxAnnualizedReturn; max > 0 {
		ar := r.AnnualizedReturn
		if math.IsNaN(ar) || math.IsInf(ar, 0) || ar > max {
			return cb.trip(fmt.Sprintf("annualized return exceeds maximum threshold: %f > %f", ar, max), r)
		}
	}

	if max := cb.thresholds.MaxPriceChange; max > 0 {
		if day, change, ok := largestPriceJump(r.Data.List, max); ok {
			return cb.trip(fmt.Sprintf("price change too drastic on %s: %.2f%% (threshold: %.2f%%)",
				day, change*100, max*100), r)
		}
	}

	logrus.Debug("Circuit breaker checks passed")
	return nil
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset forcibly resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.reason = ""
	logrus.Info("Circuit breaker manually reset to closed state")
}

// trip opens the breaker, caller holds the lock
func (cb *CircuitBreaker) trip(reason string, r *model.Report) error {
	cb.state = StateOpen
	cb.reason = reason
	logrus.WithField("address", r.Address).Warnf("Circuit breaker tripped: %s", reason)

	if cb.onTripCallback != nil {
		cb.onTripCallback(reason, r)
	}
	return fmt.Errorf("%w: %s", ErrTripped, reason)
}

// largestPriceJump returns the first day whose price moved more than max
// relative to the previous priced day. Unpriced days are skipped.
func largestPriceJump(days []model.DayRecord, max float64) (string, float64, bool) {
	prev := 0.0
	for _, d := range days {
		if d.Price <= 0 {
			continue
		}
		if prev > 0 {
			change := math.Abs(d.Price-prev) / prev
			if change > max {
				return d.Day, change, true
			}
		}
		prev = d.Price
	}
	return "", 0, false
}
