// Package pipeline runs a report end to end: input check, ledger build,
// data fetch, metrics computation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/staking-rewards/internal/aggregate"
	"github.com/yourorg/staking-rewards/internal/circuitbreaker"
	"github.com/yourorg/staking-rewards/internal/ledger"
	"github.com/yourorg/staking-rewards/internal/model"
	"github.com/yourorg/staking-rewards/internal/otel"
	"github.com/yourorg/staking-rewards/internal/telemetry"
	"github.com/yourorg/staking-rewards/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RewardSource attaches payouts and raw plank amounts to a report
type RewardSource interface {
	FetchRewards(ctx context.Context, r *model.Report) error
}

// PriceSource sets the daily price and volume of a report
type PriceSource interface {
	FetchPrices(ctx context.Context, r *model.Report) error
}

// Request describes one report to produce
type Request struct {
	Range  validation.Range
	Params ledger.Params
}

// Runner wires the collaborators of a report run
type Runner struct {
	Rewards      RewardSource
	Prices       PriceSource
	Denominator  aggregate.Denominator
	Metrics      *telemetry.Metrics
	Guard        *circuitbreaker.CircuitBreaker
	FetchTimeout time.Duration

	// now is the validation clock, time.Now when nil
	now func() time.Time
}

// Run validates the request, builds the ledger, hands it to the reward and
// price sources in turn and computes the metrics. Each stage owns the report
// exclusively until it returns.
func (rn *Runner) Run(ctx context.Context, req Request) (*model.Report, error) {
	ctx, span := otel.Tracer().Start(ctx, "report.run", trace.WithAttributes(
		attribute.String("network", req.Params.Network),
		attribute.String("address", req.Params.Address),
	))
	defer span.End()

	report, err := rn.run(ctx, req)
	if err != nil {
		otel.RecordError(ctx, err)
		return nil, err
	}
	return report, nil
}

func (rn *Runner) run(ctx context.Context, req Request) (*model.Report, error) {
	now := time.Now
	if rn.now != nil {
		now = rn.now
	}
	if err := validation.VerifyUserInputAt(req.Range, now()); err != nil {
		return nil, err
	}

	days := ledger.BuildDaySequence(req.Range.Start, req.Range.End)
	report := ledger.InitializeReport(days, req.Params)
	logrus.WithFields(logrus.Fields{
		"network": req.Params.Network,
		"address": req.Params.Address,
		"days":    len(days),
	}).Info("Ledger initialized")

	if err := rn.fetch(ctx, report); err != nil {
		return nil, err
	}

	if err := validation.ValidateLedger(report); err != nil {
		return nil, err
	}

	_, span := otel.Tracer().Start(ctx, "report.compute")
	report, err := aggregate.ComputeMetrics(report, rn.Denominator)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("compute metrics: %w", err)
	}

	if err := rn.Guard.Check(report); err != nil {
		return nil, err
	}

	report.Message = model.MessageSuccess
	rn.Metrics.RecordReport(report)

	logrus.WithFields(logrus.Fields{
		"first_reward":      report.FirstReward,
		"last_reward":       report.LastReward,
		"total_amount":      report.TotalAmountHumanReadable,
		"total_value_fiat":  report.TotalValueFiat,
		"annualized_return": report.AnnualizedReturn,
	}).Info("Report computed")

	return report, nil
}

// fetch fills raw inputs, rewards first then prices, within FetchTimeout
func (rn *Runner) fetch(ctx context.Context, report *model.Report) error {
	if rn.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rn.FetchTimeout)
		defer cancel()
	}

	if rn.Rewards != nil {
		spanCtx, span := otel.Tracer().Start(ctx, "report.fetch_rewards")
		err := rn.Rewards.FetchRewards(spanCtx, report)
		span.End()
		if err != nil {
			return fmt.Errorf("fetch rewards: %w", err)
		}
	}

	if rn.Prices != nil {
		spanCtx, span := otel.Tracer().Start(ctx, "report.fetch_prices")
		err := rn.Prices.FetchPrices(spanCtx, report)
		span.End()
		if err != nil {
			return fmt.Errorf("fetch prices: %w", err)
		}
	}

	return nil
}
