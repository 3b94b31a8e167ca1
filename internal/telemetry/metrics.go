// Package telemetry holds the Prometheus metrics of a report run.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yourorg/staking-rewards/internal/model"
)

// Metrics holds Prometheus collectors on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	payoutsParsed   prometheus.Counter
	reportDays      prometheus.Gauge
	totalAmount     prometheus.Gauge
	totalValueFiat  prometheus.Gauge
	annualized      prometheus.Gauge
	currentValue    prometheus.Gauge
	lastSuccessTime prometheus.Gauge
	guardTrips      prometheus.Counter
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stakingrewards_api_requests_total",
				Help: "Total number of external API requests",
			},
			[]string{"api", "status"},
		),
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stakingrewards_api_request_duration_seconds",
				Help:    "External API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api"},
		),
		payoutsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stakingrewards_payouts_parsed_total",
			Help: "Number of reward payouts attached to the ledger",
		}),
		reportDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stakingrewards_report_days",
			Help: "Number of days covered by the last report",
		}),
		totalAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stakingrewards_report_total_amount",
			Help: "Total rewards of the last report in token units",
		}),
		totalValueFiat: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stakingrewards_report_total_value_fiat",
			Help: "Fiat value of the rewards at payout time",
		}),
		annualized: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stakingrewards_report_annualized_return",
			Help: "Annualized return of the last report as a ratio",
		}),
		currentValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stakingrewards_report_current_value_fiat",
			Help: "Rewards valued at the first day's price",
		}),
		lastSuccessTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stakingrewards_last_success_timestamp_seconds",
			Help: "Unix time of the last successful report",
		}),
		guardTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stakingrewards_guard_trips_total",
			Help: "Reports rejected by the circuit breaker",
		}),
	}

	m.registry.MustRegister(
		m.apiRequests,
		m.apiDuration,
		m.payoutsParsed,
		m.reportDays,
		m.totalAmount,
		m.totalValueFiat,
		m.annualized,
		m.currentValue,
		m.lastSuccessTime,
		m.guardTrips,
	)

	return m
}

// Registry exposes the underlying registry, e.g. for promhttp or tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one API call. Safe on a nil receiver.
func (m *Metrics) ObserveRequest(api, status string, seconds float64) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(api, status).Inc()
	m.apiDuration.WithLabelValues(api).Observe(seconds)
}

// AddPayouts counts parsed payouts. Safe on a nil receiver.
func (m *Metrics) AddPayouts(n int) {
	if m == nil {
		return
	}
	m.payoutsParsed.Add(float64(n))
}

// RecordReport publishes the aggregates of a computed report. Safe on a nil receiver.
func (m *Metrics) RecordReport(r *model.Report) {
	if m == nil {
		return
	}
	m.reportDays.Set(float64(r.Data.NumberOfDays))
	m.totalAmount.Set(r.TotalAmountHumanReadable)
	m.totalValueFiat.Set(r.TotalValueFiat)
	m.annualized.Set(r.AnnualizedReturn)
	m.currentValue.Set(r.CurrentValueRewardsFiat)
	m.lastSuccessTime.SetToCurrentTime()
}

// GuardTripped counts a rejected report. Safe on a nil receiver.
func (m *Metrics) GuardTripped() {
	if m == nil {
		return
	}
	m.guardTrips.Inc()
}

// WriteTextfile dumps the registry in node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
