package app

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "arbitrage_watcher"

type watcherMetrics struct {
	roundsTotal        metric.Int64Counter
	updateErrors       metric.Int64Counter
	opportunitiesTotal metric.Int64Counter
	roundLatency       metric.Float64Histogram
}

func newWatcherMetrics() (*watcherMetrics, error) {
	meter := otel.Meter(meterName)
	m := &watcherMetrics{}
	var err error

	m.roundsTotal, err = meter.Int64Counter(
		"watcher_update_rounds_total",
		metric.WithDescription("Total price update rounds attempted"),
	)
	if err != nil {
		return nil, err
	}

	m.updateErrors, err = meter.Int64Counter(
		"watcher_update_errors_total",
		metric.WithDescription("Total failed price update rounds"),
	)
	if err != nil {
		return nil, err
	}

	m.opportunitiesTotal, err = meter.Int64Counter(
		"watcher_opportunities_total",
		metric.WithDescription("Total profitable opportunities observed"),
	)
	if err != nil {
		return nil, err
	}

	m.roundLatency, err = meter.Float64Histogram(
		"watcher_round_latency_ms",
		metric.WithDescription("Update round latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}
