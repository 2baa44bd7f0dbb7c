package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	pricingDomain "github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/logger"
	"github.com/nmoretto/oraclewatch/internal/ratelimit"
)

// WatcherConfig controls the polling loop.
type WatcherConfig struct {
	Assets            []pricingDomain.Asset
	PollInterval      time.Duration
	RequestsPerMinute int
}

// Watcher drives the engine on a fixed interval, rate limited so a short
// interval with many assets cannot hammer the upstream sources.
type Watcher struct {
	engine   *Engine
	notifier Notifier
	config   WatcherConfig
	limiter  *ratelimit.Limiter
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	metrics  *watcherMetrics
}

// NewWatcher creates a watcher over the given engine.
func NewWatcher(engine *Engine, notifier Notifier, cfg WatcherConfig, log logger.LoggerInterface) *Watcher {
	metrics, err := newWatcherMetrics()
	if err != nil {
		log.Warn(context.Background(), "watcher metrics unavailable", "error", err)
	}

	return &Watcher{
		engine:   engine,
		notifier: notifier,
		config:   cfg,
		limiter:  ratelimit.New(cfg.RequestsPerMinute),
		logger:   log,
		tracer:   otel.Tracer("arbitrage_watcher"),
		metrics:  metrics,
	}
}

// Start begins the polling loop in the background.
func (w *Watcher) Start(ctx context.Context) error {
	if w.notifier != nil {
		if err := w.notifier.Start(ctx); err != nil {
			return err
		}
	}

	w.logger.Info(ctx, "watcher started",
		"assets", len(w.config.Assets),
		"interval", w.config.PollInterval.String())

	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// first round immediately, then on the ticker
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "watcher stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	for _, asset := range w.config.Assets {
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
		w.updateAsset(ctx, asset)
	}
}

func (w *Watcher) updateAsset(ctx context.Context, asset pricingDomain.Asset) {
	ctx, span := w.tracer.Start(ctx, "watcher.update_prices",
		trace.WithAttributes(attribute.String("asset", string(asset))))
	defer span.End()

	start := time.Now()
	if w.metrics != nil {
		w.metrics.roundsTotal.Add(ctx, 1)
	}

	_, err := w.engine.UpdatePrices(ctx, asset)

	if w.metrics != nil {
		w.metrics.roundLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	}

	if err != nil {
		// failed rounds keep the previous snapshot; just log and move on
		if w.metrics != nil {
			w.metrics.updateErrors.Add(ctx, 1)
		}
		span.SetStatus(codes.Error, "update failed")
		span.RecordError(err)
		w.logger.Warn(ctx, "price update failed",
			"asset", string(asset), "error", err)
		return
	}

	if profitable, _ := w.engine.IsCurrentlyProfitable(asset); profitable && w.metrics != nil {
		w.metrics.opportunitiesTotal.Add(ctx, 1)
	}
	span.SetStatus(codes.Ok, "updated")
}

// Stop shuts the notifier down. The loop itself stops with its context.
func (w *Watcher) Stop() error {
	if w.notifier != nil {
		return w.notifier.Stop()
	}
	return nil
}
