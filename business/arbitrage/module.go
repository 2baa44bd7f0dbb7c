// Package arbitrage implements the arbitrage bounded context: spread
// evaluation, profitability estimation, and opportunity notification.
package arbitrage

import (
	"context"

	"github.com/nmoretto/oraclewatch/business/arbitrage/app"
	arbitrageDI "github.com/nmoretto/oraclewatch/business/arbitrage/di"
	"github.com/nmoretto/oraclewatch/business/arbitrage/domain"
	"github.com/nmoretto/oraclewatch/business/arbitrage/infra"
	pricingDI "github.com/nmoretto/oraclewatch/business/pricing/di"
	pricingDomain "github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/config"
	"github.com/nmoretto/oraclewatch/internal/di"
	"github.com/nmoretto/oraclewatch/internal/fixedpoint"
	"github.com/nmoretto/oraclewatch/internal/logger"
	"github.com/nmoretto/oraclewatch/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.Notifier, func(sr di.ServiceRegistry) app.Notifier {
		cfg := sr.Get("config").(*config.Config)
		return infra.NewConsoleNotifier(cfg.App.Environment == "development")
	})

	di.RegisterToken(c, arbitrageDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		thresholds, err := thresholdsFromConfig(cfg)
		if err != nil {
			panic("invalid thresholds config: " + err.Error())
		}

		return app.NewEngine(
			pricingDI.GetPricingService(sr),
			app.SourcePair{
				SourceA: pricingDomain.SourceID(cfg.Monitor.SourceA),
				SourceB: pricingDomain.SourceID(cfg.Monitor.SourceB),
			},
			thresholds,
			app.SystemClock{},
			arbitrageDI.GetNotifier(sr),
			log,
		)
	})

	di.RegisterToken(c, arbitrageDI.Watcher, func(sr di.ServiceRegistry) *app.Watcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		assets := make([]pricingDomain.Asset, 0, len(cfg.Monitor.Assets))
		for _, a := range cfg.Monitor.Assets {
			assets = append(assets, pricingDomain.Asset(a))
		}

		return app.NewWatcher(
			arbitrageDI.GetEngine(sr),
			arbitrageDI.GetNotifier(sr),
			app.WatcherConfig{
				Assets:            assets,
				PollInterval:      cfg.Monitor.PollInterval,
				RequestsPerMinute: cfg.Monitor.RequestsPerMinute,
			},
			log,
		)
	})

	return nil
}

// Startup launches the watcher loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	watcher := arbitrageDI.GetWatcher(mono.Services())
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	mono.Logger().Info(ctx, "arbitrage module started")
	return nil
}

func thresholdsFromConfig(cfg *config.Config) (domain.Thresholds, error) {
	rate, err := cfg.Thresholds.CostRateDecimal()
	if err != nil {
		return domain.Thresholds{}, err
	}

	scaled := rate.Shift(int32(fixedpoint.CanonicalDecimals))
	costRate, err := fixedpoint.FromScaled(scaled.BigInt())
	if err != nil {
		return domain.Thresholds{}, err
	}

	return domain.Thresholds{
		MinProfitBps: cfg.Thresholds.MinProfitBps,
		CostRate:     costRate,
		Effort:       cfg.Thresholds.EffortUnits,
	}, nil
}
