// Package pricing implements the pricing bounded context: oracle sources,
// reading validation, and canonical price production.
package pricing

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/nmoretto/oraclewatch/business/pricing/app"
	pricingDI "github.com/nmoretto/oraclewatch/business/pricing/di"
	"github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/business/pricing/infra/chainlink"
	"github.com/nmoretto/oraclewatch/business/pricing/infra/feed"
	"github.com/nmoretto/oraclewatch/business/pricing/infra/memconfig"
	"github.com/nmoretto/oraclewatch/business/pricing/infra/rest"
	"github.com/nmoretto/oraclewatch/internal/config"
	"github.com/nmoretto/oraclewatch/internal/di"
	"github.com/nmoretto/oraclewatch/internal/logger"
	"github.com/nmoretto/oraclewatch/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.ConfigStore, func(sr di.ServiceRegistry) app.ConfigStore {
		cfg := sr.Get("config").(*config.Config)
		return memconfig.NewStore(sourceConfigs(cfg))
	})

	di.RegisterToken(c, pricingDI.ChainlinkProvider, func(sr di.ServiceRegistry) app.ReadingProvider {
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		provider, err := chainlink.NewProvider(ethClient, log)
		if err != nil {
			panic("failed to create chainlink provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, pricingDI.FeedProvider, func(sr di.ServiceRegistry) app.ReadingProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := feed.NewProvider(feed.ProviderConfig{
			WebSocketURL: cfg.Feed.WebSocketURL,
			Symbols:      feedSymbols(cfg),
		}, log)
		if err != nil {
			panic("failed to create feed provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, pricingDI.RestProvider, func(sr di.ServiceRegistry) app.ReadingProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := rest.NewProvider(rest.ProviderConfig{
			BaseURL:        cfg.Rest.BaseURL,
			RequestTimeout: cfg.Rest.RequestTimeout,
		}, log)
		if err != nil {
			panic("failed to create rest provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, pricingDI.PricingService, func(sr di.ServiceRegistry) *app.PricingService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		providers := make(map[string]app.ReadingProvider)
		for _, kind := range configuredKinds(cfg) {
			switch kind {
			case "chainlink":
				providers[kind] = di.GetToken(sr, pricingDI.ChainlinkProvider)
			case "feed":
				providers[kind] = di.GetToken(sr, pricingDI.FeedProvider)
			case "rest":
				providers[kind] = di.GetToken(sr, pricingDI.RestProvider)
			}
		}

		return app.NewPricingService(pricingDI.GetConfigStore(sr), providers, log)
	})

	return nil
}

// Startup connects the push feed if any source uses it. The chainlink and
// rest providers are pull-based and need no warm-up.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	usesFeed := false
	for _, kind := range configuredKinds(mono.Config()) {
		if kind == "feed" {
			usesFeed = true
		}
	}

	if usesFeed {
		provider := di.GetToken(mono.Services(), pricingDI.FeedProvider)
		if connector, ok := provider.(interface{ Connect(context.Context) error }); ok {
			connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := connector.Connect(connectCtx); err != nil {
				log.Warn(ctx, "feed connection failed, retrying in background", "error", err)
				go func() {
					for {
						select {
						case <-ctx.Done():
							return
						case <-time.After(5 * time.Second):
							if err := connector.Connect(ctx); err != nil {
								log.Warn(ctx, "feed retry failed", "error", err)
							} else {
								log.Info(ctx, "feed connected")
								return
							}
						}
					}
				}()
			}
		}
	}

	log.Info(ctx, "pricing module started")
	return nil
}

func sourceConfigs(cfg *config.Config) []domain.SourceConfig {
	out := make([]domain.SourceConfig, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		ref := src.Symbol
		if src.Kind == "chainlink" {
			ref = src.Aggregator
		}
		out = append(out, domain.SourceConfig{
			Source:       domain.SourceID(src.ID),
			Asset:        domain.Asset(src.Asset),
			Provider:     src.Kind,
			Ref:          ref,
			MaxStaleness: src.MaxStaleness,
			Active:       src.Active,
		})
	}
	return out
}

func configuredKinds(cfg *config.Config) []string {
	seen := make(map[string]bool)
	var kinds []string
	for _, src := range cfg.Sources {
		if !seen[src.Kind] {
			seen[src.Kind] = true
			kinds = append(kinds, src.Kind)
		}
	}
	return kinds
}

func feedSymbols(cfg *config.Config) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, src := range cfg.Sources {
		if src.Kind == "feed" && !seen[src.Symbol] {
			seen[src.Symbol] = true
			symbols = append(symbols, src.Symbol)
		}
	}
	return symbols
}
