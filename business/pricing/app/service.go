package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/apperror"
	"github.com/nmoretto/oraclewatch/internal/fixedpoint"
	"github.com/nmoretto/oraclewatch/internal/logger"
)

// PricingService coordinates reading retrieval and validation. Providers
// are registered by source kind; the source config selects which one
// serves a given fetch.
type PricingService struct {
	store     ConfigStore
	providers map[string]ReadingProvider
	logger    logger.LoggerInterface
}

// NewPricingService creates a PricingService.
func NewPricingService(store ConfigStore, providers map[string]ReadingProvider, log logger.LoggerInterface) *PricingService {
	return &PricingService{
		store:     store,
		providers: providers,
		logger:    log,
	}
}

// FetchValidated fetches the latest reading for source/asset and validates
// it into a canonical price. Any failure along the way surfaces as a coded
// error; no partial result is returned.
func (s *PricingService) FetchValidated(
	ctx context.Context, source domain.SourceID, asset domain.Asset, now time.Time,
) (fixedpoint.Price, error) {
	cfg, ok := s.store.Get(source, asset)
	if !ok {
		return fixedpoint.Price{}, apperror.New(apperror.CodeConfigurationMissing,
			apperror.WithContext(fmt.Sprintf("source %s asset %s", source, asset)))
	}

	provider, ok := s.providers[cfg.Provider]
	if !ok {
		return fixedpoint.Price{}, apperror.New(apperror.CodeProviderUnsupported,
			apperror.WithContext(fmt.Sprintf("kind %s for source %s", cfg.Provider, source)))
	}

	raw, err := provider.GetLatest(ctx, cfg)
	if err != nil {
		return fixedpoint.Price{}, err
	}

	price, err := domain.ValidateReading(raw, cfg, now)
	if err != nil {
		s.logger.Debug(ctx, "reading rejected",
			"source", string(source), "asset", string(asset), "error", err)
		return fixedpoint.Price{}, err
	}

	return price, nil
}
