package app

import (
	"context"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/apperror"
	"github.com/nmoretto/oraclewatch/internal/logger"
)

type fakeStore struct {
	configs map[string]domain.SourceConfig
}

func (f *fakeStore) Get(source domain.SourceID, asset domain.Asset) (domain.SourceConfig, bool) {
	cfg, ok := f.configs[string(source)+"/"+string(asset)]
	return cfg, ok
}

type fakeProvider struct {
	reading domain.RawReading
	err     error
}

func (f *fakeProvider) GetLatest(_ context.Context, _ domain.SourceConfig) (domain.RawReading, error) {
	if f.err != nil {
		return domain.RawReading{}, f.err
	}
	return f.reading, nil
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func TestFetchValidated(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	cfg := domain.SourceConfig{
		Source:       "rest-eth-usd",
		Asset:        "ETH-USD",
		Provider:     "rest",
		MaxStaleness: 60 * time.Second,
		Active:       true,
	}
	store := &fakeStore{configs: map[string]domain.SourceConfig{
		"rest-eth-usd/ETH-USD": cfg,
	}}

	t.Run("valid reading returns canonical price", func(t *testing.T) {
		provider := &fakeProvider{reading: domain.RawReading{
			Answer:    big.NewInt(250000000000), // 2500 at 8 decimals
			Decimals:  8,
			UpdatedAt: now.Add(-5 * time.Second),
		}}
		svc := NewPricingService(store, map[string]ReadingProvider{"rest": provider}, testLogger())

		price, err := svc.FetchValidated(context.Background(), "rest-eth-usd", "ETH-USD", now)
		if err != nil {
			t.Fatalf("FetchValidated: %v", err)
		}
		if got := price.String(); got != "2500" {
			t.Errorf("price = %s, want 2500", got)
		}
	})

	t.Run("unknown source yields configuration missing", func(t *testing.T) {
		svc := NewPricingService(store, map[string]ReadingProvider{}, testLogger())

		_, err := svc.FetchValidated(context.Background(), "nope", "ETH-USD", now)
		if got := apperror.GetCode(err); got != apperror.CodeConfigurationMissing {
			t.Errorf("error code = %s, want %s", got, apperror.CodeConfigurationMissing)
		}
	})

	t.Run("unregistered provider kind rejected", func(t *testing.T) {
		svc := NewPricingService(store, map[string]ReadingProvider{}, testLogger())

		_, err := svc.FetchValidated(context.Background(), "rest-eth-usd", "ETH-USD", now)
		if got := apperror.GetCode(err); got != apperror.CodeProviderUnsupported {
			t.Errorf("error code = %s, want %s", got, apperror.CodeProviderUnsupported)
		}
	})

	t.Run("provider error propagates", func(t *testing.T) {
		provider := &fakeProvider{err: apperror.New(apperror.CodeRestRequestFailed)}
		svc := NewPricingService(store, map[string]ReadingProvider{"rest": provider}, testLogger())

		_, err := svc.FetchValidated(context.Background(), "rest-eth-usd", "ETH-USD", now)
		if got := apperror.GetCode(err); got != apperror.CodeRestRequestFailed {
			t.Errorf("error code = %s, want %s", got, apperror.CodeRestRequestFailed)
		}
	})

	t.Run("stale reading rejected after fetch", func(t *testing.T) {
		provider := &fakeProvider{reading: domain.RawReading{
			Answer:    big.NewInt(250000000000),
			Decimals:  8,
			UpdatedAt: now.Add(-2 * time.Minute),
		}}
		svc := NewPricingService(store, map[string]ReadingProvider{"rest": provider}, testLogger())

		_, err := svc.FetchValidated(context.Background(), "rest-eth-usd", "ETH-USD", now)
		if got := apperror.GetCode(err); got != apperror.CodeStaleData {
			t.Errorf("error code = %s, want %s", got, apperror.CodeStaleData)
		}
	})
}
