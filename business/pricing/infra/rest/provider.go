// Package rest implements ReadingProvider against a pull-based spot price
// HTTP API.
package rest

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nmoretto/oraclewatch/business/pricing/app"
	"github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/apperror"
	"github.com/nmoretto/oraclewatch/internal/httpclient"
	"github.com/nmoretto/oraclewatch/internal/logger"
)

const tracerName = "rest"

var _ app.ReadingProvider = (*Provider)(nil)

// spotPriceResponse is the upstream payload. Price is the raw integer
// string at the API's native precision.
type spotPriceResponse struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Decimals  uint8  `json:"decimals"`
	UpdatedAt int64  `json:"updated_at"` // unix seconds
}

// ProviderConfig holds REST provider configuration.
type ProviderConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// Provider fetches spot prices over HTTP.
type Provider struct {
	client httpclient.Client
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewProvider creates a REST provider with an instrumented HTTP client.
func NewProvider(cfg ProviderConfig, log logger.LoggerInterface) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("rest: base_url is required"))
	}

	opts := []httpclient.ClientOption{
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithProviderName("rest-spot"),
		httpclient.WithHeader("Accept", "application/json"),
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, httpclient.WithRequestTimeout(cfg.RequestTimeout))
	}

	client, err := httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client: client,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// GetLatest fetches the current spot price for the source's symbol.
func (p *Provider) GetLatest(ctx context.Context, cfg domain.SourceConfig) (domain.RawReading, error) {
	ctx, span := p.tracer.Start(ctx, "rest.get_latest",
		trace.WithAttributes(attribute.String("symbol", cfg.Ref)),
	)
	defer span.End()

	var payload spotPriceResponse
	resp, err := p.client.NewRequest().
		SetQueryParam("symbol", cfg.Ref).
		SetResult(&payload).
		Get(ctx, "/v1/spot-price")
	if err != nil {
		span.RecordError(err)
		return domain.RawReading{}, apperror.Wrap(err, apperror.CodeRestRequestFailed,
			fmt.Sprintf("symbol %s", cfg.Ref))
	}
	if resp.IsError() {
		return domain.RawReading{}, apperror.New(apperror.CodeRestRequestFailed,
			apperror.WithContext(fmt.Sprintf("symbol %s status %d", cfg.Ref, resp.StatusCode)))
	}

	answer, ok := new(big.Int).SetString(payload.Price, 10)
	if !ok {
		return domain.RawReading{}, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContext(fmt.Sprintf("rest price %q for %s", payload.Price, cfg.Ref)))
	}

	p.logger.Debug(ctx, "rest reading",
		"symbol", cfg.Ref, "price", payload.Price, "decimals", payload.Decimals)

	return domain.RawReading{
		Answer:    answer,
		Decimals:  payload.Decimals,
		UpdatedAt: time.Unix(payload.UpdatedAt, 0).UTC(),
	}, nil
}
