// Package chainlink implements ReadingProvider against on-chain Chainlink
// aggregator contracts.
package chainlink

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nmoretto/oraclewatch/business/pricing/app"
	"github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/apperror"
	"github.com/nmoretto/oraclewatch/internal/circuitbreaker"
	"github.com/nmoretto/oraclewatch/internal/logger"
)

const (
	tracerName = "chainlink"
	meterName  = "chainlink"
)

var _ app.ReadingProvider = (*Provider)(nil)

type providerMetrics struct {
	callsTotal  metric.Int64Counter
	callLatency metric.Float64Histogram
	callErrors  metric.Int64Counter
}

// Provider fetches readings from AggregatorV3 contracts over an Ethereum
// RPC connection. Feed decimals are fetched once per aggregator and cached:
// they are immutable on chain.
type Provider struct {
	client        *ethclient.Client
	aggregatorABI abi.ABI

	decimalsMu    sync.RWMutex
	decimalsCache map[common.Address]uint8

	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a Chainlink aggregator provider.
func NewProvider(client *ethclient.Client, log logger.LoggerInterface) (*Provider, error) {
	parsedABI, err := abi.JSON(strings.NewReader(AggregatorV3ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse aggregator ABI: %w", err)
	}

	p := &Provider{
		client:        client,
		aggregatorABI: parsedABI,
		decimalsCache: make(map[common.Address]uint8),
		logger:        log,
		tracer:        otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("chainlink-aggregator")
	p.cb = circuitbreaker.New[[]byte](cbCfg)

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.callsTotal, err = meter.Int64Counter(
		"chainlink_calls_total",
		metric.WithDescription("Total aggregator calls"),
	)
	if err != nil {
		return err
	}

	p.metrics.callLatency, err = meter.Float64Histogram(
		"chainlink_call_latency_ms",
		metric.WithDescription("Aggregator call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.callErrors, err = meter.Int64Counter(
		"chainlink_call_errors_total",
		metric.WithDescription("Total aggregator call errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GetLatest reads latestRoundData from the source's aggregator contract.
func (p *Provider) GetLatest(ctx context.Context, cfg domain.SourceConfig) (domain.RawReading, error) {
	aggregator := common.HexToAddress(cfg.Ref)

	ctx, span := p.tracer.Start(ctx, "chainlink.get_latest",
		trace.WithAttributes(
			attribute.String("aggregator", aggregator.Hex()),
			attribute.String("asset", string(cfg.Asset)),
		),
	)
	defer span.End()

	start := time.Now()
	p.metrics.callsTotal.Add(ctx, 1)

	decimals, err := p.feedDecimals(ctx, aggregator)
	if err != nil {
		p.metrics.callErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "decimals call failed")
		return domain.RawReading{}, err
	}

	round, err := p.latestRoundData(ctx, aggregator)
	latency := float64(time.Since(start).Milliseconds())
	p.metrics.callLatency.Record(ctx, latency)

	if err != nil {
		p.metrics.callErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "latestRoundData failed")
		return domain.RawReading{}, err
	}

	reading := domain.RawReading{
		Answer:    round.Answer,
		Decimals:  decimals,
		UpdatedAt: time.Unix(round.UpdatedAt.Int64(), 0).UTC(),
	}

	span.SetAttributes(
		attribute.String("answer", round.Answer.String()),
		attribute.Int("decimals", int(decimals)),
		attribute.Int64("updated_at", round.UpdatedAt.Int64()),
	)
	span.SetStatus(codes.Ok, "reading received")

	p.logger.Debug(ctx, "chainlink reading",
		"aggregator", aggregator.Hex(),
		"asset", string(cfg.Asset),
		"answer", round.Answer.String(),
		"decimals", decimals,
	)

	return reading, nil
}

func (p *Provider) latestRoundData(ctx context.Context, aggregator common.Address) (*RoundData, error) {
	callData, err := p.aggregatorABI.Pack("latestRoundData")
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &aggregator,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeAggregatorCallFailed,
			fmt.Sprintf("latestRoundData on %s", aggregator.Hex()))
	}

	outputs, err := p.aggregatorABI.Unpack("latestRoundData", result)
	if err != nil {
		return nil, apperror.New(apperror.CodeAggregatorCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to decode latestRoundData"))
	}
	if len(outputs) < 5 {
		return nil, apperror.New(apperror.CodeAggregatorCallFailed,
			apperror.WithContext(fmt.Sprintf("unexpected output arity %d", len(outputs))))
	}

	return &RoundData{
		RoundID:         outputs[0].(*big.Int),
		Answer:          outputs[1].(*big.Int),
		StartedAt:       outputs[2].(*big.Int),
		UpdatedAt:       outputs[3].(*big.Int),
		AnsweredInRound: outputs[4].(*big.Int),
	}, nil
}

func (p *Provider) feedDecimals(ctx context.Context, aggregator common.Address) (uint8, error) {
	p.decimalsMu.RLock()
	decimals, ok := p.decimalsCache[aggregator]
	p.decimalsMu.RUnlock()
	if ok {
		return decimals, nil
	}

	callData, err := p.aggregatorABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := p.cb.Execute(func() ([]byte, error) {
		return p.client.CallContract(ctx, ethereum.CallMsg{
			To:   &aggregator,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeAggregatorCallFailed,
			fmt.Sprintf("decimals on %s", aggregator.Hex()))
	}

	outputs, err := p.aggregatorABI.Unpack("decimals", result)
	if err != nil || len(outputs) < 1 {
		return 0, apperror.New(apperror.CodeAggregatorCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to decode decimals"))
	}
	decimals = outputs[0].(uint8)

	p.decimalsMu.Lock()
	p.decimalsCache[aggregator] = decimals
	p.decimalsMu.Unlock()

	return decimals, nil
}
