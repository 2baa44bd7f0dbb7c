package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nmoretto/oraclewatch/business/pricing/app"
	"github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/apperror"
	"github.com/nmoretto/oraclewatch/internal/logger"
	"github.com/nmoretto/oraclewatch/internal/wsconn"
)

const tracerName = "feed"

var _ app.ReadingProvider = (*Provider)(nil)

// ProviderConfig holds feed provider configuration.
type ProviderConfig struct {
	WebSocketURL string
	Symbols      []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type tickState struct {
	mu      sync.RWMutex
	reading domain.RawReading
	hasData bool
}

// Provider caches the latest pushed reading per symbol and serves
// GetLatest from that cache. The feed connection reconnects on its own.
type Provider struct {
	config ProviderConfig
	logger logger.LoggerInterface

	connMu sync.RWMutex
	conn   *wsconn.Client

	ticksMu sync.RWMutex
	ticks   map[string]*tickState

	tracer           trace.Tracer
	messagesReceived metric.Int64Counter
	parseErrors      metric.Int64Counter
}

// NewProvider creates a feed provider. Connect must be called before
// readings are available.
func NewProvider(cfg ProviderConfig, log logger.LoggerInterface) (*Provider, error) {
	if cfg.WebSocketURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("feed: websocket_url is required"))
	}

	p := &Provider{
		config: cfg,
		logger: log,
		ticks:  make(map[string]*tickState),
		tracer: otel.Tracer(tracerName),
	}
	for _, sym := range cfg.Symbols {
		p.ticks[sym] = &tickState{}
	}

	meter := otel.Meter(tracerName)
	var err error
	p.messagesReceived, err = meter.Int64Counter(
		"feed_messages_received_total",
		metric.WithDescription("Total feed messages received"),
	)
	if err != nil {
		return nil, err
	}
	p.parseErrors, err = meter.Int64Counter(
		"feed_parse_errors_total",
		metric.WithDescription("Total feed messages that failed to parse"),
	)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Connect dials the feed and subscribes to the configured symbols.
func (p *Provider) Connect(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "feed.connect",
		trace.WithAttributes(attribute.StringSlice("symbols", p.config.Symbols)),
	)
	defer span.End()

	wsCfg := wsconn.DefaultConfig(p.config.WebSocketURL, "feed")
	if p.config.ReadTimeout > 0 {
		wsCfg.ReadTimeout = p.config.ReadTimeout
	}
	if p.config.WriteTimeout > 0 {
		wsCfg.WriteTimeout = p.config.WriteTimeout
	}

	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return err
	}
	conn.OnMessage(p.handleMessage)

	if err := conn.ConnectWithRetry(ctx); err != nil {
		return err
	}

	p.connMu.Lock()
	p.conn = conn
	p.connMu.Unlock()

	sub := WSRequest{
		Method: "SUBSCRIBE",
		Params: p.config.Symbols,
		ID:     time.Now().UnixNano(),
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	if err := conn.Send(ctx, payload); err != nil {
		return err
	}

	p.logger.Info(ctx, "feed connected",
		"url", p.config.WebSocketURL, "symbols", p.config.Symbols)
	return nil
}

// Close terminates the feed connection.
func (p *Provider) Close() error {
	p.connMu.RLock()
	conn := p.conn
	p.connMu.RUnlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected reports whether the feed connection is live.
func (p *Provider) IsConnected() bool {
	p.connMu.RLock()
	defer p.connMu.RUnlock()
	return p.conn != nil && p.conn.IsConnected()
}

// GetLatest serves the most recent pushed reading for the source's symbol.
func (p *Provider) GetLatest(_ context.Context, cfg domain.SourceConfig) (domain.RawReading, error) {
	p.ticksMu.RLock()
	state, ok := p.ticks[cfg.Ref]
	p.ticksMu.RUnlock()
	if !ok {
		return domain.RawReading{}, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("feed: symbol %s not subscribed", cfg.Ref)))
	}

	state.mu.RLock()
	defer state.mu.RUnlock()
	if !state.hasData {
		return domain.RawReading{}, apperror.New(apperror.CodeFeedNoData,
			apperror.WithContext(fmt.Sprintf("symbol %s", cfg.Ref)))
	}
	return state.reading, nil
}

func (p *Provider) handleMessage(ctx context.Context, data []byte) {
	p.messagesReceived.Add(ctx, 1)

	var event TickEvent
	if err := json.Unmarshal(data, &event); err != nil || event.Symbol == "" {
		var resp WSResponse
		if json.Unmarshal(data, &resp) == nil && resp.ID != 0 {
			p.logger.Debug(ctx, "feed subscription acknowledged")
			return
		}
		p.parseErrors.Add(ctx, 1)
		p.logger.Debug(ctx, "unparseable feed message", "data", string(data))
		return
	}

	answer, err := event.ParsePrice()
	if err != nil {
		p.parseErrors.Add(ctx, 1)
		p.logger.Warn(ctx, "feed tick with bad price",
			"symbol", event.Symbol, "price", event.Price)
		return
	}

	p.ticksMu.RLock()
	state, ok := p.ticks[event.Symbol]
	p.ticksMu.RUnlock()
	if !ok {
		// feed may push symbols we never subscribed to
		return
	}

	state.mu.Lock()
	state.reading = domain.RawReading{
		Answer:    answer,
		Decimals:  event.Decimals,
		UpdatedAt: event.UpdatedAt(),
	}
	state.hasData = true
	state.mu.Unlock()
}
