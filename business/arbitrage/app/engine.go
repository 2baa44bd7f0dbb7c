package app

import (
	"context"
	"sync"
	"time"

	"github.com/nmoretto/oraclewatch/business/arbitrage/domain"
	pricingApp "github.com/nmoretto/oraclewatch/business/pricing/app"
	pricingDomain "github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/logger"
)

// SourcePair names the two sources the engine compares for every asset.
type SourcePair struct {
	SourceA pricingDomain.SourceID
	SourceB pricingDomain.SourceID
}

// Engine maintains the latest price snapshot per asset. Opportunities are
// derived from the snapshot and the current thresholds on every query, so
// a threshold change is visible immediately, without waiting for the next
// update. Updates are all-or-nothing: a failure at any stage leaves the
// previously published snapshot untouched. Queries never fail; they
// report absence instead.
type Engine struct {
	pricing  *pricingApp.PricingService
	sources  SourcePair
	clock    Clock
	notifier Notifier
	logger   logger.LoggerInterface

	mu         sync.RWMutex
	snapshots  map[pricingDomain.Asset]domain.PriceSnapshot
	thresholds map[pricingDomain.Asset]domain.Thresholds
	defaults   domain.Thresholds
}

// NewEngine creates an engine comparing the two configured sources.
func NewEngine(
	pricing *pricingApp.PricingService,
	sources SourcePair,
	defaults domain.Thresholds,
	clock Clock,
	notifier Notifier,
	log logger.LoggerInterface,
) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{
		pricing:    pricing,
		sources:    sources,
		clock:      clock,
		notifier:   notifier,
		logger:     log,
		snapshots:  make(map[pricingDomain.Asset]domain.PriceSnapshot),
		thresholds: make(map[pricingDomain.Asset]domain.Thresholds),
		defaults:   defaults,
	}
}

// SetThresholds overrides the default thresholds for one asset.
func (e *Engine) SetThresholds(asset pricingDomain.Asset, t domain.Thresholds) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.thresholds[asset] = t
}

func (e *Engine) thresholdsFor(asset pricingDomain.Asset) domain.Thresholds {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if t, ok := e.thresholds[asset]; ok {
		return t
	}
	return e.defaults
}

// UpdatePrices fetches both sources, compares them, estimates the
// opportunity, and atomically replaces the asset's snapshot. On any
// error the previous snapshot and opportunity remain visible.
func (e *Engine) UpdatePrices(ctx context.Context, asset pricingDomain.Asset) (*domain.PriceSnapshot, error) {
	now := e.clock.Now()

	priceA, err := e.pricing.FetchValidated(ctx, e.sources.SourceA, asset, now)
	if err != nil {
		return nil, err
	}
	priceB, err := e.pricing.FetchValidated(ctx, e.sources.SourceB, asset, now)
	if err != nil {
		return nil, err
	}

	spread, err := pricingDomain.Compare(priceA, priceB)
	if err != nil {
		return nil, err
	}

	// estimated here only to decide the notification; queries re-derive
	// the opportunity from the snapshot under whatever thresholds hold then
	opp, err := Estimate(spread, priceA, priceB, e.thresholdsFor(asset))
	if err != nil {
		return nil, err
	}
	opp.Asset = asset
	opp.Timestamp = now

	snapshot := domain.PriceSnapshot{
		Asset:             asset,
		PriceA:            priceA,
		PriceB:            priceB,
		SpreadBasisPoints: spread.BasisPoints,
		HigherSide:        spread.HigherSide,
		ObservedAt:        now,
	}

	e.mu.Lock()
	e.snapshots[asset] = snapshot
	e.mu.Unlock()

	if e.notifier != nil {
		e.notifier.PriceUpdated(&snapshot)
		if opp.IsProfitable {
			e.notifier.OpportunityDetected(&opp)
		}
	}

	e.logger.Debug(ctx, "prices updated",
		"asset", string(asset),
		"price_a", priceA.String(),
		"price_b", priceB.String(),
		"spread_bps", spread.BasisPoints,
		"profitable", opp.IsProfitable,
	)

	return &snapshot, nil
}

// CurrentOpportunity derives the opportunity for an asset from its latest
// snapshot and the thresholds in force right now, or reports false if no
// update has succeeded yet.
func (e *Engine) CurrentOpportunity(asset pricingDomain.Asset) (domain.Opportunity, bool) {
	e.mu.RLock()
	snap, ok := e.snapshots[asset]
	t, override := e.thresholds[asset]
	e.mu.RUnlock()
	if !ok {
		return domain.Opportunity{}, false
	}
	if !override {
		t = e.defaults
	}
	return e.evaluate(snap, t), true
}

// IsCurrentlyProfitable reports whether the current opportunity is
// profitable and at how many basis points. Missing data reads as not
// profitable.
func (e *Engine) IsCurrentlyProfitable(asset pricingDomain.Asset) (bool, uint64) {
	opp, ok := e.CurrentOpportunity(asset)
	if !ok {
		return false, 0
	}
	return opp.IsProfitable, opp.SpreadBasisPoints
}

func (e *Engine) evaluate(snap domain.PriceSnapshot, t domain.Thresholds) domain.Opportunity {
	spread := pricingDomain.SpreadResult{
		BasisPoints: snap.SpreadBasisPoints,
		HigherSide:  snap.HigherSide,
	}
	opp, err := Estimate(spread, snap.PriceA, snap.PriceB, t)
	if err != nil {
		// pathological cost parameters read as not profitable
		opp = domain.Opportunity{SpreadBasisPoints: snap.SpreadBasisPoints}
	}
	opp.Asset = snap.Asset
	opp.Timestamp = snap.ObservedAt
	return opp
}

// GetSnapshot returns the latest snapshot for an asset.
func (e *Engine) GetSnapshot(asset pricingDomain.Asset) (domain.PriceSnapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	snap, ok := e.snapshots[asset]
	return snap, ok
}

// IsSnapshotFresh reports whether the asset's snapshot exists and is no
// older than maxAge. A snapshot exactly at maxAge is still fresh.
func (e *Engine) IsSnapshotFresh(asset pricingDomain.Asset, maxAge time.Duration) bool {
	e.mu.RLock()
	snap, ok := e.snapshots[asset]
	e.mu.RUnlock()
	if !ok {
		return false
	}
	return e.clock.Now().Sub(snap.ObservedAt) <= maxAge
}
