package app

import (
	"context"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/nmoretto/oraclewatch/business/arbitrage/domain"
	pricingApp "github.com/nmoretto/oraclewatch/business/pricing/app"
	pricingDomain "github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/apperror"
	"github.com/nmoretto/oraclewatch/internal/fixedpoint"
	"github.com/nmoretto/oraclewatch/internal/logger"
)

const testAsset pricingDomain.Asset = "ETH-USD"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type stubStore struct {
	configs map[pricingDomain.SourceID]pricingDomain.SourceConfig
}

func (s *stubStore) Get(source pricingDomain.SourceID, asset pricingDomain.Asset) (pricingDomain.SourceConfig, bool) {
	cfg, ok := s.configs[source]
	if !ok || cfg.Asset != asset {
		return pricingDomain.SourceConfig{}, false
	}
	return cfg, true
}

type stubProvider struct {
	mu       sync.Mutex
	readings map[pricingDomain.SourceID]pricingDomain.RawReading
}

func (p *stubProvider) GetLatest(_ context.Context, cfg pricingDomain.SourceConfig) (pricingDomain.RawReading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readings[cfg.Source], nil
}

func (p *stubProvider) set(source pricingDomain.SourceID, answer int64, updatedAt time.Time) {
	p.mu.Lock()
	p.readings[source] = pricingDomain.RawReading{
		Answer:    big.NewInt(answer),
		Decimals:  8,
		UpdatedAt: updatedAt,
	}
	p.mu.Unlock()
}

type recordingNotifier struct {
	mu            sync.Mutex
	opportunities []domain.Opportunity
	snapshots     []domain.PriceSnapshot
}

func (n *recordingNotifier) Start(context.Context) error { return nil }
func (n *recordingNotifier) Stop() error                 { return nil }

func (n *recordingNotifier) OpportunityDetected(opp *domain.Opportunity) {
	n.mu.Lock()
	n.opportunities = append(n.opportunities, *opp)
	n.mu.Unlock()
}

func (n *recordingNotifier) PriceUpdated(snap *domain.PriceSnapshot) {
	n.mu.Lock()
	n.snapshots = append(n.snapshots, *snap)
	n.mu.Unlock()
}

type engineFixture struct {
	engine   *Engine
	provider *stubProvider
	clock    *fakeClock
	notifier *recordingNotifier
}

func newEngineFixture(t *testing.T, thresholds domain.Thresholds) *engineFixture {
	t.Helper()

	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}

	store := &stubStore{configs: map[pricingDomain.SourceID]pricingDomain.SourceConfig{
		"src-a": {
			Source: "src-a", Asset: testAsset, Provider: "stub",
			MaxStaleness: time.Minute, Active: true,
		},
		"src-b": {
			Source: "src-b", Asset: testAsset, Provider: "stub",
			MaxStaleness: time.Minute, Active: true,
		},
	}}
	provider := &stubProvider{readings: make(map[pricingDomain.SourceID]pricingDomain.RawReading)}

	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	pricing := pricingApp.NewPricingService(store, map[string]pricingApp.ReadingProvider{"stub": provider}, log)

	notifier := &recordingNotifier{}
	engine := NewEngine(pricing,
		SourcePair{SourceA: "src-a", SourceB: "src-b"},
		thresholds, clock, notifier, log)

	return &engineFixture{engine: engine, provider: provider, clock: clock, notifier: notifier}
}

func defaultThresholds() domain.Thresholds {
	return domain.Thresholds{
		MinProfitBps: 50,
		CostRate:     fixedpoint.MustFromString("10"),
		Effort:       1,
	}
}

func TestEngineQueriesWithNoData(t *testing.T) {
	f := newEngineFixture(t, defaultThresholds())

	if _, ok := f.engine.CurrentOpportunity(testAsset); ok {
		t.Error("CurrentOpportunity should report absence")
	}
	if profitable, bps := f.engine.IsCurrentlyProfitable(testAsset); profitable || bps != 0 {
		t.Errorf("IsCurrentlyProfitable = %v, %d; want false, 0", profitable, bps)
	}
	if _, ok := f.engine.GetSnapshot(testAsset); ok {
		t.Error("GetSnapshot should report absence")
	}
	if f.engine.IsSnapshotFresh(testAsset, time.Hour) {
		t.Error("IsSnapshotFresh should be false with no snapshot")
	}
}

func TestEngineUpdatePrices(t *testing.T) {
	f := newEngineFixture(t, defaultThresholds())
	now := f.clock.Now()

	f.provider.set("src-a", 300000000000, now) // $3000
	f.provider.set("src-b", 305000000000, now) // $3050

	snap, err := f.engine.UpdatePrices(context.Background(), testAsset)
	if err != nil {
		t.Fatalf("UpdatePrices: %v", err)
	}

	if snap.PriceA.String() != "3000" || snap.PriceB.String() != "3050" {
		t.Errorf("snapshot prices = %s / %s", snap.PriceA, snap.PriceB)
	}
	if snap.SpreadBasisPoints != 166 {
		t.Errorf("SpreadBasisPoints = %d, want 166", snap.SpreadBasisPoints)
	}
	if snap.HigherSide != pricingDomain.SideB {
		t.Errorf("HigherSide = %s, want B", snap.HigherSide)
	}

	opp, ok := f.engine.CurrentOpportunity(testAsset)
	if !ok {
		t.Fatal("opportunity should exist after update")
	}
	if !opp.IsProfitable {
		t.Error("opportunity should be profitable: $50 gross, $10 cost, 166 >= 50 bps")
	}
	if opp.Direction != domain.DirectionAToB {
		t.Errorf("Direction = %s, want %s", opp.Direction, domain.DirectionAToB)
	}
	if got := opp.EstimatedProfit.String(); got != "40" {
		t.Errorf("EstimatedProfit = %s, want 40", got)
	}

	profitable, bps := f.engine.IsCurrentlyProfitable(testAsset)
	if !profitable || bps != 166 {
		t.Errorf("IsCurrentlyProfitable = %v, %d; want true, 166", profitable, bps)
	}

	if len(f.notifier.snapshots) != 1 {
		t.Errorf("PriceUpdated notifications = %d, want 1", len(f.notifier.snapshots))
	}
	if len(f.notifier.opportunities) != 1 {
		t.Errorf("OpportunityDetected notifications = %d, want 1", len(f.notifier.opportunities))
	}
}

func TestEngineUnprofitableUpdateSkipsOpportunityNotification(t *testing.T) {
	f := newEngineFixture(t, defaultThresholds())
	now := f.clock.Now()

	f.provider.set("src-a", 300000000000, now)
	f.provider.set("src-b", 300200000000, now) // 6 bps, below the 50 bps floor

	if _, err := f.engine.UpdatePrices(context.Background(), testAsset); err != nil {
		t.Fatalf("UpdatePrices: %v", err)
	}

	if len(f.notifier.snapshots) != 1 {
		t.Errorf("PriceUpdated notifications = %d, want 1", len(f.notifier.snapshots))
	}
	if len(f.notifier.opportunities) != 0 {
		t.Errorf("OpportunityDetected notifications = %d, want 0", len(f.notifier.opportunities))
	}
}

func TestEngineFailedUpdateKeepsPriorSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(f *engineFixture)
		wantCode apperror.Code
	}{
		{
			name: "zero_price_rejected",
			mutate: func(f *engineFixture) {
				f.provider.set("src-a", 0, f.clock.Now())
			},
			wantCode: apperror.CodeInvalidPrice,
		},
		{
			name: "stale_reading_rejected",
			mutate: func(f *engineFixture) {
				f.provider.set("src-a", 299000000000, f.clock.Now().Add(-2*time.Minute))
			},
			wantCode: apperror.CodeStaleData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, defaultThresholds())
			now := f.clock.Now()

			f.provider.set("src-a", 300000000000, now)
			f.provider.set("src-b", 305000000000, now)
			if _, err := f.engine.UpdatePrices(context.Background(), testAsset); err != nil {
				t.Fatalf("seed update: %v", err)
			}

			tt.mutate(f)

			_, err := f.engine.UpdatePrices(context.Background(), testAsset)
			if got := apperror.GetCode(err); got != tt.wantCode {
				t.Fatalf("error code = %s, want %s", got, tt.wantCode)
			}

			// failed round must not disturb published state
			snap, ok := f.engine.GetSnapshot(testAsset)
			if !ok {
				t.Fatal("prior snapshot should survive the failed update")
			}
			if snap.PriceA.String() != "3000" || snap.PriceB.String() != "3050" {
				t.Errorf("snapshot changed: %s / %s", snap.PriceA, snap.PriceB)
			}
			if len(f.notifier.snapshots) != 1 {
				t.Errorf("PriceUpdated notifications = %d, want 1", len(f.notifier.snapshots))
			}
		})
	}
}

func TestEngineSnapshotFreshness(t *testing.T) {
	f := newEngineFixture(t, defaultThresholds())
	now := f.clock.Now()

	f.provider.set("src-a", 300000000000, now)
	f.provider.set("src-b", 305000000000, now)
	if _, err := f.engine.UpdatePrices(context.Background(), testAsset); err != nil {
		t.Fatalf("UpdatePrices: %v", err)
	}

	if !f.engine.IsSnapshotFresh(testAsset, 30*time.Second) {
		t.Error("snapshot should be fresh immediately after update")
	}

	f.clock.Advance(30 * time.Second)
	if !f.engine.IsSnapshotFresh(testAsset, 30*time.Second) {
		t.Error("snapshot exactly at maxAge should still be fresh")
	}

	f.clock.Advance(time.Second)
	if f.engine.IsSnapshotFresh(testAsset, 30*time.Second) {
		t.Error("snapshot older than maxAge should not be fresh")
	}
}

func TestEngineThresholdChangeVisibleWithoutNewUpdate(t *testing.T) {
	f := newEngineFixture(t, defaultThresholds())
	now := f.clock.Now()

	// 6 bps round, unprofitable under the 50 bps default
	f.provider.set("src-a", 300000000000, now)
	f.provider.set("src-b", 300200000000, now)
	if _, err := f.engine.UpdatePrices(context.Background(), testAsset); err != nil {
		t.Fatalf("UpdatePrices: %v", err)
	}

	if opp, _ := f.engine.CurrentOpportunity(testAsset); opp.IsProfitable {
		t.Fatal("6 bps should not be profitable under the 50 bps default")
	}

	// lowering the bar must flip the verdict on the very next query
	f.engine.SetThresholds(testAsset, domain.Thresholds{
		MinProfitBps: 5,
		CostRate:     fixedpoint.Zero(),
		Effort:       1,
	})

	opp, ok := f.engine.CurrentOpportunity(testAsset)
	if !ok {
		t.Fatal("opportunity should exist")
	}
	if !opp.IsProfitable {
		t.Error("opportunity should be profitable under the lowered thresholds")
	}
	if profitable, bps := f.engine.IsCurrentlyProfitable(testAsset); !profitable || bps != 6 {
		t.Errorf("IsCurrentlyProfitable = %v, %d; want true, 6", profitable, bps)
	}

	// raising the cost above the gross reverses it again
	f.engine.SetThresholds(testAsset, domain.Thresholds{
		MinProfitBps: 5,
		CostRate:     fixedpoint.MustFromString("500"),
		Effort:       1,
	})
	if opp, _ := f.engine.CurrentOpportunity(testAsset); opp.IsProfitable {
		t.Error("cost above the gross difference should not be profitable")
	}

	// threshold changes alone emit no notifications
	if len(f.notifier.snapshots) != 1 || len(f.notifier.opportunities) != 0 {
		t.Errorf("notifications = %d updates, %d opportunities; want 1, 0",
			len(f.notifier.snapshots), len(f.notifier.opportunities))
	}
}

func TestEnginePerAssetThresholds(t *testing.T) {
	f := newEngineFixture(t, defaultThresholds())
	now := f.clock.Now()

	// 6 bps spread fails the 50 bps default but passes a 5 bps override
	f.provider.set("src-a", 300000000000, now)
	f.provider.set("src-b", 300200000000, now)

	f.engine.SetThresholds(testAsset, domain.Thresholds{
		MinProfitBps: 5,
		CostRate:     fixedpoint.Zero(),
		Effort:       1,
	})

	if _, err := f.engine.UpdatePrices(context.Background(), testAsset); err != nil {
		t.Fatalf("UpdatePrices: %v", err)
	}

	profitable, bps := f.engine.IsCurrentlyProfitable(testAsset)
	if !profitable || bps != 6 {
		t.Errorf("IsCurrentlyProfitable = %v, %d; want true, 6", profitable, bps)
	}
}
