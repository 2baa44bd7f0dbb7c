package app

import (
	"math/big"
	"testing"

	"github.com/nmoretto/oraclewatch/business/arbitrage/domain"
	pricingDomain "github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/fixedpoint"
)

// price8 converts a raw 8-decimal integer into a canonical price.
func price8(t *testing.T, raw int64) fixedpoint.Price {
	t.Helper()
	p, err := fixedpoint.FromRaw(big.NewInt(raw), 8)
	if err != nil {
		t.Fatalf("FromRaw(%d): %v", raw, err)
	}
	return p
}

func mustCompare(t *testing.T, a, b fixedpoint.Price) pricingDomain.SpreadResult {
	t.Helper()
	spread, err := pricingDomain.Compare(a, b)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	return spread
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name           string
		rawA           int64 // 8 source decimals
		rawB           int64
		costRate       string
		effort         uint64
		minBps         uint64
		wantBps        uint64
		wantProfit     string
		wantCost       string
		wantDirection  domain.Direction
		wantProfitable bool
	}{
		{
			name:           "b_higher_meets_threshold",
			rawA:           300000000000, // $3000
			rawB:           305000000000, // $3050
			costRate:       "10",
			effort:         1,
			minBps:         50,
			wantBps:        166, // 50/3000*10000 truncated
			wantProfit:     "40",
			wantCost:       "10",
			wantDirection:  domain.DirectionAToB,
			wantProfitable: true,
		},
		{
			name:           "zero_cost_full_gross_profit",
			rawA:           300000000000,
			rawB:           310000000000, // $3100
			costRate:       "0",
			effort:         1,
			minBps:         50,
			wantBps:        333,
			wantProfit:     "100",
			wantCost:       "0",
			wantDirection:  domain.DirectionAToB,
			wantProfitable: true,
		},
		{
			name:           "cost_exceeds_gross_clamps_to_zero",
			rawA:           300000000000,
			rawB:           310000000000,
			costRate:       "150",
			effort:         1,
			minBps:         50,
			wantBps:        333,
			wantProfit:     "0",
			wantCost:       "150",
			wantDirection:  domain.DirectionAToB,
			wantProfitable: false,
		},
		{
			name:           "equal_prices_never_profitable",
			rawA:           300000000000,
			rawB:           300000000000,
			costRate:       "0",
			effort:         1,
			minBps:         0,
			wantBps:        0,
			wantProfit:     "0",
			wantCost:       "0",
			wantDirection:  "",
			wantProfitable: false,
		},
		{
			name:           "a_higher_reverses_direction",
			rawA:           305000000000,
			rawB:           300000000000,
			costRate:       "10",
			effort:         1,
			minBps:         50,
			wantBps:        166,
			wantProfit:     "40",
			wantCost:       "10",
			wantDirection:  domain.DirectionBToA,
			wantProfitable: true,
		},
		{
			name:           "profitable_but_below_min_bps",
			rawA:           300000000000,
			rawB:           300200000000, // $3002, spread 6 bps
			costRate:       "0",
			effort:         1,
			minBps:         50,
			wantBps:        6,
			wantProfit:     "2",
			wantCost:       "0",
			wantDirection:  domain.DirectionAToB,
			wantProfitable: false,
		},
		{
			name:           "cost_scales_with_effort",
			rawA:           300000000000,
			rawB:           305000000000,
			costRate:       "10",
			effort:         4,
			minBps:         50,
			wantBps:        166,
			wantProfit:     "10", // 50 - 40
			wantCost:       "40",
			wantDirection:  domain.DirectionAToB,
			wantProfitable: true,
		},
		{
			name:           "gross_equals_cost_not_profitable",
			rawA:           300000000000,
			rawB:           305000000000,
			costRate:       "50",
			effort:         1,
			minBps:         50,
			wantBps:        166,
			wantProfit:     "0",
			wantCost:       "50",
			wantDirection:  domain.DirectionAToB,
			wantProfitable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priceA := price8(t, tt.rawA)
			priceB := price8(t, tt.rawB)
			spread := mustCompare(t, priceA, priceB)

			thresholds := domain.Thresholds{
				MinProfitBps: tt.minBps,
				CostRate:     fixedpoint.MustFromString(tt.costRate),
				Effort:       tt.effort,
			}

			opp, err := Estimate(spread, priceA, priceB, thresholds)
			if err != nil {
				t.Fatalf("Estimate: %v", err)
			}

			if opp.SpreadBasisPoints != tt.wantBps {
				t.Errorf("SpreadBasisPoints = %d, want %d", opp.SpreadBasisPoints, tt.wantBps)
			}
			if got := opp.EstimatedProfit.String(); got != tt.wantProfit {
				t.Errorf("EstimatedProfit = %s, want %s", got, tt.wantProfit)
			}
			if got := opp.ExecutionCost.String(); got != tt.wantCost {
				t.Errorf("ExecutionCost = %s, want %s", got, tt.wantCost)
			}
			if opp.Direction != tt.wantDirection {
				t.Errorf("Direction = %s, want %s", opp.Direction, tt.wantDirection)
			}
			if opp.IsProfitable != tt.wantProfitable {
				t.Errorf("IsProfitable = %v, want %v", opp.IsProfitable, tt.wantProfitable)
			}
		})
	}
}

func TestEstimateCostOverflow(t *testing.T) {
	huge := fixedpoint.MustFromString("1e58")
	spread := mustCompare(t, price8(t, 300000000000), price8(t, 305000000000))

	_, err := Estimate(spread, price8(t, 300000000000), price8(t, 305000000000), domain.Thresholds{
		MinProfitBps: 0,
		CostRate:     huge,
		Effort:       1 << 60,
	})
	if err == nil {
		t.Fatal("expected overflow error for enormous cost")
	}
}
