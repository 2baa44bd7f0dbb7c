package app

import (
	"github.com/nmoretto/oraclewatch/business/arbitrage/domain"
	pricingDomain "github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/fixedpoint"
)

// Estimate evaluates one divergence against the thresholds. The execution
// cost is costRate * effort; gross profit is the absolute price difference.
// Net profit is clamped at zero so an unprofitable divergence reports a
// zero profit rather than a negative one.
//
// An opportunity is profitable only when net profit is strictly positive
// AND the spread meets the minimum basis points. Equal prices are never
// profitable regardless of thresholds.
func Estimate(
	spread pricingDomain.SpreadResult,
	priceA, priceB fixedpoint.Price,
	thresholds domain.Thresholds,
) (domain.Opportunity, error) {
	cost, err := thresholds.CostRate.MulUint64(thresholds.Effort)
	if err != nil {
		return domain.Opportunity{}, err
	}

	gross := priceA.AbsDiff(priceB)

	profit := fixedpoint.Zero()
	if gross.Cmp(cost) > 0 {
		profit, err = gross.Sub(cost)
		if err != nil {
			return domain.Opportunity{}, err
		}
	}

	var direction domain.Direction
	profitable := false
	switch spread.HigherSide {
	case pricingDomain.SideA:
		// A overpriced: buy at B, sell at A
		direction = domain.DirectionBToA
		profitable = profit.Sign() > 0 && spread.BasisPoints >= thresholds.MinProfitBps
	case pricingDomain.SideB:
		direction = domain.DirectionAToB
		profitable = profit.Sign() > 0 && spread.BasisPoints >= thresholds.MinProfitBps
	case pricingDomain.SideEqual:
		// no divergence, nothing to arbitrage
	}

	return domain.Opportunity{
		SpreadBasisPoints: spread.BasisPoints,
		EstimatedProfit:   profit,
		ExecutionCost:     cost,
		IsProfitable:      profitable,
		Direction:         direction,
	}, nil
}
