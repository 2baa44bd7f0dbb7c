package domain

import (
	"time"

	pricingDomain "github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/fixedpoint"
)

// Thresholds are the profitability parameters an engine evaluates against.
type Thresholds struct {
	// MinProfitBps is the minimum spread required even when net profit
	// is positive.
	MinProfitBps uint64

	// CostRate is the execution cost per effort unit, in canonical price
	// units.
	CostRate fixedpoint.Price

	// Effort is the number of effort units an execution would take.
	Effort uint64
}

// Opportunity is the outcome of evaluating one price divergence.
type Opportunity struct {
	Asset             pricingDomain.Asset
	SpreadBasisPoints uint64
	EstimatedProfit   fixedpoint.Price
	ExecutionCost     fixedpoint.Price
	IsProfitable      bool
	Direction         Direction
	Timestamp         time.Time
}

// PriceSnapshot is an atomically produced view of both sources' prices
// for one asset. Either every field is from the same successful update
// round or the snapshot does not exist.
type PriceSnapshot struct {
	Asset             pricingDomain.Asset
	PriceA            fixedpoint.Price
	PriceB            fixedpoint.Price
	SpreadBasisPoints uint64
	HigherSide        pricingDomain.Side
	ObservedAt        time.Time
}
