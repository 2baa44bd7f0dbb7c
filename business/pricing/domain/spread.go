package domain

import (
	"math/big"

	"github.com/nmoretto/oraclewatch/internal/apperror"
	"github.com/nmoretto/oraclewatch/internal/fixedpoint"
)

// Side identifies which source reported the higher price.
type Side string

const (
	SideA     Side = "A"
	SideB     Side = "B"
	SideEqual Side = "EQUAL"
)

// SpreadResult is the relative divergence between two source prices.
type SpreadResult struct {
	BasisPoints uint64
	HigherSide  Side
}

var bpsScale = big.NewInt(10000)

// Compare computes the spread between the two sources' canonical prices.
// The divergence is measured relative to the LOWER price, the baseline an
// arbitrage would buy at, so the figure is the percentage gain on the
// acquisition cost. Division truncates, so the reported basis points are a
// lower bound of the true percentage.
func Compare(priceA, priceB fixedpoint.Price) (SpreadResult, error) {
	cmp := priceA.Cmp(priceB)
	if cmp == 0 {
		return SpreadResult{BasisPoints: 0, HigherSide: SideEqual}, nil
	}

	lower, higher := priceA, priceB
	side := SideB
	if cmp > 0 {
		lower, higher = priceB, priceA
		side = SideA
	}

	if lower.IsZero() {
		return SpreadResult{}, apperror.New(apperror.CodeDivisionByZero,
			apperror.WithContext("lower price is zero"))
	}

	diff := higher.AbsDiff(lower)
	bps := new(big.Int).Mul(diff.Raw(), bpsScale)
	bps.Quo(bps, lower.Raw())

	if !bps.IsUint64() {
		return SpreadResult{}, apperror.New(apperror.CodeArithmeticOverflow,
			apperror.WithContext("spread exceeds uint64 basis points"))
	}

	return SpreadResult{BasisPoints: bps.Uint64(), HigherSide: side}, nil
}
