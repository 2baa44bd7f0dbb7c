// Package fixedpoint provides an immutable fixed-point price value object.
// All prices share one canonical scale of 18 fractional decimals so that
// readings from sources with different native precisions compare directly.
package fixedpoint

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/nmoretto/oraclewatch/internal/apperror"
)

// CanonicalDecimals is the fixed fractional precision every Price carries.
const CanonicalDecimals uint8 = 18

// maxValue bounds the scaled integer at 2^256 - 1, the widest value an
// on-chain aggregator can report. Results beyond it are overflow.
var maxValue = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

var oneScaled = new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(CanonicalDecimals)), nil)

// Price is an immutable value object: a non-negative integer scaled by
// 10^18. The zero value is a valid zero price.
type Price struct {
	raw *big.Int
}

// Zero returns the zero price.
func Zero() Price {
	return Price{raw: big.NewInt(0)}
}

// FromScaled creates a Price from a value already at canonical scale.
func FromScaled(scaled *big.Int) (Price, error) {
	if scaled == nil {
		return Price{}, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("nil scaled value"))
	}
	if scaled.Sign() < 0 {
		return Price{}, apperror.New(apperror.CodeInvalidPrice, apperror.WithContext("negative value"))
	}
	if scaled.Cmp(maxValue) > 0 {
		return Price{}, apperror.New(apperror.CodeArithmeticOverflow, apperror.WithContext("value exceeds 2^256-1"))
	}
	return Price{raw: new(big.Int).Set(scaled)}, nil
}

// FromRaw converts a raw source value with its native decimal count into a
// canonical Price. Conversion only ever upscales: sources with more than 18
// decimals are rejected rather than silently rounded.
func FromRaw(value *big.Int, sourceDecimals uint8) (Price, error) {
	if value == nil {
		return Price{}, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("nil raw value"))
	}
	if value.Sign() < 0 {
		return Price{}, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContext(fmt.Sprintf("negative raw value %s", value)))
	}
	if sourceDecimals > CanonicalDecimals {
		return Price{}, apperror.New(apperror.CodePrecisionLoss,
			apperror.WithContext(fmt.Sprintf("source has %d decimals, canonical is %d", sourceDecimals, CanonicalDecimals)))
	}

	shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(CanonicalDecimals-sourceDecimals)), nil)
	scaled := new(big.Int).Mul(value, shift)
	if scaled.Cmp(maxValue) > 0 {
		return Price{}, apperror.New(apperror.CodeArithmeticOverflow,
			apperror.WithContext("upscaled value exceeds 2^256-1"))
	}
	return Price{raw: scaled}, nil
}

// MustFromString parses a human-readable decimal string into a Price.
// Intended for fixtures and config defaults; panics on malformed input.
func MustFromString(s string) Price {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("fixedpoint: parse %q: %v", s, err))
	}
	scaled := d.Shift(int32(CanonicalDecimals))
	if !scaled.IsInteger() {
		panic(fmt.Sprintf("fixedpoint: %q has more than %d decimals", s, CanonicalDecimals))
	}
	p, err := FromScaled(scaled.BigInt())
	if err != nil {
		panic(fmt.Sprintf("fixedpoint: %q: %v", s, err))
	}
	return p
}

// Raw returns a copy of the canonically scaled integer.
func (p Price) Raw() *big.Int {
	if p.raw == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.raw)
}

// IsZero reports whether the price is zero.
func (p Price) IsZero() bool {
	return p.raw == nil || p.raw.Sign() == 0
}

// Sign returns 0 for zero and 1 for positive prices.
func (p Price) Sign() int {
	if p.raw == nil {
		return 0
	}
	return p.raw.Sign()
}

// Cmp compares two prices: -1 if p < q, 0 if equal, 1 if p > q.
func (p Price) Cmp(q Price) int {
	return p.Raw().Cmp(q.Raw())
}

// Add returns p + q, failing with ArithmeticOverflow beyond the bound.
func (p Price) Add(q Price) (Price, error) {
	sum := new(big.Int).Add(p.Raw(), q.Raw())
	if sum.Cmp(maxValue) > 0 {
		return Price{}, apperror.New(apperror.CodeArithmeticOverflow, apperror.WithContext("add"))
	}
	return Price{raw: sum}, nil
}

// Sub returns p - q, failing if the result would be negative.
func (p Price) Sub(q Price) (Price, error) {
	if p.Cmp(q) < 0 {
		return Price{}, apperror.New(apperror.CodeArithmeticOverflow,
			apperror.WithContext("subtraction would be negative"))
	}
	return Price{raw: new(big.Int).Sub(p.Raw(), q.Raw())}, nil
}

// MulUint64 returns p * k, failing with ArithmeticOverflow beyond the bound.
func (p Price) MulUint64(k uint64) (Price, error) {
	prod := new(big.Int).Mul(p.Raw(), new(big.Int).SetUint64(k))
	if prod.Cmp(maxValue) > 0 {
		return Price{}, apperror.New(apperror.CodeArithmeticOverflow, apperror.WithContext("mul"))
	}
	return Price{raw: prod}, nil
}

// AbsDiff returns |p - q|.
func (p Price) AbsDiff(q Price) Price {
	diff := new(big.Int).Sub(p.Raw(), q.Raw())
	return Price{raw: diff.Abs(diff)}
}

// MulPrice multiplies two canonical prices, rescaling the product back to
// canonical precision (truncating).
func (p Price) MulPrice(q Price) (Price, error) {
	prod := new(big.Int).Mul(p.Raw(), q.Raw())
	prod.Quo(prod, oneScaled)
	if prod.Cmp(maxValue) > 0 {
		return Price{}, apperror.New(apperror.CodeArithmeticOverflow, apperror.WithContext("mul price"))
	}
	return Price{raw: prod}, nil
}

// ToDecimal converts to a shopspring decimal for display at boundaries.
// Core arithmetic stays on the scaled integers.
func (p Price) ToDecimal() decimal.Decimal {
	return decimal.NewFromBigInt(p.Raw(), -int32(CanonicalDecimals))
}

// String renders the price as a plain decimal string.
func (p Price) String() string {
	return p.ToDecimal().String()
}

// Equal reports value equality.
func (p Price) Equal(q Price) bool {
	return p.Cmp(q) == 0
}
