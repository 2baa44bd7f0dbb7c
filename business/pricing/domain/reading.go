// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/nmoretto/oraclewatch/internal/apperror"
	"github.com/nmoretto/oraclewatch/internal/fixedpoint"
)

// Asset identifies the priced asset, e.g. "ETH-USD".
type Asset string

// SourceID identifies an oracle source, e.g. "chainlink-eth-usd".
type SourceID string

// RawReading is a price observation exactly as the source reported it:
// an integer answer at the source's native precision plus the time the
// source last updated it.
type RawReading struct {
	Answer    *big.Int
	Decimals  uint8
	UpdatedAt time.Time
}

// SourceConfig describes one oracle source for one asset.
type SourceConfig struct {
	Source       SourceID
	Asset        Asset
	Provider     string // chainlink, feed, rest
	Ref          string // aggregator address or upstream symbol
	MaxStaleness time.Duration
	Active       bool
}

// ValidateReading checks a raw reading against its source config and
// converts it to a canonical price. Checks run in a fixed order so the
// reported failure is deterministic: active flag, then price sign, then
// staleness.
func ValidateReading(raw RawReading, cfg SourceConfig, now time.Time) (fixedpoint.Price, error) {
	if !cfg.Active {
		return fixedpoint.Price{}, apperror.New(apperror.CodeOracleInactive,
			apperror.WithContext(fmt.Sprintf("source %s asset %s", cfg.Source, cfg.Asset)))
	}

	if raw.Answer == nil || raw.Answer.Sign() <= 0 {
		return fixedpoint.Price{}, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContext(fmt.Sprintf("source %s answer %v", cfg.Source, raw.Answer)))
	}

	// A reading exactly at the staleness bound is still acceptable.
	if age := now.Sub(raw.UpdatedAt); age > cfg.MaxStaleness {
		return fixedpoint.Price{}, apperror.New(apperror.CodeStaleData,
			apperror.WithContext(fmt.Sprintf("source %s age %s exceeds %s", cfg.Source, age, cfg.MaxStaleness)))
	}

	return fixedpoint.FromRaw(raw.Answer, raw.Decimals)
}
