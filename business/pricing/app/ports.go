// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/nmoretto/oraclewatch/business/pricing/domain"
)

// ReadingProvider fetches the latest raw reading for a configured source.
// Implementations exist per source kind (on-chain aggregator, push feed,
// REST API).
type ReadingProvider interface {
	GetLatest(ctx context.Context, cfg domain.SourceConfig) (domain.RawReading, error)
}

// ConfigStore resolves the source configuration for a source/asset pair.
type ConfigStore interface {
	Get(source domain.SourceID, asset domain.Asset) (domain.SourceConfig, bool)
}
