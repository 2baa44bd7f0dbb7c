// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"time"

	"github.com/nmoretto/oraclewatch/business/arbitrage/domain"
)

// Notifier receives engine events for delivery to operators.
type Notifier interface {
	// Start initializes the notifier.
	Start(ctx context.Context) error

	// OpportunityDetected reports a profitable opportunity.
	OpportunityDetected(opp *domain.Opportunity)

	// PriceUpdated reports a successful snapshot replacement.
	PriceUpdated(snapshot *domain.PriceSnapshot)

	// Stop gracefully shuts down the notifier.
	Stop() error
}

// Clock abstracts wall-clock time so staleness logic is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
