// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nmoretto/oraclewatch/business/arbitrage/app"
	"github.com/nmoretto/oraclewatch/business/arbitrage/domain"
)

var _ app.Notifier = (*ConsoleNotifier)(nil)

// ConsoleNotifier writes engine events to a plain text stream.
type ConsoleNotifier struct {
	out        io.Writer
	logUpdates bool
}

// NewConsoleNotifier creates a notifier writing to stdout. When logUpdates
// is false only opportunities are printed, not every price round.
func NewConsoleNotifier(logUpdates bool) *ConsoleNotifier {
	return &ConsoleNotifier{out: os.Stdout, logUpdates: logUpdates}
}

// Start prints the banner.
func (n *ConsoleNotifier) Start(_ context.Context) error {
	fmt.Fprintln(n.out, "Oracle Watch Started")
	fmt.Fprintln(n.out, "====================")
	return nil
}

// OpportunityDetected prints a profitable opportunity.
func (n *ConsoleNotifier) OpportunityDetected(opp *domain.Opportunity) {
	fmt.Fprintln(n.out, "")
	fmt.Fprintln(n.out, "================================================================================")
	fmt.Fprintln(n.out, "ARBITRAGE OPPORTUNITY DETECTED")
	fmt.Fprintln(n.out, "================================================================================")
	fmt.Fprintf(n.out, "Timestamp:      %s\n", opp.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(n.out, "Asset:          %s\n", opp.Asset)
	fmt.Fprintf(n.out, "Direction:      %s\n", opp.Direction.String())
	fmt.Fprintf(n.out, "Spread:         %d bps\n", opp.SpreadBasisPoints)
	fmt.Fprintf(n.out, "Est. Profit:    $%s\n", opp.EstimatedProfit.String())
	fmt.Fprintf(n.out, "Exec. Cost:     $%s\n", opp.ExecutionCost.String())
	fmt.Fprintln(n.out, "================================================================================")
}

// PriceUpdated prints a one-line summary of the round when enabled.
func (n *ConsoleNotifier) PriceUpdated(snap *domain.PriceSnapshot) {
	if !n.logUpdates {
		return
	}
	fmt.Fprintf(n.out, "[%s] %s  A=$%s  B=$%s  spread=%d bps (higher: %s)\n",
		snap.ObservedAt.Format("15:04:05"),
		snap.Asset,
		snap.PriceA.String(),
		snap.PriceB.String(),
		snap.SpreadBasisPoints,
		snap.HigherSide,
	)
}

// Stop prints the shutdown line.
func (n *ConsoleNotifier) Stop() error {
	fmt.Fprintln(n.out, "")
	fmt.Fprintln(n.out, "Oracle Watch Stopped")
	return nil
}
