// Package domain contains the core domain types for the arbitrage context.
package domain

// Direction represents the arbitrage trade direction between the two
// configured sources.
type Direction string

const (
	// DirectionAToB means buy at source A's price, sell at source B's.
	DirectionAToB Direction = "A_TO_B"

	// DirectionBToA means buy at source B's price, sell at source A's.
	DirectionBToA Direction = "B_TO_A"
)

// String returns a human-readable description of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionAToB:
		return "A → B (Buy at source A, Sell at source B)"
	case DirectionBToA:
		return "B → A (Buy at source B, Sell at source A)"
	default:
		return "Unknown"
	}
}
