// Package calculator computes leveraged position figures.
package calculator

// Position is the result of ComputePosition.
type Position struct {
	Size             float64
	LiquidationPrice float64
}

// ComputePosition returns size = balance * leverage and the liquidation price
// entry - entry/leverage. A zero leverage yields a liquidation price of 0.
// Inputs are not range checked.
func ComputePosition(entryPrice, leverage, balance float64) Position {
	pos := Position{Size: balance * leverage}
	if leverage != 0 {
		pos.LiquidationPrice = entryPrice - entryPrice*(1/leverage)
	}

	return pos
}
