package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePosition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name            string
		entry           float64
		leverage        float64
		balance         float64
		wantSize        float64
		wantLiquidation float64
	}{
		{name: "classic long", entry: 20000, leverage: 10, balance: 100, wantSize: 1000, wantLiquidation: 18000},
		{name: "no leverage", entry: 100, leverage: 1, balance: 50, wantSize: 50, wantLiquidation: 0},
		{name: "fractional leverage", entry: 100, leverage: 0.5, balance: 10, wantSize: 5, wantLiquidation: -100},
		{name: "zero leverage", entry: 20000, leverage: 0, balance: 100, wantSize: 0, wantLiquidation: 0},
		{name: "negative leverage", entry: 100, leverage: -2, balance: 10, wantSize: -20, wantLiquidation: 150},
		{name: "zero balance", entry: 30000, leverage: 5, balance: 0, wantSize: 0, wantLiquidation: 24000},
		{name: "negative entry", entry: -100, leverage: 4, balance: 1, wantSize: 4, wantLiquidation: -75},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ComputePosition(tc.entry, tc.leverage, tc.balance)
			assert.InDelta(t, tc.wantSize, got.Size, 1e-9)
			assert.InDelta(t, tc.wantLiquidation, got.LiquidationPrice, 1e-9)
		})
	}
}

func TestComputePositionMatchesFormula(t *testing.T) {
	t.Parallel()

	for _, leverage := range []float64{-10, -1, 0.25, 1, 2, 3, 7, 125} {
		for _, entry := range []float64{0.5, 1, 42, 20000} {
			got := ComputePosition(entry, leverage, 100)
			assert.InDelta(t, entry-entry/leverage, got.LiquidationPrice, 1e-6)
			assert.InDelta(t, 100*leverage, got.Size, 1e-9)
		}
	}
}
