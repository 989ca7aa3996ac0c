// Package indicators provides streaming overlays computed from candle closes.
package indicators

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/tickchart/market"
)

// Indicator computes a single streaming value from candles.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next candle.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current value, or 0 before warmup completes.
	Value() float64
}

// New builds an indicator by kind ("sma" or "ema").
func New(kind string, period int) (Indicator, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	switch strings.ToLower(kind) {
	case "sma", "ma":
		return NewMA(period), nil
	case "ema":
		return NewEMA(period), nil
	default:
		return nil, fmt.Errorf("unknown indicator: %q", kind)
	}
}

// Trace resets ind, feeds it every candle in order and returns the value
// after each ready candle keyed by candle index.
func Trace(ind Indicator, candles ...[]market.Candle) map[int]float64 {
	ind.Reset()
	out := make(map[int]float64)
	for _, set := range candles {
		for _, c := range set {
			ind.Update(c)
			if ind.Ready() {
				out[c.Index] = ind.Value()
			}
		}
	}
	return out
}

// Last computes the batch value of an indicator kind over candles.
func Last(kind string, candles []market.Candle, period int) (float64, error) {
	switch strings.ToLower(kind) {
	case "sma", "ma":
		return MA(candles, period)
	case "ema":
		return EMA(candles, period)
	default:
		return 0, fmt.Errorf("unknown indicator: %q", kind)
	}
}
