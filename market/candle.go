package market

import (
	"math"
	"time"
)

// Candle represents OHLC (Open, High, Low, Close) candlestick data for one
// timeframe bucket. Index is the candle's position within its series.
type Candle struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	Time  time.Time
	Index int
}

// NewCandle opens a candle with all four prices equal to price.
func NewCandle(price float64, t time.Time, index int) Candle {
	return Candle{
		Open:  price,
		High:  price,
		Low:   price,
		Close: price,
		Time:  t,
		Index: index,
	}
}

// Update applies a tick to the candle. Open never changes.
func (c *Candle) Update(price float64) {
	c.High = math.Max(c.High, price)
	c.Low = math.Min(c.Low, price)
	c.Close = price
}

// Timestamp returns the candle open time as seconds since the epoch.
func (c Candle) Timestamp() float64 {
	return float64(c.Time.UnixNano()) / float64(time.Second)
}

// Bullish reports whether the candle closed at or above its open.
func (c Candle) Bullish() bool {
	return c.Close >= c.Open
}

// Valid reports whether low <= open,close <= high.
func (c Candle) Valid() bool {
	return c.Low <= math.Min(c.Open, c.Close) && math.Max(c.Open, c.Close) <= c.High
}

// ValidPrice reports whether p can be fed into a candle.
func ValidPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0)
}
