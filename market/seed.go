package market

import (
	"math/rand"
	"time"
)

// SeedOptions controls synthetic history generation.
type SeedOptions struct {
	Count      int     // number of candles
	StartPrice float64 // open of the first candle
	SubSteps   int     // random moves per candle
	MaxMove    float64 // each move is uniform in [-MaxMove, MaxMove)
}

// SyntheticHistory generates count finalized candles of timeframe tf that end
// right before the bucket containing now. Each candle is built from SubSteps
// random moves starting at the previous close.
func SyntheticHistory(rng *rand.Rand, tf Timeframe, now time.Time, opts SeedOptions) []Candle {
	if opts.Count <= 0 {
		return nil
	}
	if opts.SubSteps <= 0 {
		opts.SubSteps = 10
	}
	if opts.MaxMove <= 0 {
		opts.MaxMove = 1
	}

	end := tf.Bucket(now)
	price := opts.StartPrice
	candles := make([]Candle, 0, opts.Count)

	for i := 0; i < opts.Count; i++ {
		ts := end.Add(-time.Duration(opts.Count-i) * tf.Period)
		c := NewCandle(price, ts, i)
		for j := 0; j < opts.SubSteps; j++ {
			price += (rng.Float64()*2 - 1) * opts.MaxMove
			c.Update(price)
		}
		candles = append(candles, c)
	}
	return candles
}
