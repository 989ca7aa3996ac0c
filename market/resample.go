package market

// Resample aggregates candles into bucket-aligned candles of the target
// timeframe. Input must be ordered by time. The first candle of a bucket
// gives the open, the last gives the close, high and low are the extremes.
// Output candles are indexed from zero.
func Resample(candles []Candle, to Timeframe) []Candle {
	if len(candles) == 0 {
		return nil
	}

	out := make([]Candle, 0, len(candles))
	var cur Candle
	open := false

	for _, c := range candles {
		bucket := to.Bucket(c.Time)
		if open && bucket.Equal(cur.Time) {
			if c.High > cur.High {
				cur.High = c.High
			}
			if c.Low < cur.Low {
				cur.Low = c.Low
			}
			cur.Close = c.Close
			continue
		}
		if open {
			out = append(out, cur)
		}
		cur = Candle{
			Open:  c.Open,
			High:  c.High,
			Low:   c.Low,
			Close: c.Close,
			Time:  bucket,
			Index: len(out),
		}
		open = true
	}
	return append(out, cur)
}
