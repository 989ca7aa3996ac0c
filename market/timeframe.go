package market

import (
	"fmt"
	"time"
)

// Timeframe is the bucket duration of a candle series.
type Timeframe struct {
	Name   string
	Period time.Duration
}

var (
	M1  = Timeframe{Name: "1m", Period: time.Minute}
	M5  = Timeframe{Name: "5m", Period: 5 * time.Minute}
	M15 = Timeframe{Name: "15m", Period: 15 * time.Minute}
	H1  = Timeframe{Name: "1h", Period: time.Hour}
)

var timeframes = map[string]Timeframe{
	M1.Name:  M1,
	M5.Name:  M5,
	M15.Name: M15,
	H1.Name:  H1,
}

// LookupTimeframe returns a known timeframe by name.
func LookupTimeframe(name string) (Timeframe, error) {
	tf, ok := timeframes[name]
	if !ok {
		return Timeframe{}, fmt.Errorf("unsupported timeframe: %s", name)
	}
	return tf, nil
}

// ParseTimeframe builds a timeframe from a name and a period such as "5m".
// An empty period falls back to the known timeframe of the same name.
func ParseTimeframe(name, period string) (Timeframe, error) {
	if period == "" {
		return LookupTimeframe(name)
	}
	d, err := time.ParseDuration(period)
	if err != nil {
		return Timeframe{}, fmt.Errorf("timeframe %s: %w", name, err)
	}
	if d < time.Second || d%time.Second != 0 {
		return Timeframe{}, fmt.Errorf("timeframe %s: period must be a whole number of seconds, got %s", name, d)
	}
	return Timeframe{Name: name, Period: d}, nil
}

// Bucket returns the start of the bucket containing t, i.e.
// floor(unix/period)*period, in UTC.
func (tf Timeframe) Bucket(t time.Time) time.Time {
	p := int64(tf.Period / time.Second)
	u := t.Unix()
	b := u - u%p
	if u < 0 && u%p != 0 {
		b -= p
	}
	return time.Unix(b, 0).UTC()
}

// Due reports whether a candle opened at openedAt must roll over at now.
func (tf Timeframe) Due(openedAt, now time.Time) bool {
	return now.Sub(openedAt) >= tf.Period
}

func (tf Timeframe) String() string {
	return tf.Name
}
