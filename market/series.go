package market

import "time"

// DefaultWindowSize is the number of finalized candles a series keeps.
const DefaultWindowSize = 100

// Series is the rolling candle history of one timeframe together with its
// in-progress candle.
type Series struct {
	Timeframe Timeframe

	window   int
	history  []Candle
	current  Candle
	openedAt time.Time
}

// NewSeries creates a series whose current candle opens at price in the
// bucket containing now.
func NewSeries(tf Timeframe, window int, price float64, now time.Time) *Series {
	if window < 1 {
		window = DefaultWindowSize
	}
	openedAt := tf.Bucket(now)
	return &Series{
		Timeframe: tf,
		window:    window,
		history:   make([]Candle, 0, window),
		current:   NewCandle(price, openedAt, 0),
		openedAt:  openedAt,
	}
}

// History returns the finalized candles, oldest first. The slice is owned
// by the series and must not be modified.
func (s *Series) History() []Candle {
	return s.history
}

// Current returns a copy of the in-progress candle.
func (s *Series) Current() Candle {
	return s.current
}

// OpenedAt returns the bucket-aligned open time of the current candle.
func (s *Series) OpenedAt() time.Time {
	return s.openedAt
}

// Window returns the maximum history length.
func (s *Series) Window() int {
	return s.window
}

// Len returns the number of finalized candles.
func (s *Series) Len() int {
	return len(s.history)
}

// Seed replaces the history with candles (keeping the newest window of them)
// and opens the current candle at price right after the last seeded index.
// A seeded candle that falls in the bucket of now becomes the current candle
// instead of history.
func (s *Series) Seed(candles []Candle, price float64, now time.Time) {
	s.openedAt = s.Timeframe.Bucket(now)

	if n := len(candles); n > 0 && !candles[n-1].Time.Before(s.openedAt) {
		cur := candles[n-1]
		cur.Time = s.openedAt
		cur.Update(price)
		s.current = cur
		candles = candles[:n-1]
	} else {
		next := 0
		if n > 0 {
			next = candles[n-1].Index + 1
		}
		s.current = NewCandle(price, s.openedAt, next)
	}

	if len(candles) > s.window {
		candles = candles[len(candles)-s.window:]
	}
	s.history = append(s.history[:0], candles...)
}

func (s *Series) apply(price float64) {
	s.current.Update(price)
}

// rollIfDue finalizes the current candle when its period has elapsed at now
// and opens a new one at price. It reports whether a rollover happened.
func (s *Series) rollIfDue(now time.Time, price float64) bool {
	if !s.Timeframe.Due(s.openedAt, now) {
		return false
	}

	s.push(s.current)

	s.openedAt = s.Timeframe.Bucket(now)
	s.current = NewCandle(price, s.openedAt, s.current.Index+1)
	return true
}

// push appends c, evicting the oldest candle when the window is full.
func (s *Series) push(c Candle) {
	if len(s.history) >= s.window {
		copy(s.history, s.history[1:])
		s.history = s.history[:len(s.history)-1]
	}
	s.history = append(s.history, c)
}
