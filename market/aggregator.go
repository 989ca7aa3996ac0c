package market

import (
	"errors"
	"fmt"
	"time"
)

// DefaultRateLimit is the minimum spacing between accepted ticks.
const DefaultRateLimit = 100 * time.Millisecond

// ErrInvalidPrice is returned by Update for NaN or infinite prices.
var ErrInvalidPrice = errors.New("invalid price")

// AggregatorOptions configures an Aggregator. Zero values take defaults.
type AggregatorOptions struct {
	Clock      Clock
	Timeframes []Timeframe // fast first; defaults to 1m and 5m
	WindowSize int
	RateLimit  time.Duration
	StartPrice float64
	LastUpdate time.Time // rate limit reference for the first tick; zero means construction time
}

// Result describes what a single Update did.
type Result struct {
	Accepted bool
	Price    float64
	Time     time.Time
	Rolled   []Timeframe
}

// Aggregator turns a stream of price ticks into candle series, one per
// timeframe. Every series sees the same ticks and rolls over on its own
// bucket boundaries.
type Aggregator struct {
	clock      Clock
	rateLimit  time.Duration
	series     []*Series
	price      float64
	lastUpdate time.Time
}

func NewAggregator(opts AggregatorOptions) (*Aggregator, error) {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if len(opts.Timeframes) == 0 {
		opts.Timeframes = []Timeframe{M1, M5}
	}
	if opts.WindowSize == 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.WindowSize < 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", opts.WindowSize)
	}
	if opts.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must not be negative, got %s", opts.RateLimit)
	}
	if !ValidPrice(opts.StartPrice) {
		return nil, fmt.Errorf("start price: %w", ErrInvalidPrice)
	}

	now := opts.Clock.Now()
	last := now
	if !opts.LastUpdate.IsZero() {
		last = opts.LastUpdate
	}
	a := &Aggregator{
		clock:      opts.Clock,
		rateLimit:  opts.RateLimit,
		price:      opts.StartPrice,
		lastUpdate: last,
	}
	seen := make(map[string]bool, len(opts.Timeframes))
	for _, tf := range opts.Timeframes {
		if tf.Period < time.Second {
			return nil, fmt.Errorf("timeframe %s: period must be at least 1s", tf.Name)
		}
		if seen[tf.Name] {
			return nil, fmt.Errorf("duplicate timeframe: %s", tf.Name)
		}
		seen[tf.Name] = true
		a.series = append(a.series, NewSeries(tf, opts.WindowSize, opts.StartPrice, now))
	}
	return a, nil
}

// Update feeds one price tick. Ticks arriving within the rate limit of the
// last accepted tick are dropped. The clock is sampled once so every series
// sees the same instant.
func (a *Aggregator) Update(price float64) (Result, error) {
	if !ValidPrice(price) {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}

	now := a.clock.Now()
	if now.Sub(a.lastUpdate) < a.rateLimit {
		return Result{Price: a.price, Time: now}, nil
	}
	a.lastUpdate = now
	a.price = price

	res := Result{Accepted: true, Price: price, Time: now}
	for _, s := range a.series {
		s.apply(price)
	}
	for _, s := range a.series {
		if s.rollIfDue(now, price) {
			res.Rolled = append(res.Rolled, s.Timeframe)
		}
	}
	return res, nil
}

// Seed installs a synthetic history into the first series and derives every
// other series from it by resampling, then opens all current candles at the
// last seeded close.
func (a *Aggregator) Seed(fast []Candle) {
	if len(fast) == 0 {
		return
	}
	now := a.clock.Now()
	a.price = fast[len(fast)-1].Close

	a.series[0].Seed(fast, a.price, now)
	for _, s := range a.series[1:] {
		s.Seed(Resample(fast, s.Timeframe), a.price, now)
	}
}

// Price returns the last accepted price.
func (a *Aggregator) Price() float64 {
	return a.price
}

// LastUpdate returns the time of the last accepted tick.
func (a *Aggregator) LastUpdate() time.Time {
	return a.lastUpdate
}

// Series returns every series, fast first.
func (a *Aggregator) Series() []*Series {
	return a.series
}

// Fast returns the shortest-timeframe series.
func (a *Aggregator) Fast() *Series {
	return a.series[0]
}

// Slow returns the longest-timeframe series.
func (a *Aggregator) Slow() *Series {
	return a.series[len(a.series)-1]
}

// Lookup returns the series for a timeframe name.
func (a *Aggregator) Lookup(name string) (*Series, bool) {
	for _, s := range a.series {
		if s.Timeframe.Name == name {
			return s, true
		}
	}
	return nil, false
}
