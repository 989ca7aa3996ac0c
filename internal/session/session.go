// Package session drives a tick source through the aggregator and renders
// one chart per candle series on every frame.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/rustyeddy/tickchart/chart"
	"github.com/rustyeddy/tickchart/config"
	"github.com/rustyeddy/tickchart/indicators"
	"github.com/rustyeddy/tickchart/internal/logger"
	"github.com/rustyeddy/tickchart/market"
	"github.com/rustyeddy/tickchart/pkg/id"
	"github.com/rustyeddy/tickchart/pricing"
)

// Chart pairs a candle series with its viewport and optional overlay.
type Chart struct {
	Title     string
	Timeframe market.Timeframe
	Viewport  *chart.Viewport
	Surface   chart.Rect
	Overlay   indicators.Indicator
}

// ChartFrame is one rendered chart.
type ChartFrame struct {
	Title     string
	Timeframe string
	Frame     chart.Frame
}

// Snapshot is the outcome of a single Step.
type Snapshot struct {
	Frame  int
	Tick   pricing.Tick
	Result market.Result
	Charts []ChartFrame
}

// Options wires a Session together. Clock must be the clock the aggregator
// reads; when it is a *market.ManualClock the session drives it.
type Options struct {
	ID         string
	Aggregator *market.Aggregator
	Source     pricing.TickSource
	Clock      market.Clock
	Charts     []*Chart
	Interval   time.Duration
	Logger     *logger.Logger
}

type Session struct {
	id       string
	agg      *market.Aggregator
	source   pricing.TickSource
	clock    market.Clock
	manual   *market.ManualClock
	charts   []*Chart
	interval time.Duration
	ticks    *pricing.TickStore
	log      *logger.Logger

	frame    int
	rejected int
	rolled   map[string]int
	last     Snapshot
}

func New(opts Options) (*Session, error) {
	if opts.Aggregator == nil {
		return nil, fmt.Errorf("session needs an aggregator")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("session needs a tick source")
	}
	if opts.Clock == nil {
		opts.Clock = market.SystemClock{}
	}
	if opts.Interval <= 0 {
		opts.Interval = market.DefaultRateLimit
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.ID == "" {
		sid, err := id.At(opts.Clock.Now())
		if err != nil {
			return nil, fmt.Errorf("session id: %w", err)
		}
		opts.ID = sid
	}
	for _, c := range opts.Charts {
		if _, ok := opts.Aggregator.Lookup(c.Timeframe.Name); !ok {
			return nil, fmt.Errorf("chart %q: no %s series", c.Title, c.Timeframe)
		}
	}

	s := &Session{
		id:       opts.ID,
		agg:      opts.Aggregator,
		source:   opts.Source,
		clock:    opts.Clock,
		charts:   opts.Charts,
		interval: opts.Interval,
		ticks:    pricing.NewTickStore(),
		log:      opts.Logger.WithFields(logger.NewField("session_id", opts.ID)),
		rolled:   make(map[string]int),
	}
	if mc, ok := opts.Clock.(*market.ManualClock); ok {
		s.manual = mc
	}
	return s, nil
}

// FromConfig builds a session from cfg: the tick source, a clock matching
// the run mode, a seeded aggregator and one chart per timeframe.
func FromConfig(cfg *config.Config, log *logger.Logger) (*Session, error) {
	tfs, err := cfg.Timeframes()
	if err != nil {
		return nil, err
	}
	rateLimit, err := cfg.RateLimit()
	if err != nil {
		return nil, err
	}
	interval, err := cfg.FrameInterval()
	if err != nil {
		return nil, err
	}

	var (
		source pricing.TickSource
		walk   *pricing.RandomWalk
		clock  market.Clock
		start  = time.Now()
		last   time.Time
		price  = cfg.Feed.StartPrice
	)
	switch {
	case cfg.Feed.Script != "":
		script, err := pricing.LoadScript(cfg.Feed.Script)
		if err != nil {
			return nil, err
		}
		if script.Len() == 0 {
			return nil, fmt.Errorf("tick script %s is empty", cfg.Feed.Script)
		}
		source = script
		start = script.Start()
		// the first row lands exactly on start and must not be rate limited
		last = start.Add(-rateLimit)
	default:
		walk = pricing.NewRandomWalk(price, cfg.Feed.Step, cfg.Feed.Seed)
		source = walk
	}
	if cfg.Run.Realtime {
		clock = market.SystemClock{}
	} else {
		clock = market.NewManualClock(start)
	}

	agg, err := market.NewAggregator(market.AggregatorOptions{
		Clock:      clock,
		Timeframes: tfs,
		WindowSize: cfg.Aggregator.WindowSize,
		RateLimit:  rateLimit,
		StartPrice: price,
		LastUpdate: last,
	})
	if err != nil {
		return nil, fmt.Errorf("create aggregator: %w", err)
	}

	if n := cfg.Aggregator.SeedHistory; n > 0 {
		var rng *rand.Rand
		if walk != nil {
			rng = walk.Rand()
		} else {
			rng = rand.New(rand.NewSource(cfg.Feed.Seed))
		}
		agg.Seed(market.SyntheticHistory(rng, tfs[0], clock.Now(), market.SeedOptions{
			Count:      n,
			StartPrice: price,
		}))
		if walk != nil {
			walk.SetPrice(agg.Price())
		}
	}

	surface := chart.NewRect(0, 0, cfg.Chart.Width, cfg.Chart.Height)
	charts := make([]*Chart, 0, len(tfs))
	for _, tf := range tfs {
		c := &Chart{
			Title:     Title(tf),
			Timeframe: tf,
			Surface:   surface,
			Viewport: chart.NewViewport(chart.Options{
				VisibleCount: cfg.Chart.VisibleCount,
				Padding:      cfg.Chart.Padding,
			}),
		}
		if cfg.Chart.Overlay.Kind != "" {
			c.Overlay, err = indicators.New(cfg.Chart.Overlay.Kind, cfg.Chart.Overlay.Period)
			if err != nil {
				return nil, fmt.Errorf("chart overlay: %w", err)
			}
		}
		charts = append(charts, c)
	}

	return New(Options{
		Aggregator: agg,
		Source:     source,
		Clock:      clock,
		Charts:     charts,
		Interval:   interval,
		Logger:     log,
	})
}

// Title names a chart after its period, e.g. "1 Minute Chart".
func Title(tf market.Timeframe) string {
	switch p := tf.Period; {
	case p%time.Hour == 0:
		return fmt.Sprintf("%d Hour Chart", p/time.Hour)
	case p%time.Minute == 0:
		return fmt.Sprintf("%d Minute Chart", p/time.Minute)
	default:
		return fmt.Sprintf("%d Second Chart", p/time.Second)
	}
}

func (s *Session) ID() string                     { return s.id }
func (s *Session) Aggregator() *market.Aggregator { return s.agg }
func (s *Session) Charts() []*Chart               { return s.charts }
func (s *Session) Last() Snapshot                 { return s.last }
func (s *Session) Ticks() *pricing.TickStore      { return s.ticks }
func (s *Session) Rejected() int                  { return s.rejected }

// Rollovers returns how many candles each series has finalized.
func (s *Session) Rollovers(name string) int {
	return s.rolled[name]
}

// Step pulls one tick, feeds it to the aggregator and renders every chart.
// An invalid price is logged and skipped; the charts are still rendered.
func (s *Session) Step(ctx context.Context) (Snapshot, error) {
	tick, err := s.source.Next(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	if s.manual != nil {
		if tick.Scripted() {
			s.manual.Set(tick.Time)
		} else {
			s.manual.Advance(s.interval)
		}
	}
	s.ticks.Set(tick)

	res, err := s.agg.Update(tick.Price)
	switch {
	case errors.Is(err, market.ErrInvalidPrice):
		s.rejected++
		s.log.Warn("tick rejected",
			logger.NewField("frame", s.frame),
			logger.NewField("error", err.Error()))
	case err != nil:
		return Snapshot{}, err
	}

	for _, tf := range res.Rolled {
		s.rolled[tf.Name]++
		series, _ := s.agg.Lookup(tf.Name)
		h := series.History()
		done := h[len(h)-1]
		s.log.Debug("candle closed",
			logger.NewField("timeframe", tf.Name),
			logger.NewField("index", done.Index),
			logger.NewField("open", done.Open),
			logger.NewField("high", done.High),
			logger.NewField("low", done.Low),
			logger.NewField("close", done.Close))
	}

	snap := Snapshot{
		Frame:  s.frame,
		Tick:   tick,
		Result: res,
		Charts: s.Render(),
	}
	s.frame++
	s.last = snap
	return snap, nil
}

// Render draws every chart from the current aggregator state.
func (s *Session) Render() []ChartFrame {
	out := make([]ChartFrame, 0, len(s.charts))
	for _, c := range s.charts {
		series, _ := s.agg.Lookup(c.Timeframe.Name)
		history, current := series.History(), series.Current()

		f := c.Viewport.Render(history, current, c.Surface)
		if c.Overlay != nil {
			f.AddOverlay(c.Overlay.Name(), indicators.Trace(c.Overlay, history, []market.Candle{current}))
		}
		out = append(out, ChartFrame{Title: c.Title, Timeframe: c.Timeframe.Name, Frame: f})
	}
	return out
}

// Run steps the session for frames frames, or until the source is
// exhausted when frames is zero. In realtime mode steps are paced by a
// ticker; otherwise they run back to back on the simulated clock. A source
// returning io.EOF ends the run without error.
func (s *Session) Run(ctx context.Context, frames int, realtime bool) error {
	ctx = logger.WithSessionID(ctx, s.id)
	s.log.InfoContext(ctx, "session started",
		logger.NewField("frames", frames),
		logger.NewField("realtime", realtime),
		logger.NewField("interval", s.interval.String()))

	var tick <-chan time.Time
	if realtime {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 0; frames == 0 || i < frames; i++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := s.Step(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("frame %d: %w", s.frame, err)
		}
	}

	fields := []logger.Field{
		logger.NewField("frames", s.frame),
		logger.NewField("rejected", s.rejected),
		logger.NewField("price", s.agg.Price()),
	}
	for _, series := range s.agg.Series() {
		fields = append(fields, logger.NewField("candles_"+series.Timeframe.Name, s.rolled[series.Timeframe.Name]))
	}
	s.log.InfoContext(ctx, "session finished", fields...)
	return nil
}

func (s *Session) chart(name string) (*Chart, *market.Series, error) {
	for _, c := range s.charts {
		if c.Timeframe.Name == name {
			series, _ := s.agg.Lookup(name)
			return c, series, nil
		}
	}
	return nil, nil, fmt.Errorf("no chart for timeframe %q", name)
}

// Drag performs a horizontal drag of dx pixels on the named chart.
func (s *Session) Drag(name string, dx float64) error {
	c, series, err := s.chart(name)
	if err != nil {
		return err
	}
	c.Viewport.Drag(c.Surface, series.Len(), dx)
	return nil
}

// Scroll drags the named chart back by n candles.
func (s *Session) Scroll(name string, n int) error {
	c, _, err := s.chart(name)
	if err != nil {
		return err
	}
	return s.Drag(name, -float64(n)*c.Viewport.SlotWidth(c.Surface))
}

// SeekToLatest snaps the named chart back to the live edge.
func (s *Session) SeekToLatest(name string) error {
	c, _, err := s.chart(name)
	if err != nil {
		return err
	}
	c.Viewport.SeekToLatest()
	return nil
}

// WriteCharts renders every chart into dir as <timeframe>.svg and returns
// the paths written.
func (s *Session) WriteCharts(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	for _, cf := range s.Render() {
		path := filepath.Join(dir, cf.Timeframe+".svg")
		if err := s.writeChart(path, cf); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *Session) writeChart(path string, cf ChartFrame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	meta := chart.SVGMeta{ID: s.id, Title: cf.Title, Price: s.agg.Price()}
	if err := chart.WriteSVG(f, cf.Frame, meta); err != nil {
		return err
	}
	s.log.Info("chart written", logger.NewField("path", path), logger.NewField("timeframe", cf.Timeframe))
	return f.Close()
}
