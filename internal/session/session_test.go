package session

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/tickchart/chart"
	"github.com/rustyeddy/tickchart/config"
	"github.com/rustyeddy/tickchart/indicators"
	"github.com/rustyeddy/tickchart/internal/logger"
	"github.com/rustyeddy/tickchart/market"
	"github.com/rustyeddy/tickchart/pkg/id"
	"github.com/rustyeddy/tickchart/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	s     *Session
	clock *market.ManualClock
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T, source pricing.TickSource, interval time.Duration) fixture {
	t.Helper()

	clock := market.NewManualClock(t0)
	agg, err := market.NewAggregator(market.AggregatorOptions{
		Clock:      clock,
		StartPrice: 100,
	})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	surface := chart.NewRect(0, 0, 640, 300)
	charts := []*Chart{
		{Title: Title(market.M1), Timeframe: market.M1, Surface: surface, Viewport: chart.NewViewport(chart.Options{Padding: chart.DefaultPadding})},
		{Title: Title(market.M5), Timeframe: market.M5, Surface: surface, Viewport: chart.NewViewport(chart.Options{Padding: chart.DefaultPadding})},
	}

	s, err := New(Options{
		Aggregator: agg,
		Source:     source,
		Clock:      clock,
		Charts:     charts,
		Interval:   interval,
		Logger:     logger.New(zap.New(core)),
	})
	require.NoError(t, err)
	return fixture{s: s, clock: clock, logs: logs}
}

func scriptEvery(d time.Duration, prices ...float64) *pricing.Script {
	ticks := make([]pricing.Tick, len(prices))
	for i, p := range prices {
		ticks[i] = pricing.Tick{Time: t0.Add(time.Duration(i+1) * d), Price: p}
	}
	return pricing.NewScript(ticks)
}

func TestNewValidates(t *testing.T) {
	agg, err := market.NewAggregator(market.AggregatorOptions{})
	require.NoError(t, err)
	walk := pricing.NewRandomWalk(100, 1, 1)

	_, err = New(Options{Source: walk})
	assert.Error(t, err)

	_, err = New(Options{Aggregator: agg})
	assert.Error(t, err)

	_, err = New(Options{
		Aggregator: agg,
		Source:     walk,
		Charts:     []*Chart{{Title: "hourly", Timeframe: market.H1}},
	})
	assert.ErrorContains(t, err, "no 1h series")

	s, err := New(Options{Aggregator: agg, Source: walk})
	require.NoError(t, err)
	assert.Len(t, s.ID(), 26)
}

func TestStepAdvancesSimulatedClock(t *testing.T) {
	fx := newFixture(t, pricing.NewRandomWalk(100, 1, 42), time.Second)
	ctx := context.Background()

	for i := 0; i < 59; i++ {
		snap, err := fx.s.Step(ctx)
		require.NoError(t, err)
		require.True(t, snap.Result.Accepted)
		assert.Equal(t, i, snap.Frame)
	}
	assert.Equal(t, 0, fx.s.Rollovers("1m"))

	snap, err := fx.s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Minute), fx.clock.Now())
	require.Len(t, snap.Result.Rolled, 1)
	assert.Equal(t, market.M1, snap.Result.Rolled[0])
	assert.Equal(t, 1, fx.s.Rollovers("1m"))
	assert.Equal(t, 0, fx.s.Rollovers("5m"))

	require.Len(t, snap.Charts, 2)
	assert.Equal(t, "1 Minute Chart", snap.Charts[0].Title)
	assert.Len(t, snap.Charts[0].Frame.Slots, 2)
	assert.Len(t, snap.Charts[1].Frame.Slots, 1)

	closed := fx.logs.FilterMessage("candle closed").All()
	require.Len(t, closed, 1)
	assert.Equal(t, "1m", closed[0].ContextMap()["timeframe"])
	assert.Equal(t, 60, fx.s.Ticks().Count())
}

func TestStepFollowsScriptTime(t *testing.T) {
	fx := newFixture(t, scriptEvery(30*time.Second, 101, 99, 104, 102), time.Second)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := fx.s.Step(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, t0.Add(2*time.Minute), fx.clock.Now())

	fast := fx.s.Aggregator().Fast()
	require.Equal(t, 2, fast.Len())
	first := fast.History()[0]
	assert.Equal(t, 100.0, first.Open)
	assert.Equal(t, 101.0, first.High)
	assert.Equal(t, 99.0, first.Low)
	assert.Equal(t, 99.0, first.Close)

	last, ok := fx.s.Ticks().Last()
	require.True(t, ok)
	assert.Equal(t, 102.0, last.Price)
}

func TestStepRejectsInvalidPrice(t *testing.T) {
	fx := newFixture(t, scriptEvery(time.Second, 101, math.NaN(), 102), time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		snap, err := fx.s.Step(ctx)
		require.NoError(t, err)
		assert.Len(t, snap.Charts, 2)
	}

	assert.Equal(t, 1, fx.s.Rejected())
	assert.Equal(t, 102.0, fx.s.Aggregator().Price())
	assert.Equal(t, 1, fx.logs.FilterMessage("tick rejected").Len())
	cur := fx.s.Aggregator().Fast().Current()
	assert.Equal(t, 102.0, cur.High)
	assert.Equal(t, 100.0, cur.Low)
}

func TestRunStopsAtEndOfScript(t *testing.T) {
	fx := newFixture(t, scriptEvery(10*time.Second, 100, 101, 102, 103, 104, 105, 106, 107), time.Second)

	require.NoError(t, fx.s.Run(context.Background(), 0, false))
	assert.Equal(t, 7, fx.s.Last().Frame)
	assert.Equal(t, 8, fx.s.Ticks().Count())
	assert.Equal(t, 1, fx.s.Rollovers("1m"))

	done := fx.logs.FilterMessage("session finished").All()
	require.Len(t, done, 1)
	fields := done[0].ContextMap()
	assert.Equal(t, fx.s.ID(), fields["session_id"])
	assert.EqualValues(t, 8, fields["frames"])
}

func TestRunFrameLimit(t *testing.T) {
	fx := newFixture(t, pricing.NewRandomWalk(100, 1, 7), 100*time.Millisecond)

	require.NoError(t, fx.s.Run(context.Background(), 25, false))
	assert.Equal(t, 25, fx.s.Ticks().Count())
	assert.Equal(t, t0.Add(2500*time.Millisecond), fx.clock.Now())
}

func TestRunCancelled(t *testing.T) {
	fx := newFixture(t, pricing.NewRandomWalk(100, 1, 7), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fx.s.Run(ctx, 10, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, fx.s.Ticks().Count())
}

func TestRunRealtime(t *testing.T) {
	walk := pricing.NewRandomWalk(100, 1, 7)
	agg, err := market.NewAggregator(market.AggregatorOptions{RateLimit: time.Millisecond})
	require.NoError(t, err)
	s, err := New(Options{Aggregator: agg, Source: walk, Interval: 2 * time.Millisecond})
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background(), 3, true))
	assert.Equal(t, 3, s.Ticks().Count())
}

func TestScrollAndSeek(t *testing.T) {
	fx := newFixture(t, pricing.NewRandomWalk(100, 1, 3), 10*time.Second)
	ctx := context.Background()

	// 40 minutes of ticks
	for i := 0; i < 240; i++ {
		_, err := fx.s.Step(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 40, fx.s.Aggregator().Fast().Len())

	require.NoError(t, fx.s.Scroll("1m", 2))
	frames := fx.s.Render()
	assert.Equal(t, 2, frames[0].Frame.Offset)
	assert.False(t, frames[0].Frame.Following)
	assert.True(t, frames[1].Frame.Following)

	// A new candle does not move a scrolled chart.
	for i := 0; i < 6; i++ {
		_, err := fx.s.Step(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, fx.s.Last().Charts[0].Frame.Offset)

	require.NoError(t, fx.s.Drag("1m", 1000))
	assert.Equal(t, 0, fx.s.Render()[0].Frame.Offset)

	require.NoError(t, fx.s.Scroll("1m", 5))
	require.NoError(t, fx.s.SeekToLatest("1m"))
	assert.True(t, fx.s.Render()[0].Frame.Following)

	assert.Error(t, fx.s.Scroll("1h", 1))
	assert.Error(t, fx.s.SeekToLatest("1h"))
	assert.Error(t, fx.s.Drag("", 1))
}

func TestOverlayIsDrawn(t *testing.T) {
	fx := newFixture(t, pricing.NewRandomWalk(100, 1, 5), 30*time.Second)
	fx.s.Charts()[0].Overlay = indicators.NewMA(3)

	for i := 0; i < 20; i++ {
		_, err := fx.s.Step(context.Background())
		require.NoError(t, err)
	}

	frames := fx.s.Render()
	require.Len(t, frames[0].Frame.Overlays, 1)
	assert.Equal(t, "MA(3)", frames[0].Frame.Overlays[0].Name)
	assert.Empty(t, frames[1].Frame.Overlays)
}

func TestWriteCharts(t *testing.T) {
	fx := newFixture(t, pricing.NewRandomWalk(100, 1, 9), 15*time.Second)
	require.NoError(t, fx.s.Run(context.Background(), 20, false))

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := fx.s.WriteCharts(dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "1m.svg"), filepath.Join(dir, "5m.svg")}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<svg"))
	assert.Contains(t, string(data), fx.s.ID())
	assert.Contains(t, string(data), "1 Minute Chart")
	assert.Equal(t, 2, fx.logs.FilterMessage("chart written").Len())
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "1 Minute Chart", Title(market.M1))
	assert.Equal(t, "5 Minute Chart", Title(market.M5))
	assert.Equal(t, "1 Hour Chart", Title(market.H1))
	assert.Equal(t, "30 Second Chart", Title(market.Timeframe{Name: "30s", Period: 30 * time.Second}))
}

func TestFromConfigSeedsHistory(t *testing.T) {
	cfg := config.Default()
	cfg.Feed.Seed = 11
	cfg.Chart.Overlay = config.OverlayConfig{Kind: "ema", Period: 5}

	s, err := FromConfig(cfg, logger.NewNop())
	require.NoError(t, err)

	agg := s.Aggregator()
	assert.Equal(t, 60, agg.Fast().Len())
	assert.Equal(t, 12, agg.Slow().Len())
	require.Len(t, s.Charts(), 2)
	assert.Equal(t, "5 Minute Chart", s.Charts()[1].Title)
	assert.Equal(t, "EMA(5)", s.Charts()[0].Overlay.Name())

	walk, ok := s.source.(*pricing.RandomWalk)
	require.True(t, ok)
	assert.Equal(t, agg.Price(), walk.Price())

	require.NoError(t, s.Run(context.Background(), 10, false))
	assert.Equal(t, 10, s.Ticks().Count())
}

func TestFromConfigScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ticks.csv")
	csv := "time,price\n" +
		"2024-01-01T12:00:00Z,100\n" +
		"2024-01-01T12:00:30Z,101.5\n" +
		"2024-01-01T12:01:00Z,99\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	cfg := config.Default()
	cfg.Feed.Script = path
	cfg.Aggregator.SeedHistory = 0
	cfg.Run.Frames = 0

	s, err := FromConfig(cfg, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), cfg.Run.Frames, false))

	fast := s.Aggregator().Fast()
	require.Equal(t, 1, fast.Len())
	assert.Equal(t, 101.5, fast.History()[0].High)
	assert.Equal(t, 99.0, fast.Current().Open)
	assert.Equal(t, 0, s.Rejected())
}

func TestFromConfigScriptAtEpoch(t *testing.T) {
	tests := []struct {
		name  string
		csv   string
		first time.Time
	}{
		{"unix zero", "time,price\n0,100\n1,101\n60,102\n", time.Unix(0, 0).UTC()},
		{"before 1970", "time,price\n" +
			"1969-12-31T23:59:00Z,100\n" +
			"1969-12-31T23:59:30Z,101\n" +
			"1970-01-01T00:00:00Z,102\n", time.Unix(-60, 0).UTC()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ticks.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.csv), 0644))

			cfg := config.Default()
			cfg.Feed.Script = path
			cfg.Aggregator.SeedHistory = 0
			cfg.Run.Frames = 0

			var s *Session
			var err error
			require.NotPanics(t, func() { s, err = FromConfig(cfg, nil) })
			require.NoError(t, err)

			stamped, err := id.Time(s.ID())
			require.NoError(t, err)
			assert.Equal(t, time.Unix(0, 0).UTC(), stamped)

			require.NoError(t, s.Run(context.Background(), 0, false))
			assert.Equal(t, 0, s.Rejected())

			fast := s.Aggregator().Fast()
			require.Equal(t, 1, fast.Len())
			c := fast.History()[0]
			assert.Equal(t, tt.first, c.Time)
			assert.Equal(t, 100.0, c.Open)
			assert.Equal(t, 102.0, c.High)
			assert.Equal(t, 102.0, c.Close)
		})
	}
}

func TestFromConfigEmptyScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,price\n"), 0644))

	cfg := config.Default()
	cfg.Feed.Script = path
	_, err := FromConfig(cfg, logger.NewNop())
	assert.ErrorContains(t, err, "empty")
}
