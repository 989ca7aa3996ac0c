package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rustyeddy/tickchart/indicators"
	"github.com/rustyeddy/tickchart/internal/logger"
	"github.com/rustyeddy/tickchart/market"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TICKCHART_FEED_SEED.
const EnvPrefix = "TICKCHART_"

// Config represents the complete chart session configuration
type Config struct {
	Feed       FeedConfig       `json:"feed" yaml:"feed" envPrefix:"FEED_"`
	Aggregator AggregatorConfig `json:"aggregator" yaml:"aggregator" envPrefix:"AGGREGATOR_"`
	Chart      ChartConfig      `json:"chart" yaml:"chart" envPrefix:"CHART_"`
	Run        RunConfig        `json:"run" yaml:"run" envPrefix:"RUN_"`
	Log        LogConfig        `json:"log" yaml:"log" envPrefix:"LOG_"`
}

// FeedConfig describes where ticks come from
type FeedConfig struct {
	StartPrice float64 `json:"start_price" yaml:"start_price" env:"START_PRICE"`
	Step       float64 `json:"step" yaml:"step" env:"STEP"`
	Seed       int64   `json:"seed" yaml:"seed" env:"SEED"`
	Script     string  `json:"script,omitempty" yaml:"script,omitempty" env:"SCRIPT"` // CSV tick script; empty means random walk
}

// AggregatorConfig contains candle aggregation parameters
type AggregatorConfig struct {
	WindowSize  int               `json:"window_size" yaml:"window_size" env:"WINDOW_SIZE"`
	RateLimit   string            `json:"rate_limit" yaml:"rate_limit" env:"RATE_LIMIT"` // e.g. "100ms"
	SeedHistory int               `json:"seed_history" yaml:"seed_history" env:"SEED_HISTORY"`
	Timeframes  []TimeframeConfig `json:"timeframes" yaml:"timeframes"`
}

// TimeframeConfig names one candle series
type TimeframeConfig struct {
	Name   string `json:"name" yaml:"name"`
	Period string `json:"period,omitempty" yaml:"period,omitempty"`
}

// ChartConfig contains viewport parameters shared by every chart
type ChartConfig struct {
	VisibleCount int           `json:"visible_count" yaml:"visible_count" env:"VISIBLE_COUNT"`
	Padding      float64       `json:"padding" yaml:"padding" env:"PADDING"`
	Width        float64       `json:"width" yaml:"width" env:"WIDTH"`
	Height       float64       `json:"height" yaml:"height" env:"HEIGHT"`
	Overlay      OverlayConfig `json:"overlay" yaml:"overlay" envPrefix:"OVERLAY_"`
}

// OverlayConfig selects the moving average drawn over candles
type OverlayConfig struct {
	Kind   string `json:"kind,omitempty" yaml:"kind,omitempty" env:"KIND"` // "sma", "ema" or empty
	Period int    `json:"period,omitempty" yaml:"period,omitempty" env:"PERIOD"`
}

// RunConfig controls the frame loop
type RunConfig struct {
	Frames        int    `json:"frames" yaml:"frames" env:"FRAMES"`
	FrameInterval string `json:"frame_interval" yaml:"frame_interval" env:"FRAME_INTERVAL"`
	Realtime      bool   `json:"realtime" yaml:"realtime" env:"REALTIME"`
	OutputDir     string `json:"output_dir" yaml:"output_dir" env:"OUTPUT_DIR"`
	Scroll        int    `json:"scroll,omitempty" yaml:"scroll,omitempty" env:"SCROLL"` // candles to drag back before writing charts
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level" env:"LEVEL"`
	Format string `json:"format" yaml:"format" env:"FORMAT"` // "json" or "console"
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
// and applies environment overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Load returns the file config when path is set, otherwise the defaults,
// with environment overrides applied either way.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFromFile(path)
	}
	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from TICKCHART_* variables. The env files
// (default .env in the working directory) are read first; a missing file
// is skipped, a malformed one is an error.
func (c *Config) ApplyEnv(envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}

	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !market.ValidPrice(c.Feed.StartPrice) {
		return fmt.Errorf("feed.start_price must be a finite number")
	}
	if c.Feed.Step <= 0 {
		return fmt.Errorf("feed.step must be positive")
	}
	if c.Aggregator.WindowSize <= 0 {
		return fmt.Errorf("aggregator.window_size must be positive")
	}
	if _, err := c.RateLimit(); err != nil {
		return err
	}
	if c.Aggregator.SeedHistory < 0 {
		return fmt.Errorf("aggregator.seed_history must not be negative")
	}
	if len(c.Aggregator.Timeframes) == 0 {
		return fmt.Errorf("aggregator.timeframes must not be empty")
	}
	if _, err := c.Timeframes(); err != nil {
		return err
	}
	if c.Chart.VisibleCount <= 0 {
		return fmt.Errorf("chart.visible_count must be positive")
	}
	if c.Chart.Padding < 0 {
		return fmt.Errorf("chart.padding must not be negative")
	}
	if c.Chart.Width <= 2*c.Chart.Padding || c.Chart.Height <= 2*c.Chart.Padding {
		return fmt.Errorf("chart width and height must exceed twice the padding")
	}
	if c.Chart.Overlay.Kind != "" {
		if _, err := indicators.New(c.Chart.Overlay.Kind, c.Chart.Overlay.Period); err != nil {
			return fmt.Errorf("chart.overlay: %w", err)
		}
	}
	if c.Run.Frames < 0 {
		return fmt.Errorf("run.frames must not be negative")
	}
	if c.Run.Frames == 0 && !c.Run.Realtime && c.Feed.Script == "" {
		return fmt.Errorf("run.frames must be positive for a simulated random walk")
	}
	if d, err := c.FrameInterval(); err != nil {
		return err
	} else if d <= 0 {
		return fmt.Errorf("run.frame_interval must be positive")
	}
	if c.Run.Scroll < 0 {
		return fmt.Errorf("run.scroll must not be negative")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be 'json' or 'console'")
	}
	return nil
}

// RateLimit parses aggregator.rate_limit.
func (c *Config) RateLimit() (time.Duration, error) {
	d, err := time.ParseDuration(c.Aggregator.RateLimit)
	if err != nil {
		return 0, fmt.Errorf("aggregator.rate_limit: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("aggregator.rate_limit must not be negative")
	}
	return d, nil
}

// FrameInterval parses run.frame_interval.
func (c *Config) FrameInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Run.FrameInterval)
	if err != nil {
		return 0, fmt.Errorf("run.frame_interval: %w", err)
	}
	return d, nil
}

// Timeframes resolves aggregator.timeframes, fastest first.
func (c *Config) Timeframes() ([]market.Timeframe, error) {
	out := make([]market.Timeframe, 0, len(c.Aggregator.Timeframes))
	for i, t := range c.Aggregator.Timeframes {
		tf, err := market.ParseTimeframe(t.Name, t.Period)
		if err != nil {
			return nil, fmt.Errorf("aggregator.timeframes[%d]: %w", i, err)
		}
		if i > 0 && tf.Period <= out[i-1].Period {
			return nil, fmt.Errorf("aggregator.timeframes must be ordered fastest first")
		}
		out = append(out, tf)
	}
	return out, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Feed: FeedConfig{
			StartPrice: 100,
			Step:       2,
		},
		Aggregator: AggregatorConfig{
			WindowSize:  market.DefaultWindowSize,
			RateLimit:   "100ms",
			SeedHistory: 60,
			Timeframes: []TimeframeConfig{
				{Name: "1m", Period: "1m"},
				{Name: "5m", Period: "5m"},
			},
		},
		Chart: ChartConfig{
			VisibleCount: 30,
			Padding:      20,
			Width:        800,
			Height:       300,
		},
		Run: RunConfig{
			Frames:        6000,
			FrameInterval: "100ms",
			OutputDir:     "./charts",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
