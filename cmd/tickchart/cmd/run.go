package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rustyeddy/tickchart/config"
	"github.com/rustyeddy/tickchart/indicators"
	"github.com/rustyeddy/tickchart/internal/logger"
	"github.com/rustyeddy/tickchart/internal/session"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a chart session and write the charts as SVG",
	Long: `Feed ticks through the candle aggregator for a number of frames, then
write one SVG chart per timeframe.

Without --realtime frames run back to back on a simulated clock, so a
6000 frame run at 100ms per frame covers ten minutes of market time
instantly.

Example:
  tickchart run -c chart.yaml --frames 3000 --scroll 5 --out ./charts`,
	RunE: runRun,
}

var (
	runFrames   int
	runRealtime bool
	runOut      string
	runScroll   int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runFrames, "frames", "n", 0, "number of frames to run (overrides config)")
	runCmd.Flags().BoolVar(&runRealtime, "realtime", false, "pace frames on the wall clock")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "output directory for charts (overrides config)")
	runCmd.Flags().IntVar(&runScroll, "scroll", 0, "candles to scroll back before writing charts (overrides config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	log, err := logger.NewLogger(
		logger.WithLoggingLevel(level),
		logger.WithEncoding(cfg.Log.Format),
		logger.WithOutputPaths([]string{"stderr"}),
	)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	s, err := session.FromConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	fmt.Printf("Running chart session %s\n", s.ID())
	fmt.Printf("  Feed: %s\n", feedName(cfg))
	fmt.Printf("  Frames: %d every %s (realtime: %v)\n", cfg.Run.Frames, cfg.Run.FrameInterval, cfg.Run.Realtime)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Run(ctx, cfg.Run.Frames, cfg.Run.Realtime); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run session: %w", err)
	}

	if cfg.Run.Scroll > 0 {
		for _, c := range s.Charts() {
			if err := s.Scroll(c.Timeframe.Name, cfg.Run.Scroll); err != nil {
				return err
			}
		}
	}

	paths, err := s.WriteCharts(cfg.Run.OutputDir)
	if err != nil {
		return fmt.Errorf("write charts: %w", err)
	}

	agg := s.Aggregator()
	fmt.Printf("Final Results:\n")
	fmt.Printf("  Price: %.2f\n", agg.Price())
	fmt.Printf("  Rejected ticks: %d\n", s.Rejected())
	for _, series := range agg.Series() {
		fmt.Printf("  %s: %d candles (%d closed this run)\n", series.Timeframe.Name, series.Len(), s.Rollovers(series.Timeframe.Name))
		if ov := cfg.Chart.Overlay; ov.Kind != "" {
			if v, err := indicators.Last(ov.Kind, series.History(), ov.Period); err == nil {
				fmt.Printf("    %s(%d): %.2f\n", strings.ToUpper(ov.Kind), ov.Period, v)
			}
		}
	}
	fmt.Printf("\nCharts saved to:\n")
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
	return nil
}

// runConfig loads the config and lets run flags given on the command line
// override it.
func runConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("frames") {
		cfg.Run.Frames = runFrames
	}
	if cmd.Flags().Changed("realtime") {
		cfg.Run.Realtime = runRealtime
	}
	if cmd.Flags().Changed("out") {
		cfg.Run.OutputDir = runOut
	}
	if cmd.Flags().Changed("scroll") {
		cfg.Run.Scroll = runScroll
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
