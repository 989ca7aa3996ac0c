package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tickchart",
	Short: "Live candlestick charts from a price tick stream",
	Long: `Tickchart aggregates a stream of price ticks into 1 minute and 5 minute
candles and renders each series as a scrollable candlestick chart.

It provides tools for:
  - Simulating a random walk price feed or replaying a CSV tick script
  - Seeding charts with synthetic history
  - Scrolling charts back through history
  - Writing rendered charts as SVG files`,
	SilenceUsage: true,
}

var cfgFile string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults apply when empty")
}
