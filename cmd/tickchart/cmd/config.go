package cmd

import (
	"fmt"

	"github.com/rustyeddy/tickchart/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for chart sessions.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  tickchart config init -o chart.yaml
  tickchart config validate -c chart.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  tickchart config init -o chart.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.
Environment overrides (TICKCHART_*) are applied before validation.

Example:
  tickchart config validate -c chart.yaml`,
	RunE: runConfigValidate,
}

var configInitOutput string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "tickchart.yaml", "output config file path")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  tickchart run -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("validate needs a config file (-c)")
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
	fmt.Printf("  Feed: %s\n", feedName(cfg))
	for _, tf := range cfg.Aggregator.Timeframes {
		fmt.Printf("  Timeframe: %s\n", tf.Name)
	}
	fmt.Printf("  Window: %d candles, %d visible\n", cfg.Aggregator.WindowSize, cfg.Chart.VisibleCount)
	return nil
}

func feedName(cfg *config.Config) string {
	if cfg.Feed.Script != "" {
		return "script " + cfg.Feed.Script
	}
	return fmt.Sprintf("random walk from %.2f (step %.2f)", cfg.Feed.StartPrice, cfg.Feed.Step)
}
