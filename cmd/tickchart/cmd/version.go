package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the tickchart CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tickchart version %s\n", version)
		fmt.Println("Live candlestick charts from a price tick stream")
		fmt.Println("https://github.com/rustyeddy/tickchart")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
