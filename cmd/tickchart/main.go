package main

import (
	"os"

	"github.com/rustyeddy/tickchart/cmd/tickchart/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
