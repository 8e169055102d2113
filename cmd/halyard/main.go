package main

import (
	"os"

	"github.com/halyard-dev/halyard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
