package main

import (
	"os"

	"github.com/auburnhacks/sponsor-portal/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
