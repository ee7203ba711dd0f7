package main

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/cognicore/korsna/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Error("korsna failed", "err", err)
		os.Exit(1)
	}
}
