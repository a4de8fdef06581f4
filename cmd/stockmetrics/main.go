package main

import (
	"os"

	"github.com/wonny/stockmetrics/backend/cmd/stockmetrics/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
