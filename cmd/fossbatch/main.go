package main

import (
	"os"

	"github.com/wonny/fossbatch/cmd/fossbatch/commands"
)

// main is the entry point for the FOSS batch CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/fossbatch [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
