package main

import (
	"os"

	"github.com/wonny/squeeze/cmd/squeeze/commands"
)

// main is the entry point for the squeeze CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/squeeze [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
