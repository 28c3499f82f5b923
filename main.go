package main

import (
	"os"

	"github.com/neurelo-connect/neurelo-connect-mcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
