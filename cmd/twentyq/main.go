package main

import (
	"os"

	"github.com/Iron-Ham/twentyq/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
