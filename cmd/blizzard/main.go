package main

import (
	"os"

	"blizzard-api/internal/cli"
	"blizzard-api/internal/common/logging"
)

func main() {
	err := cli.Execute()
	logging.MustSync()
	if err != nil {
		os.Exit(1)
	}
}
