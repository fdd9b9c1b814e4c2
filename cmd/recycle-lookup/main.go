package main

import (
	"os"

	"recycle-schedule-backend/cmd/recycle-lookup/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
