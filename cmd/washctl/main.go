package main

import (
	"os"

	"washplan/cmd/washctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
