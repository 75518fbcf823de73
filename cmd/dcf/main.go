package main

import (
	"os"

	"dcf_builder/cmd/dcf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
