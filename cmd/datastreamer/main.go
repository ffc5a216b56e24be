package main

import (
	"os"

	"github.com/solatis/datastreamer/cmd/datastreamer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
