package main

import (
	"os"

	"github.com/nepaliabroad/resources/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
