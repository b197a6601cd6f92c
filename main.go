package main

import (
	"os"

	"github.com/abhisek/polegion/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
