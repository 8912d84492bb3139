package main

import (
	"os"

	"benritz/gilts/cmd/gilts/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
