package main

import (
	"os"

	"github.com/asipanicisco/meraki-migration/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
