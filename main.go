package main

import (
	"os"

	"github.com/abodnar/clio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
