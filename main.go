package main

import (
	"os"

	"github.com/hrmatcher/hr-matcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
