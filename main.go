package main

import (
	"os"

	"github.com/wallkanda/exchange-svc/internal/cli"
)

func main() {
	if !cli.Run(os.Args) {
		os.Exit(1)
	}
}
