package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jgivc/cpldtracker/internal/app"
)

func main() {
	cfgFileName := flag.String("c", "config.yml", "Path to config file")
	flag.Parse()

	if err := app.New(*cfgFileName).Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %s\n", err)
		os.Exit(1)
	}
}
