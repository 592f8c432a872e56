// Command cropctl inspects reference data and runs recommendations offline,
// using the same packages as the service.
//
// Usage:
//
//	go run ./cmd/cropctl scores --dataset data/dftrain.csv --scale percent
//	go run ./cmd/cropctl predict --district Palakkad --rainfall 1800 --model model.json --seed 7
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
