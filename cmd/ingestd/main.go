// Command ingestd runs the ingest worker: it drains the external
// trade feed into transactions rows via the bus.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"tradectl/cmd/internal/bootstrap"
	"tradectl/internal/feed"
	"tradectl/internal/ingest"
)

func main() {
	if err := bootstrap.DaemonCommand("ingestd", run).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	symbols, err := feed.DiscoverSymbols(rt.Config.Symbols.Path, rt.Config.Symbols.Mask)
	if err != nil {
		return fmt.Errorf("ingestd: discover symbols: %w", err)
	}
	rt.Log.Info().Int("symbols", len(symbols)).Msg("ingestd: discovered symbols")

	client := feed.NewClient(rt.Config.API.URL, rt.Config.API.Token)
	worker := ingest.New(client, rt.Bus, rt.Log, ingest.Config{
		Buffer:  rt.Config.API.Buffer,
		Respawn: time.Duration(rt.Config.API.Respawn) * time.Second,
		Symbols: symbols,
	})

	return worker.Run(ctx)
}
