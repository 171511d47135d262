// Command trendevald proposes buy orders from trend snapshots.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"tradectl/bus"
	"tradectl/cmd/internal/bootstrap"
	"tradectl/internal/trend"
)

func main() {
	if err := bootstrap.DaemonCommand("trendevald", run).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	worker := trend.New(rt.Bus, rt.Log, rt.Config.Buy.Trend, func() int64 { return time.Now().UnixMilli() })
	return rt.Bus.Consume(ctx, bus.TopicRequestedTrends, bus.QueueRequestedTrends, worker.Handle)
}
