// Command profitevald proposes sell orders from profit snapshots.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"tradectl/bus"
	"tradectl/cmd/internal/bootstrap"
	"tradectl/internal/profit"
)

func main() {
	if err := bootstrap.DaemonCommand("profitevald", run).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	worker := profit.New(rt.Bus, rt.Log, rt.Config.Sell.Margin, int64(rt.Config.Sell.CooldownSeconds), func() int64 {
		return time.Now().UnixMilli()
	})
	return rt.Bus.Consume(ctx, bus.TopicRequestedProfit, bus.QueueRequestedProfit, worker.Handle)
}
