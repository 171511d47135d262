// Command brokerd matches pending orders against transactions and
// writes fills. Exactly one instance must run at a time; see the doc
// on internal/broker's Worker for its in-process advisory lock.
package main

import (
	"context"
	"fmt"
	"os"

	"tradectl/bus"
	"tradectl/cmd/internal/bootstrap"
	"tradectl/internal/broker"
)

func main() {
	if err := bootstrap.DaemonCommand("brokerd", run).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	worker := broker.New(rt.Store, rt.Log, broker.Config{
		Commission:       rt.Config.Broker.Commission,
		Reserve:          rt.Config.Broker.Reserve,
		SeedBudget:       rt.Config.Broker.Budget,
		DefaultLookahead: int64(rt.Config.Orders.LookaheadSeconds),
	})
	return rt.Bus.Consume(ctx, bus.TopicOrdersMake, bus.QueueOrdersMake, worker.Handle)
}
