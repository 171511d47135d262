// Command queryd answers database.read requests with profit/trends
// snapshots.
package main

import (
	"context"
	"fmt"
	"os"

	"tradectl/bus"
	"tradectl/cmd/internal/bootstrap"
	"tradectl/internal/query"
)

func main() {
	if err := bootstrap.DaemonCommand("queryd", run).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	worker := query.New(rt.Store, rt.Bus, rt.Log, query.Config{
		SeedBudget:        rt.Config.Broker.Budget,
		DefaultLookahead:  int64(rt.Config.Orders.LookaheadSeconds),
		DefaultLookbehind: int64(rt.Config.Orders.LookbehindSeconds),
	})
	return rt.Bus.Consume(ctx, bus.TopicDatabaseRead, bus.QueueDatabaseRead, worker.Handle)
}
