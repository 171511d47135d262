// Command dbsaved inserts the rows described by database.save
// messages as a separate generic-insert daemon, decoupled from the
// producers (ingest and the evaluators).
package main

import (
	"context"
	"fmt"
	"os"

	"tradectl/bus"
	"tradectl/cmd/internal/bootstrap"
	"tradectl/internal/dbsave"
)

func main() {
	if err := bootstrap.DaemonCommand("dbsaved", run).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	worker := dbsave.New(rt.Store, rt.Log)
	return rt.Bus.Consume(ctx, bus.TopicDatabaseSave, bus.QueueDatabaseSave, worker.Handle)
}
