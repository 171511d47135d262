// Package bootstrap wires the config/logging/store/bus stack every
// cmd/*d binary needs, and hosts the shared start|stop|restart CLI
// skeleton each daemon command builds on.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tradectl/bus"
	"tradectl/config"
	"tradectl/logging"
	"tradectl/store"
)

// Runtime bundles the shared dependencies of a worker binary.
type Runtime struct {
	Config *config.Config
	Log    zerolog.Logger
	Store  *store.Store
	Bus    *bus.Bus
}

// Open loads the config file at path, opens the store and bus it
// describes, and ensures the schema exists.
func Open(path string) (*Runtime, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load config: %w", err)
	}

	log, err := logging.New(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open log: %w", err)
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open store: %w", err)
	}

	if err := st.InitSchema(context.Background()); err != nil {
		st.Close()
		return nil, fmt.Errorf("bootstrap: init schema: %w", err)
	}

	b, err := bus.New(bus.Config{Addr: cfg.Bus.Addr, Password: cfg.Bus.Password, DB: cfg.Bus.DB}, log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("bootstrap: connect bus: %w", err)
	}

	return &Runtime{Config: cfg, Log: log, Store: st, Bus: b}, nil
}

// Close releases the store and bus connections.
func (r *Runtime) Close() {
	r.Bus.Close()
	r.Store.Close()
}
