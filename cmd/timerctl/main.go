// Command timerctl advances the rotating-phase schedule by one tick
// and publishes the corresponding request. It takes no arguments
// beyond an optional --config, and exits immediately after
// publishing; an external scheduler (cron, a systemd timer) is
// expected to invoke it periodically.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tradectl/bus"
	"tradectl/config"
	"tradectl/internal/timer"
	"tradectl/logging"
)

const statePath = "timer-daemon.state"

func main() {
	configPath := flag.String("config", "tradectl.ini", "path to the tradectl INI configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("timerctl: load config: %w", err)
	}

	log, err := logging.New(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("timerctl: open log: %w", err)
	}

	b, err := bus.New(bus.Config{Addr: cfg.Bus.Addr, Password: cfg.Bus.Password, DB: cfg.Bus.DB}, log)
	if err != nil {
		return fmt.Errorf("timerctl: connect bus: %w", err)
	}
	defer b.Close()

	err = timer.Dispatch(context.Background(), b, timer.Config{
		StatePath:         statePath,
		DefaultLookahead:  int64(cfg.Orders.LookaheadSeconds),
		DefaultLookbehind: int64(cfg.Orders.LookbehindSeconds),
		Now:               func() int64 { return time.Now().UnixMilli() },
	})
	if err != nil {
		return fmt.Errorf("timerctl: dispatch: %w", err)
	}
	return nil
}
