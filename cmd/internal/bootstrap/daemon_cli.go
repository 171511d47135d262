package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tradectl/internal/daemon"
)

const stopTimeout = 10 * time.Second

// DaemonCommand builds the start|stop|restart root command shared by
// every long-running worker binary. run is invoked once the runtime
// is open; it should block until ctx is cancelled.
func DaemonCommand(name string, run func(ctx context.Context, rt *Runtime) error) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   name + " start|stop|restart",
		Short: name + " manages the " + name + " worker process",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "tradectl.ini", "path to the tradectl INI configuration file")

	pidPath := func() string { return filepath.Join("run", name+".pid") }

	start := &cobra.Command{
		Use:   "start",
		Short: "run " + name + " in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForeground(name, pidPath(), configPath, run)
		},
	}

	stop := &cobra.Command{
		Use:   "stop",
		Short: "signal the running " + name + " to exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return daemon.Stop(pidPath(), stopTimeout)
		},
	}

	restart := &cobra.Command{
		Use:   "restart",
		Short: "stop and relaunch " + name + " in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := daemon.Stop(pidPath(), stopTimeout); err != nil {
				fmt.Fprintf(os.Stderr, "%s: stop before restart: %v\n", name, err)
			}
			return relaunch(configPath)
		},
	}

	root.AddCommand(start, stop, restart)
	return root
}

func runForeground(name, pidPath, configPath string, run func(ctx context.Context, rt *Runtime) error) error {
	if err := os.MkdirAll(filepath.Dir(pidPath), 0o755); err != nil {
		return fmt.Errorf("%s: create run directory: %w", name, err)
	}
	if err := daemon.WritePID(pidPath); err != nil {
		return err
	}
	defer func() { _ = daemon.RemovePID(pidPath) }()

	rt, err := Open(configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt.Log.Info().Str("worker", name).Msg("started")
	return run(ctx, rt)
}

// relaunch starts a new, detached instance of the current executable
// with "start --config <configPath>".
func relaunch(configPath string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("relaunch: resolve executable: %w", err)
	}

	proc, err := os.StartProcess(exe, []string{exe, "start", "--config", configPath}, &os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	})
	if err != nil {
		return fmt.Errorf("relaunch: start process: %w", err)
	}
	return proc.Release()
}
