// Command checkclass serves the room booking and tardiness API and offers
// administrative subcommands for the same store.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/checkclass/internal/config"
	"github.com/example/checkclass/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// app carries state shared by every subcommand. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	envFile string
	stdout  io.Writer
	stderr  io.Writer

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "checkclass",
		Short: "Room booking and tardiness ledger for a school office",
		Long: `checkclass books classrooms by half-hour slot, aggregates occupancy into a
month calendar and keeps each student's tardiness ledger with automatic
escalation of repeated lateness.

Configuration is read from CHECKCLASS_* environment variables, optionally
seeded from an env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "file with KEY=VALUE pairs loaded before reading the environment")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newRoomsCmd(a),
		newStudentsCmd(a),
		newTokenCmd(a),
	)
	return root
}

// load reads configuration and builds the process logger.
func (a *app) load(opts ...config.Option) error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(a.stderr, cfg.LogLevel, cfg.LogFormat)
	return nil
}
