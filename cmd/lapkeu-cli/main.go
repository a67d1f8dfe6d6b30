package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lapkeu/internal/cli"
	"lapkeu/internal/config"
	applog "lapkeu/internal/log"
)

var version = "dev"

// app carries what PersistentPreRunE loads for the subcommands.
type app struct {
	cfg    *config.Config
	logger *applog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:     "lapkeu-cli",
		Short:   "Laporan keuangan from the terminal",
		Long:    "lapkeu-cli reads and writes the same ledger as the lapkeu server, using the same environment variables.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(reportCmd(a))
	root.AddCommand(importOFXCmd(a))
	root.AddCommand(calcCmd())
	root.AddCommand(loginCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cli.LoadEnvFile()

	level, _ := cmd.Flags().GetString("log-level")
	lvl, err := applog.ParseLevel(level)
	if err != nil {
		return err
	}
	a.logger = applog.New(applog.Config{
		Level:     lvl,
		Format:    os.Getenv("LOG_FORMAT"),
		Component: applog.ComponentApp,
		Output:    cmd.ErrOrStderr(),
	})
	applog.SetDefault(a.logger)

	a.cfg = config.Load()
	return a.cfg.Validate()
}

// openLedger opens the store and fails early when it lacks its settings.
func (a *app) openLedger(ctx context.Context) (*cli.Ledger, error) {
	ledger, err := cli.OpenLedger(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	if !ledger.Configured() {
		ledger.Close()
		return nil, fmt.Errorf("%s store is not configured", a.cfg.DataBackend)
	}
	return ledger, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		slog.Debug("Command failed", applog.FieldError, err)
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
