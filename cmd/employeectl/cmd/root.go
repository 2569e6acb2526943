package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corpdesk/employee-portal/internal/bootstrap"
	"github.com/corpdesk/employee-portal/internal/config"
	"github.com/corpdesk/employee-portal/internal/observability"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "employeectl",
	Short:         "employeectl runs maintenance tasks against the employee portal backends",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = observability.NewLogger(cfg.App, cfg.Logger)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "employeectl:", err)
		os.Exit(1)
	}
}

// withContainer builds the service graph for the duration of fn.
func withContainer(ctx context.Context, fn func(*bootstrap.Container) error) error {
	container, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close(context.Background())
	return fn(container)
}
