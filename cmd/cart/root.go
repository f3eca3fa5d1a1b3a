package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/cart_ledger/internal/config"
	"github.com/Skotchmaster/cart_ledger/internal/db"
	"github.com/Skotchmaster/cart_ledger/internal/logging"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cart",
		Short:         "Shopping cart ledger service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), &ServeOptions{})
		},
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())

	return cmd
}

// bootstrap loads config, installs the default logger and opens the database.
func bootstrap(ctx context.Context) (config.Config, *slog.Logger, *gorm.DB, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, nil, nil, err
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	gdb, err := db.Open(initCtx, cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DatabaseEcho)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, logger, gdb, nil
}
