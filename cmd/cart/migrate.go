package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/cart_ledger/internal/db"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the users, products and cart tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
}

func runMigrate(ctx context.Context) error {
	_, logger, gdb, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gdb) }()

	if err := db.Migrate(ctx, gdb); err != nil {
		return err
	}
	logger.Info("migration complete")
	return nil
}
