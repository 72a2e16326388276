// Command ticketctl inspects and repairs individual tickets against the live database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/config"
	"github.com/yatra-gate/backend/pkg/database"
)

// fixtureCode is the ticket the maintenance scripts were written against.
const fixtureCode = "568789"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ticketctl",
		Short:        "Inspect and repair tickets",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("code", "c", fixtureCode, "6-digit ticket code")
	root.AddCommand(newStatusCmd(), newDebugCmd(), newResetCmd(), newSchemaCmd(), newHashSecretCmd())
	return root
}

// connect opens a pool from the same environment the server reads.
func connect(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return database.NewPostgresPool(ctx, cfg.Database.DSN(), zap.NewNop())
}

func codeFlag(cmd *cobra.Command) string {
	code, _ := cmd.Flags().GetString("code")
	return code
}
