package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"contentproc/internal/config"
	"contentproc/internal/store"
	"contentproc/internal/vectorstore"
)

// newMigrateCmd applies the relational and vector schemas, grounded on
// cmd/handlers/migrate.go's standalone-subcommand shape (the teacher
// also separates schema setup from serve into its own command).
func newMigrateCmd() *cobra.Command {
	var dimension int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the relational and vector schemas.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), dimension)
		},
	}
	cmd.Flags().IntVar(&dimension, "dimension", 1536, "embedding vector dimension for the documents table")
	return cmd
}

func runMigrate(ctx context.Context, dimension int) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.ConnectionString)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := store.New(pool).EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure relational schema: %w", err)
	}
	if err := vectorstore.NewPostgresStore(pool).EnsureSchema(ctx, dimension); err != nil {
		return fmt.Errorf("ensure vector schema: %w", err)
	}
	fmt.Println("schema up to date")
	return nil
}
