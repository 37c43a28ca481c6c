package pgrepo

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"nutrastore-backend/db"
	"nutrastore-backend/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate applies every embedded migration in file name order.
// The scripts are written to be re-runnable.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := fs.Glob(db.Migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := fs.ReadFile(db.Migrations, name)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		logger.Info().Str("migration", name).Msg("migration applied")
	}
	return nil
}
