package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every embedded migration in file name order. The scripts
// are idempotent, so running Migrate twice is harmless.
func Migrate(ctx context.Context, logger zerolog.Logger, pgPool *pgxpool.Pool) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		_, err = pgPool.Exec(ctx, string(script))
		if err != nil {
			logger.Error().
				Err(err).
				Str("migration", name).
				Msg("failed to apply migration")
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		logger.Info().
			Str("migration", name).
			Msg("applied migration")
	}
	return nil
}
