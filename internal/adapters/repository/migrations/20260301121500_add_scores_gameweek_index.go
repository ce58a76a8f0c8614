package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() { //nolint:gochecknoinits // migration registration
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return exec(ctx, db,
			`CREATE INDEX IF NOT EXISTS scores_gameweek_idx ON scores (gameweek)`,
			`CREATE INDEX IF NOT EXISTS players_team_idx ON players (team)`,
		)
	}, func(ctx context.Context, db *bun.DB) error {
		return exec(ctx, db,
			`DROP INDEX IF EXISTS players_team_idx`,
			`DROP INDEX IF EXISTS scores_gameweek_idx`,
		)
	})
}
