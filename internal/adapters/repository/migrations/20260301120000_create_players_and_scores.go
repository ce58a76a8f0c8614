package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() { //nolint:gochecknoinits // migration registration
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		id := idColumn(db)
		return exec(ctx, db,
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS players (
				id %s,
				name TEXT NOT NULL,
				team TEXT NOT NULL
			)`, id),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS scores (
				id %s,
				player_id BIGINT NOT NULL REFERENCES players (id) ON DELETE CASCADE,
				gameweek INTEGER NOT NULL CONSTRAINT scores_gameweek_range CHECK (gameweek >= 1 AND gameweek <= 38),
				week_points INTEGER NOT NULL DEFAULT 0 CONSTRAINT scores_week_points_positive CHECK (week_points >= 0),
				week_cost INTEGER NOT NULL DEFAULT 0 CONSTRAINT scores_week_cost_positive CHECK (week_cost >= 0),
				overall_points INTEGER NOT NULL DEFAULT 0 CONSTRAINT scores_overall_points_positive CHECK (overall_points >= 0)
			)`, id),
			`CREATE UNIQUE INDEX IF NOT EXISTS scores_player_gameweek_idx ON scores (player_id, gameweek)`,
		)
	}, func(ctx context.Context, db *bun.DB) error {
		return exec(ctx, db,
			`DROP TABLE IF EXISTS scores`,
			`DROP TABLE IF EXISTS players`,
		)
	})
}
