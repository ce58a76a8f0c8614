// Package repository persists players and their gameweek scores.
package repository

import (
	"context"

	"github.com/okian/gameweek/internal/domain/model"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store provides read/write access to players and scores.
//
// Mutating calls that must be applied together are run through InTx, which
// hands the callback a Store bound to a single transaction.
type Store interface {
	ListPlayers(ctx context.Context) ([]model.Player, error)
	// GetPlayer returns ErrNotFound if the id is unknown.
	GetPlayer(ctx context.Context, id int64) (model.Player, error)
	CreatePlayer(ctx context.Context, p model.Player) (model.Player, error)
	UpdatePlayer(ctx context.Context, p model.Player) (model.Player, error)
	// DeletePlayer removes the player and all of its scores.
	DeletePlayer(ctx context.Context, id int64) error

	// ListScores returns scores matching every set field of filter, in
	// insertion order.
	ListScores(ctx context.Context, filter model.ScoreFilter) ([]model.Score, error)
	GetScore(ctx context.Context, id int64) (model.Score, error)
	// FindScore looks a score up by its (player, gameweek) key.
	FindScore(ctx context.Context, playerID int64, gameweek int) (model.Score, error)
	// PlayerHistory returns every score of a player ordered by gameweek.
	PlayerHistory(ctx context.Context, playerID int64) ([]model.Score, error)
	// CreateScore inserts a score as given, OverallPoints included.
	// Returns ErrDuplicateScore if the (player, gameweek) pair is taken.
	CreateScore(ctx context.Context, s model.Score) (model.Score, error)
	// SaveScores writes every field of existing scores.
	SaveScores(ctx context.Context, scores ...model.Score) error
	// DeleteScore removes exactly one score. Other scores are not touched.
	DeleteScore(ctx context.Context, id int64) error

	// ListScoreRows joins scores with their players ordered by gameweek,
	// team and player name.
	ListScoreRows(ctx context.Context) ([]model.ScoreRow, error)
	// MaxGameweek returns the highest recorded gameweek or 0 when empty.
	MaxGameweek(ctx context.Context) (int, error)
	Counts(ctx context.Context) (players, scores int, err error)

	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Close() error
}
