// Package types contains request and response shapes shared by the service
// and its HTTP adapters.
package types

import (
	"strconv"
	"strings"

	"github.com/okian/gameweek/internal/domain/model"
)

// PlayerInput carries the editable fields of a player.
type PlayerInput struct {
	Name string `json:"name"`
	Team string `json:"team"`
}

// Normalize trims surrounding whitespace.
func (in PlayerInput) Normalize() PlayerInput {
	return PlayerInput{Name: strings.TrimSpace(in.Name), Team: strings.TrimSpace(in.Team)}
}

// ScoreInput carries the user-supplied fields of a score. OverallPoints is
// always derived.
type ScoreInput struct {
	PlayerID   int64 `json:"player_id"`
	Gameweek   int   `json:"gameweek"`
	WeekPoints int   `json:"week_points"`
	WeekCost   int   `json:"week_cost"`
}

// ScoresPage is the data behind the scores listing.
type ScoresPage struct {
	Scores       []model.Score  `json:"scores"`
	Players      []model.Player `json:"players"`
	MaxGameweek  int            `json:"max_gameweek"`
	NextGameweek int            `json:"next_gameweek"`
	PlayerID     *int64         `json:"player_id,omitempty"`
	Gameweek     *int           `json:"gameweek,omitempty"`
}

// BulkResult reports what a bulk gameweek upload did.
type BulkResult struct {
	Gameweek int `json:"gameweek"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// RecomputeResult reports a full rebuild of one player's totals.
type RecomputeResult struct {
	PlayerID  int64 `json:"player_id"`
	Scores    int   `json:"scores"`
	Rewritten int   `json:"rewritten"`
}

// OptionalInt parses a filter value. Blank or non-integer input yields nil.
func OptionalInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

// OptionalInt64 is OptionalInt for ids.
func OptionalInt64(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
