// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
)

// Gameweek bounds for a season.
const (
	MinGameweek = 1
	MaxGameweek = 38
)

// ErrOutOfRange is returned by the Validate helpers.
var ErrOutOfRange = errors.New("value out of range")

// Player is a league member. Team is a free-text label.
type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Team string `json:"team"`
}

// Score is one player's entry for one gameweek. OverallPoints is derived:
// the running sum of WeekPoints-WeekCost over the player's gameweeks up to
// and including this one.
type Score struct {
	ID            int64 `json:"id"`
	PlayerID      int64 `json:"player_id"`
	Gameweek      int   `json:"gameweek"`
	WeekPoints    int   `json:"week_points"`
	WeekCost      int   `json:"week_cost"`
	OverallPoints int   `json:"overall_points"`
}

// Net is the score's contribution to the running total.
func (s Score) Net() int {
	return s.WeekPoints - s.WeekCost
}

// ScoreFilter narrows a score listing; nil fields match everything.
type ScoreFilter struct {
	PlayerID *int64
	Gameweek *int
}

// BulkEntry is one player's line in a bulk gameweek upload.
type BulkEntry struct {
	PlayerID   int64
	WeekPoints int
	WeekCost   int
}

// ScoreRow is a score joined with its player, used for dashboard aggregation.
type ScoreRow struct {
	Score
	PlayerName string `json:"player_name"`
	Team       string `json:"team"`
}

// ValidateGameweek checks gw against [MinGameweek, maxGameweek].
func ValidateGameweek(gw, maxGameweek int) error {
	if maxGameweek <= 0 {
		maxGameweek = MaxGameweek
	}
	if gw < MinGameweek || gw > maxGameweek {
		return fmt.Errorf("%w: gameweek %d not in [%d, %d]", ErrOutOfRange, gw, MinGameweek, maxGameweek)
	}
	return nil
}

// ValidateScore checks the user-supplied fields of a score entry.
func ValidateScore(gw, points, cost, maxGameweek int) error {
	if err := ValidateGameweek(gw, maxGameweek); err != nil {
		return err
	}
	if points < 0 {
		return fmt.Errorf("%w: week_points %d is negative", ErrOutOfRange, points)
	}
	if cost < 0 {
		return fmt.Errorf("%w: week_cost %d is negative", ErrOutOfRange, cost)
	}
	return nil
}
