// Package scoring maintains the running-total invariant over a player's
// gameweek history: a score's OverallPoints equals the sum of
// WeekPoints-WeekCost over every score of the same player whose gameweek is
// at or before its own.
//
// Functions here are pure. Callers load the player's history, apply the
// result, and persist it atomically.
package scoring

import (
	"slices"

	"github.com/okian/gameweek/internal/domain/model"
)

// Total sums the net points of history entries with gameweek <= upTo.
func Total(history []model.Score, upTo int) int {
	total := 0
	for _, s := range history {
		if s.Gameweek <= upTo {
			total += s.Net()
		}
	}
	return total
}

// Seed returns the initial OverallPoints for a new or edited entry at
// gameweek: the net of every other entry in history up to that gameweek plus
// the entry's own net. The entry with excludeID is ignored (use 0 for a new
// entry).
func Seed(history []model.Score, gameweek, points, cost int, excludeID int64) int {
	total := points - cost
	for _, s := range history {
		if excludeID != 0 && s.ID == excludeID {
			continue
		}
		if s.Gameweek <= gameweek {
			total += s.Net()
		}
	}
	return total
}

// Recalculate applies an edit to a player's history. history holds every
// score currently stored for edited.PlayerID and may still contain the
// edited record with its pre-edit values; it is replaced by edited.
//
// It returns edited with OverallPoints set and every other score of the
// player after the earlier of its old and new gameweek, ascending by
// gameweek, each with OverallPoints recomputed over the post-edit history.
// A score moved to a later gameweek therefore also rewrites the gameweeks it
// left. Scores before both positions are not touched.
func Recalculate(history []model.Score, edited model.Score) (model.Score, []model.Score) {
	edited.OverallPoints = Seed(history, edited.Gameweek, edited.WeekPoints, edited.WeekCost, edited.ID)

	from := edited.Gameweek
	effective := make([]model.Score, 0, len(history)+1)
	for _, s := range history {
		if s.ID != edited.ID {
			effective = append(effective, s)
			continue
		}
		from = min(from, s.Gameweek)
	}
	effective = append(effective, edited)

	var later []model.Score
	for _, s := range effective {
		if s.ID != edited.ID && s.Gameweek > from {
			later = append(later, s)
		}
	}
	sortByGameweek(later)

	for i := range later {
		later[i].OverallPoints = Total(effective, later[i].Gameweek)
	}
	return edited, later
}

// Rebuild recomputes OverallPoints for a player's whole history and returns
// it ordered by gameweek.
func Rebuild(history []model.Score) []model.Score {
	out := slices.Clone(history)
	sortByGameweek(out)
	for i := range out {
		out[i].OverallPoints = Total(out, out[i].Gameweek)
	}
	return out
}

// Verify returns the ids of scores whose OverallPoints disagree with their
// history. An empty result means the invariant holds.
func Verify(history []model.Score) []int64 {
	var broken []int64
	for _, s := range history {
		if s.OverallPoints != Total(history, s.Gameweek) {
			broken = append(broken, s.ID)
		}
	}
	return broken
}

func sortByGameweek(scores []model.Score) {
	slices.SortStableFunc(scores, func(a, b model.Score) int {
		if a.Gameweek != b.Gameweek {
			return a.Gameweek - b.Gameweek
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
