package api

import (
	"fmt"
	"net/http"

	"github.com/okian/gameweek/internal/domain/model"
	"github.com/okian/gameweek/internal/domain/types"
	"github.com/okian/gameweek/pkg/logger"
	"github.com/okian/gameweek/pkg/metrics"
)

func scoreInput(r *http.Request, op string) (types.ScoreInput, error) {
	var in types.ScoreInput
	pid, err := formInt(r, op, "player_id")
	if err != nil {
		return in, err
	}
	in.PlayerID = int64(pid)
	if in.Gameweek, err = formInt(r, op, "gameweek"); err != nil {
		return in, err
	}
	if in.WeekPoints, err = formInt(r, op, "week_points"); err != nil {
		return in, err
	}
	if in.WeekCost, err = formInt(r, op, "week_cost"); err != nil {
		return in, err
	}
	return in, nil
}

// handleBulkScores handles POST /scores: one gameweek for every listed
// player. A player whose points or cost field is missing or blank is
// skipped.
func (s *Server) handleBulkScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.bulk_scores"
	if err := parseForm(r, op); err != nil {
		s.fail(w, r, err)
		return
	}
	gameweek, err := formInt(r, op, "gameweek")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	players, err := s.deps.ListPlayers(r.Context())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}

	entries := make([]model.BulkEntry, 0, len(players))
	skipped := 0
	for _, p := range players {
		points, hasPoints, err := formOptionalInt(r, op, fmt.Sprintf("week_points_%d", p.ID))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		cost, hasCost, err := formOptionalInt(r, op, fmt.Sprintf("week_cost_%d", p.ID))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if !hasPoints || !hasCost {
			skipped++
			continue
		}
		entries = append(entries, model.BulkEntry{PlayerID: p.ID, WeekPoints: points, WeekCost: cost})
	}

	res, err := s.deps.BulkUpsert(r.Context(), gameweek, entries)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	res.Skipped = skipped
	for range skipped {
		metrics.RecordBulkEntry("skipped")
	}
	s.logger.Debug(r.Context(), "bulk form processed",
		logger.Int("gameweek", res.Gameweek),
		logger.Int("created", res.Created),
		logger.Int("updated", res.Updated),
		logger.Int("skipped", res.Skipped),
	)
	http.Redirect(w, r, "/scores", http.StatusFound)
}

// handleCreateScore handles POST /scores/new.
func (s *Server) handleCreateScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_score"
	if err := parseForm(r, op); err != nil {
		s.fail(w, r, err)
		return
	}
	in, err := scoreInput(r, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.deps.CreateScore(r.Context(), in); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	http.Redirect(w, r, "/scores", http.StatusFound)
}

// handleUpdateScore handles POST /scores/{id}.
func (s *Server) handleUpdateScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_score"
	id, err := pathID(r, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := parseForm(r, op); err != nil {
		s.fail(w, r, err)
		return
	}
	in, err := scoreInput(r, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.deps.UpdateScore(r.Context(), id, in); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	http.Redirect(w, r, "/scores", http.StatusFound)
}

// handleDeleteScore handles DELETE /scores/{id} and its form variants.
func (s *Server) handleDeleteScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_score"
	id, err := pathID(r, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.DeleteScore(r.Context(), id); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	http.Redirect(w, r, "/scores", http.StatusFound)
}
