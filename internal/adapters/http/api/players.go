package api

import (
	"net/http"

	"github.com/okian/gameweek/internal/domain/types"
)

func playerInput(r *http.Request) types.PlayerInput {
	return types.PlayerInput{
		Name: r.PostFormValue("name"),
		Team: r.PostFormValue("team"),
	}
}

// handleCreatePlayer handles POST /players.
func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_player"
	if err := parseForm(r, op); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.deps.CreatePlayer(r.Context(), playerInput(r)); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	http.Redirect(w, r, "/players", http.StatusFound)
}

// handleUpdatePlayer handles POST /players/{id}.
func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_player"
	id, err := pathID(r, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := parseForm(r, op); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.deps.UpdatePlayer(r.Context(), id, playerInput(r)); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	http.Redirect(w, r, "/players", http.StatusFound)
}

// handleDeletePlayer handles DELETE /players/{id} and its form variants.
func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_player"
	id, err := pathID(r, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.DeletePlayer(r.Context(), id); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	http.Redirect(w, r, "/players", http.StatusFound)
}

// handleRecomputePlayer handles POST /players/{id}/recompute.
func (s *Server) handleRecomputePlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.recompute_player"
	id, err := pathID(r, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.deps.RecomputePlayer(r.Context(), id); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	http.Redirect(w, r, "/players", http.StatusFound)
}
