package api

import (
	"net/http"

	"github.com/okian/gameweek/internal/domain/model"
)

type playersResponse struct {
	Players []model.Player `json:"players"`
}

type scoresResponse struct {
	Scores []model.Score `json:"scores"`
}

// handleAPIPlayers handles GET /api/players.
func (s *Server) handleAPIPlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_players"
	players, err := s.deps.ListPlayers(r.Context())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if players == nil {
		players = []model.Player{}
	}
	writeJSON(w, http.StatusOK, playersResponse{Players: players})
}

// handleAPIScores handles GET /api/scores with the same filters as the page.
func (s *Server) handleAPIScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_scores"
	scores, err := s.deps.ListScores(r.Context(), scoreFilter(r))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if scores == nil {
		scores = []model.Score{}
	}
	writeJSON(w, http.StatusOK, scoresResponse{Scores: scores})
}

// handleAPIDashboard handles GET /api/dashboard.
func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard"
	d, err := s.deps.Dashboard(r.Context())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, d)
}
