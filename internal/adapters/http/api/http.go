// Package api declares the HTTP routes of the tracker: HTML pages, form
// mutations behind basic auth, the JSON read API, chart images and the
// spreadsheet export.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/gameweek/internal/domain/dashboard"
	"github.com/okian/gameweek/internal/domain/model"
	"github.com/okian/gameweek/internal/domain/types"
	"github.com/okian/gameweek/pkg/logger"
	"golang.org/x/time/rate"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ListPlayers(ctx context.Context) ([]model.Player, error)
	GetPlayer(ctx context.Context, id int64) (model.Player, error)
	CreatePlayer(ctx context.Context, in types.PlayerInput) (model.Player, error)
	UpdatePlayer(ctx context.Context, id int64, in types.PlayerInput) (model.Player, error)
	DeletePlayer(ctx context.Context, id int64) error
	RecomputePlayer(ctx context.Context, playerID int64) (types.RecomputeResult, error)

	ListScores(ctx context.Context, filter model.ScoreFilter) ([]model.Score, error)
	CreateScore(ctx context.Context, in types.ScoreInput) (model.Score, error)
	UpdateScore(ctx context.Context, id int64, in types.ScoreInput) (model.Score, error)
	DeleteScore(ctx context.Context, id int64) error
	BulkUpsert(ctx context.Context, gameweek int, entries []model.BulkEntry) (types.BulkResult, error)

	Dashboard(ctx context.Context) (dashboard.Dashboard, error)
	ScoreRows(ctx context.Context) ([]model.ScoreRow, error)
	ScoresPage(ctx context.Context, filter model.ScoreFilter) (types.ScoresPage, error)
	MaxGameweek() int

	StatsProvider
}

// Server wires HTTP routes for the tracker.
type Server struct {
	deps    Dependencies
	auth    *authenticator
	pages   *pageRenderer
	health  *HealthHandler
	stats   *StatsHandler
	logger  logger.Logger
	mounted []func(chi.Router)
}

// Option configures a Server.
type Option func(*Server)

// WithCredentials sets the admin username and password.
func WithCredentials(username, password string) Option {
	return func(s *Server) {
		s.auth.username = username
		s.auth.password = password
	}
}

// WithAuthRateLimit limits failed credential checks per client IP.
func WithAuthRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 && burst > 0 {
			s.auth.limiter = NewIPRateLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMount registers extra routes (static assets, API docs) on the router.
func WithMount(fn func(chi.Router)) Option {
	return func(s *Server) {
		if fn != nil {
			s.mounted = append(s.mounted, fn)
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps: deps,
		auth: &authenticator{
			username: "admin",
			password: "password",
			limiter:  NewIPRateLimiter(1, 5),
		},
		pages:  newPageRenderer(),
		health: NewHealthHandler(),
		stats:  NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("http")
	}
	return s
}

// Router builds the chi router serving every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.health.HandleHealth)
	r.Get("/metrics", s.health.HandleMetrics)
	r.Get("/stats", s.stats.HandleStats)

	r.Get("/", s.handleDashboardPage)
	r.Get("/players", s.handlePlayersPage)
	r.Get("/scores", s.handleScoresPage)
	r.Get("/logout-clear", handleLogoutClear)

	r.Route("/api", func(r chi.Router) {
		r.Get("/players", s.handleAPIPlayers)
		r.Get("/scores", s.handleAPIScores)
		r.Get("/dashboard", s.handleAPIDashboard)
	})
	r.Get("/charts/{name}.png", s.handleChart)
	r.Get("/scores/export.xlsx", s.handleExport)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.require)

		r.Get("/login", handleLogin)

		r.Post("/players", s.handleCreatePlayer)
		r.Post("/players/{id}", s.handleUpdatePlayer)
		r.Delete("/players/{id}", s.handleDeletePlayer)
		r.Delete("/players/{id}/delete", s.handleDeletePlayer)
		r.Post("/players/{id}/delete", s.handleDeletePlayer)
		r.Post("/players/{id}/recompute", s.handleRecomputePlayer)

		r.Post("/scores", s.handleBulkScores)
		r.Post("/scores/new", s.handleCreateScore)
		r.Post("/scores/{id}", s.handleUpdateScore)
		r.Delete("/scores/{id}", s.handleDeleteScore)
		r.Delete("/scores/{id}/delete", s.handleDeleteScore)
		r.Post("/scores/{id}/delete", s.handleDeleteScore)
	})

	for _, mount := range s.mounted {
		mount(r)
	}
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := statusFor(err); status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", RequestIDFrom(r.Context())),
			logger.Error(err),
		)
	}
	writeError(w, err)
}
