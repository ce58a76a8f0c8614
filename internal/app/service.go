// Package service provides the business operations behind the HTTP and CLI
// adapters: player and score CRUD, the cumulative recalculation cascade and
// dashboard aggregation.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/gameweek/internal/adapters/repository"
	"github.com/okian/gameweek/internal/domain/dashboard"
	"github.com/okian/gameweek/internal/domain/model"
	"github.com/okian/gameweek/internal/domain/scoring"
	"github.com/okian/gameweek/internal/domain/types"
	"github.com/okian/gameweek/pkg/logger"
	"github.com/okian/gameweek/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrValidation marks input the service refuses before touching the store.
var ErrValidation = errors.New("validation failed")

const tracerName = "github.com/okian/gameweek/internal/app"

// Service implements the dependencies of the web and CLI adapters.
type Service struct {
	// mu serializes mutations so each recalculation reads a stable history.
	mu sync.Mutex

	store       repository.Store
	maxGameweek int

	stateMu sync.RWMutex
	started bool

	logger logger.Logger
	tracer trace.Tracer
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxGameweek lowers the last accepted gameweek. Values outside
// [1, model.MaxGameweek] are ignored.
func WithMaxGameweek(gw int) Option {
	return func(s *Service) {
		if gw >= model.MinGameweek && gw <= model.MaxGameweek {
			s.maxGameweek = gw
		}
	}
}

// WithTracer replaces the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New constructs a Service over store. The logger package must be
// initialized unless WithLogger is given.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		maxGameweek: model.MaxGameweek,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	return s
}

// Start verifies the stored totals and publishes the initial gauges.
func (s *Service) Start(ctx context.Context) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting gameweek service...", logger.Int("max_gameweek", s.maxGameweek))

	broken, err := s.Verify(ctx)
	if err != nil {
		return fmt.Errorf("verify totals: %w", err)
	}
	n := countBroken(broken)
	if n > 0 {
		s.logger.Warn(ctx, "stored totals are inconsistent",
			logger.Int("scores", n),
			logger.Int("players", len(broken)),
		)
	}
	s.refreshTotals(ctx)

	s.started = true
	s.logger.Info(ctx, "gameweek service started", logger.Bool("consistent", n == 0))
	return nil
}

// Stop closes the store. It is safe to call more than once.
func (s *Service) Stop() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping gameweek service...")
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "failed to close store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "gameweek service stopped")
}

// MaxGameweek returns the last accepted gameweek.
func (s *Service) MaxGameweek() int {
	return s.maxGameweek
}

// ---- players ----

func (s *Service) ListPlayers(ctx context.Context) ([]model.Player, error) {
	ctx, end := s.begin(ctx, "ListPlayers")
	players, err := s.store.ListPlayers(ctx)
	return players, end(err)
}

func (s *Service) GetPlayer(ctx context.Context, id int64) (model.Player, error) {
	ctx, end := s.begin(ctx, "GetPlayer", attribute.Int64("player_id", id))
	p, err := s.store.GetPlayer(ctx, id)
	return p, end(err)
}

func (s *Service) CreatePlayer(ctx context.Context, in types.PlayerInput) (model.Player, error) {
	ctx, end := s.begin(ctx, "CreatePlayer")
	in = in.Normalize()
	if err := validatePlayer(in); err != nil {
		return model.Player{}, end(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.CreatePlayer(ctx, model.Player{Name: in.Name, Team: in.Team})
	if err != nil {
		return model.Player{}, end(err)
	}
	metrics.RecordPlayerMutation("create")
	s.logger.Info(ctx, "player created", logger.Int64("player_id", p.ID), logger.String("team", p.Team))
	s.refreshTotals(ctx)
	return p, end(nil)
}

func (s *Service) UpdatePlayer(ctx context.Context, id int64, in types.PlayerInput) (model.Player, error) {
	ctx, end := s.begin(ctx, "UpdatePlayer", attribute.Int64("player_id", id))
	in = in.Normalize()
	if err := validatePlayer(in); err != nil {
		return model.Player{}, end(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.UpdatePlayer(ctx, model.Player{ID: id, Name: in.Name, Team: in.Team})
	if err != nil {
		return model.Player{}, end(err)
	}
	metrics.RecordPlayerMutation("update")
	s.logger.Info(ctx, "player updated", logger.Int64("player_id", id))
	return p, end(nil)
}

// DeletePlayer removes the player together with its scores.
func (s *Service) DeletePlayer(ctx context.Context, id int64) error {
	ctx, end := s.begin(ctx, "DeletePlayer", attribute.Int64("player_id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.DeletePlayer(ctx, id)
	})
	if err != nil {
		return end(err)
	}
	metrics.RecordPlayerMutation("delete")
	s.logger.Info(ctx, "player deleted", logger.Int64("player_id", id))
	s.refreshTotals(ctx)
	return end(nil)
}

// ---- scores ----

func (s *Service) ListScores(ctx context.Context, filter model.ScoreFilter) ([]model.Score, error) {
	ctx, end := s.begin(ctx, "ListScores")
	scores, err := s.store.ListScores(ctx, filter)
	return scores, end(err)
}

func (s *Service) GetScore(ctx context.Context, id int64) (model.Score, error) {
	ctx, end := s.begin(ctx, "GetScore", attribute.Int64("score_id", id))
	sc, err := s.store.GetScore(ctx, id)
	return sc, end(err)
}

// CreateScore inserts a single score. Its total is seeded from the player's
// history and every later gameweek of that player is recomputed, all in one
// transaction.
func (s *Service) CreateScore(ctx context.Context, in types.ScoreInput) (model.Score, error) {
	ctx, end := s.begin(ctx, "CreateScore",
		attribute.Int64("player_id", in.PlayerID),
		attribute.Int("gameweek", in.Gameweek),
	)
	if err := s.validateScore(in); err != nil {
		return model.Score{}, end(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	var created model.Score
	var cascade int
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.GetPlayer(ctx, in.PlayerID); err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, in.PlayerID, in.Gameweek, 0); err != nil {
			return err
		}
		history, err := tx.PlayerHistory(ctx, in.PlayerID)
		if err != nil {
			return err
		}
		fresh, later := scoring.Recalculate(history, model.Score{
			PlayerID:   in.PlayerID,
			Gameweek:   in.Gameweek,
			WeekPoints: in.WeekPoints,
			WeekCost:   in.WeekCost,
		})
		if err := checkTotals(fresh, later); err != nil {
			return err
		}
		if created, err = tx.CreateScore(ctx, fresh); err != nil {
			return err
		}
		cascade = len(later)
		return tx.SaveScores(ctx, later...)
	})
	if err != nil {
		return model.Score{}, end(err)
	}

	metrics.RecordScoreMutation("create")
	metrics.RecordRecalculation(cascade, sinceMs(start))
	s.logger.Info(ctx, "score created",
		logger.Int64("score_id", created.ID),
		logger.Int64("player_id", created.PlayerID),
		logger.Int("gameweek", created.Gameweek),
		logger.Int("overall_points", created.OverallPoints),
		logger.Int("cascade", cascade),
	)
	s.refreshTotals(ctx)
	return created, end(nil)
}

// UpdateScore applies an edit and recomputes the edited score and every
// gameweek of its (possibly new) player after the earlier of its old and new
// position, in one transaction. When the player changes, the previous
// player's later totals are left as they are; RecomputePlayer repairs them.
func (s *Service) UpdateScore(ctx context.Context, id int64, in types.ScoreInput) (model.Score, error) {
	ctx, end := s.begin(ctx, "UpdateScore",
		attribute.Int64("score_id", id),
		attribute.Int64("player_id", in.PlayerID),
		attribute.Int("gameweek", in.Gameweek),
	)
	if err := s.validateScore(in); err != nil {
		return model.Score{}, end(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	var edited model.Score
	var later []model.Score
	var previousPlayer int64
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.GetScore(ctx, id)
		if err != nil {
			return err
		}
		previousPlayer = current.PlayerID
		if _, err := tx.GetPlayer(ctx, in.PlayerID); err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, in.PlayerID, in.Gameweek, id); err != nil {
			return err
		}
		history, err := tx.PlayerHistory(ctx, in.PlayerID)
		if err != nil {
			return err
		}

		current.PlayerID = in.PlayerID
		current.Gameweek = in.Gameweek
		current.WeekPoints = in.WeekPoints
		current.WeekCost = in.WeekCost
		edited, later = scoring.Recalculate(history, current)
		if err := checkTotals(edited, later); err != nil {
			return err
		}
		return tx.SaveScores(ctx, append([]model.Score{edited}, later...)...)
	})
	if err != nil {
		return model.Score{}, end(err)
	}

	metrics.RecordScoreMutation("update")
	metrics.RecordRecalculation(len(later), sinceMs(start))
	s.refreshTotals(ctx)
	fields := []logger.Field{
		logger.Int64("score_id", id),
		logger.Int64("player_id", edited.PlayerID),
		logger.Int("gameweek", edited.Gameweek),
		logger.Int("overall_points", edited.OverallPoints),
		logger.Int("cascade", len(later)),
	}
	if previousPlayer != edited.PlayerID {
		fields = append(fields, logger.Int64("previous_player_id", previousPlayer))
		s.logger.Warn(ctx, "score moved to another player; previous player's later totals not recomputed", fields...)
	} else {
		s.logger.Info(ctx, "score updated", fields...)
	}
	return edited, end(nil)
}

// DeleteScore removes one score. Later totals of the same player are not
// recomputed.
func (s *Service) DeleteScore(ctx context.Context, id int64) error {
	ctx, end := s.begin(ctx, "DeleteScore", attribute.Int64("score_id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.DeleteScore(ctx, id)
	})
	if err != nil {
		return end(err)
	}
	metrics.RecordScoreMutation("delete")
	s.logger.Info(ctx, "score deleted", logger.Int64("score_id", id))
	s.refreshTotals(ctx)
	return end(nil)
}

// BulkUpsert writes one gameweek for many players in a single transaction.
//
// An existing (player, gameweek) score has only its points and cost
// overwritten; its total is kept. A new score is seeded from the player's
// already stored scores up to the gameweek. Entries in the same batch never
// see each other and no later gameweek is recomputed.
func (s *Service) BulkUpsert(ctx context.Context, gameweek int, entries []model.BulkEntry) (types.BulkResult, error) {
	ctx, end := s.begin(ctx, "BulkUpsert",
		attribute.Int("gameweek", gameweek),
		attribute.Int("entries", len(entries)),
	)
	res := types.BulkResult{Gameweek: gameweek}
	if err := model.ValidateGameweek(gameweek, s.maxGameweek); err != nil {
		return res, end(fmt.Errorf("%w: %w", ErrValidation, err))
	}
	for _, e := range entries {
		if err := model.ValidateScore(gameweek, e.WeekPoints, e.WeekCost, s.maxGameweek); err != nil {
			return res, end(fmt.Errorf("%w: player %d: %w", ErrValidation, e.PlayerID, err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		// Seeds are computed from what was stored before this batch.
		seeds := make(map[int64]int, len(entries))
		for _, e := range entries {
			if _, err := tx.GetPlayer(ctx, e.PlayerID); err != nil {
				return err
			}
			history, err := tx.PlayerHistory(ctx, e.PlayerID)
			if err != nil {
				return err
			}
			seeds[e.PlayerID] = scoring.Total(history, gameweek)
		}

		for _, e := range entries {
			existing, err := tx.FindScore(ctx, e.PlayerID, gameweek)
			switch {
			case err == nil:
				existing.WeekPoints = e.WeekPoints
				existing.WeekCost = e.WeekCost
				if err := tx.SaveScores(ctx, existing); err != nil {
					return err
				}
				res.Updated++
				continue
			case !errors.Is(err, repository.ErrNotFound):
				return err
			}

			fresh := model.Score{
				PlayerID:      e.PlayerID,
				Gameweek:      gameweek,
				WeekPoints:    e.WeekPoints,
				WeekCost:      e.WeekCost,
				OverallPoints: seeds[e.PlayerID] + e.WeekPoints - e.WeekCost,
			}
			if err := checkTotals(fresh, nil); err != nil {
				return fmt.Errorf("player %d: %w", e.PlayerID, err)
			}
			if _, err := tx.CreateScore(ctx, fresh); err != nil {
				return err
			}
			res.Created++
		}
		return nil
	})
	if err != nil {
		return types.BulkResult{Gameweek: gameweek}, end(err)
	}

	for range res.Created {
		metrics.RecordBulkEntry("created")
	}
	for range res.Updated {
		metrics.RecordBulkEntry("updated")
	}
	s.logger.Info(ctx, "bulk gameweek stored",
		logger.Int("gameweek", gameweek),
		logger.Int("created", res.Created),
		logger.Int("updated", res.Updated),
	)
	s.refreshTotals(ctx)
	return res, end(nil)
}

// RecomputePlayer rebuilds every total of one player from scratch.
func (s *Service) RecomputePlayer(ctx context.Context, playerID int64) (types.RecomputeResult, error) {
	ctx, end := s.begin(ctx, "RecomputePlayer", attribute.Int64("player_id", playerID))
	res := types.RecomputeResult{PlayerID: playerID}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.GetPlayer(ctx, playerID); err != nil {
			return err
		}
		history, err := tx.PlayerHistory(ctx, playerID)
		if err != nil {
			return err
		}
		byID := make(map[int64]int, len(history))
		for _, sc := range history {
			byID[sc.ID] = sc.OverallPoints
		}

		rebuilt := scoring.Rebuild(history)
		changed := make([]model.Score, 0, len(rebuilt))
		for _, sc := range rebuilt {
			if byID[sc.ID] != sc.OverallPoints {
				changed = append(changed, sc)
			}
		}
		if len(rebuilt) > 0 {
			if err := checkTotals(rebuilt[0], rebuilt[1:]); err != nil {
				return err
			}
		}
		res.Scores = len(rebuilt)
		res.Rewritten = len(changed)
		return tx.SaveScores(ctx, changed...)
	})
	if err != nil {
		return types.RecomputeResult{PlayerID: playerID}, end(err)
	}

	metrics.RecordRecalculation(res.Rewritten, sinceMs(start))
	s.logger.Info(ctx, "player totals recomputed",
		logger.Int64("player_id", playerID),
		logger.Int("scores", res.Scores),
		logger.Int("rewritten", res.Rewritten),
	)
	return res, end(nil)
}

// Verify returns, per player, the ids of scores whose totals disagree with
// their history.
func (s *Service) Verify(ctx context.Context) (map[int64][]int64, error) {
	ctx, end := s.begin(ctx, "Verify")
	all, err := s.store.ListScores(ctx, model.ScoreFilter{})
	if err != nil {
		return nil, end(err)
	}
	byPlayer := map[int64][]model.Score{}
	for _, sc := range all {
		byPlayer[sc.PlayerID] = append(byPlayer[sc.PlayerID], sc)
	}
	broken := map[int64][]int64{}
	for pid, history := range byPlayer {
		if ids := scoring.Verify(history); len(ids) > 0 {
			broken[pid] = ids
		}
	}
	metrics.UpdateInvariantBreaks(countBroken(broken))
	return broken, end(nil)
}

// ---- read models ----

// Dashboard aggregates all scores into the team charts.
func (s *Service) Dashboard(ctx context.Context) (dashboard.Dashboard, error) {
	ctx, end := s.begin(ctx, "Dashboard")
	rows, err := s.store.ListScoreRows(ctx)
	if err != nil {
		return dashboard.Dashboard{}, end(err)
	}
	return dashboard.Build(rows), end(nil)
}

// ScoreRows returns every score joined with its player.
func (s *Service) ScoreRows(ctx context.Context) ([]model.ScoreRow, error) {
	ctx, end := s.begin(ctx, "ScoreRows")
	rows, err := s.store.ListScoreRows(ctx)
	return rows, end(err)
}

// ScoresPage lists filtered scores with the players and the highest stored
// gameweek across all scores.
func (s *Service) ScoresPage(ctx context.Context, filter model.ScoreFilter) (types.ScoresPage, error) {
	ctx, end := s.begin(ctx, "ScoresPage")
	scores, err := s.store.ListScores(ctx, filter)
	if err != nil {
		return types.ScoresPage{}, end(err)
	}
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return types.ScoresPage{}, end(err)
	}
	maxGW, err := s.store.MaxGameweek(ctx)
	if err != nil {
		return types.ScoresPage{}, end(err)
	}
	return types.ScoresPage{
		Scores:       scores,
		Players:      players,
		MaxGameweek:  maxGW,
		NextGameweek: maxGW + 1,
		PlayerID:     filter.PlayerID,
		Gameweek:     filter.Gameweek,
	}, end(nil)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.stateMu.RLock()
	started := s.started
	s.stateMu.RUnlock()

	stats := map[string]any{
		"started":      started,
		"max_gameweek": s.maxGameweek,
	}
	players, scores, latest, err := s.totals(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to read totals", logger.Error(err))
		return stats
	}
	stats["players"] = players
	stats["scores"] = scores
	stats["latest_gameweek"] = latest
	metrics.UpdateTotals(players, scores, latest)
	return stats
}

// ---- helpers ----

// begin opens a span for op and returns a finisher that records err on the
// span, logs and counts it, and lifts constraint violations to ErrValidation.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error) error) {
	ctx, span := s.tracer.Start(ctx, "Service."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) error {
		defer span.End()
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrConstraint) && !errors.Is(err, ErrValidation) {
			err = fmt.Errorf("%w: %w", ErrValidation, err)
		}
		kind := ErrorKind(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		metrics.RecordErrorByComponent("service", kind)
		if kind == "internal" {
			s.logger.Error(ctx, op+" failed", logger.Error(err))
		} else {
			s.logger.Debug(ctx, op+" rejected", logger.String("kind", kind), logger.Error(err))
		}
		return err
	}
}

// ErrorKind classifies err for metrics and transport mapping.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrDuplicateScore):
		return "duplicate"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

func (s *Service) validateScore(in types.ScoreInput) error {
	if in.PlayerID <= 0 {
		return fmt.Errorf("%w: player_id must be positive", ErrValidation)
	}
	if err := model.ValidateScore(in.Gameweek, in.WeekPoints, in.WeekCost, s.maxGameweek); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

func validatePlayer(in types.PlayerInput) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Team == "" {
		return fmt.Errorf("%w: team is required", ErrValidation)
	}
	return nil
}

// ensureFree fails with ErrDuplicateScore when another score already holds
// (playerID, gameweek).
func ensureFree(ctx context.Context, tx repository.Store, playerID int64, gameweek int, selfID int64) error {
	existing, err := tx.FindScore(ctx, playerID, gameweek)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return fmt.Errorf("%w: player %d gameweek %d is score %d",
			repository.ErrDuplicateScore, playerID, gameweek, existing.ID)
	}
	return nil
}

// checkTotals rejects recalculations that would store a negative total.
func checkTotals(first model.Score, rest []model.Score) error {
	for _, sc := range append([]model.Score{first}, rest...) {
		if sc.OverallPoints < 0 {
			return fmt.Errorf("%w: overall points for gameweek %d would be %d",
				ErrValidation, sc.Gameweek, sc.OverallPoints)
		}
	}
	return nil
}

func (s *Service) totals(ctx context.Context) (players, scores, latest int, err error) {
	players, scores, err = s.store.Counts(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	latest, err = s.store.MaxGameweek(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	return players, scores, latest, nil
}

func (s *Service) refreshTotals(ctx context.Context) {
	players, scores, latest, err := s.totals(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to refresh totals", logger.Error(err))
		return
	}
	metrics.UpdateTotals(players, scores, latest)
}

func countBroken(broken map[int64][]int64) int {
	n := 0
	for _, ids := range broken {
		n += len(ids)
	}
	return n
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
