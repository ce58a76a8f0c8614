package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/okian/gameweek/internal/adapters/repository/migrations"
	"github.com/okian/gameweek/internal/domain/model"
	"github.com/okian/gameweek/pkg/metrics"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// BunStore implements Store on top of bun. A BunStore returned by Open owns
// the connection pool; the one handed to an InTx callback is bound to that
// transaction and must not be retained.
type BunStore struct {
	db   bun.IDB
	root *bun.DB
	inTx bool
}

var _ Store = (*BunStore)(nil)

// Open connects to driver/dsn, pings it and applies pending migrations.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*BunStore, error) {
	o := options{migrate: true, maxOpenConns: 10}
	for _, opt := range opts {
		opt(&o)
	}

	var db *bun.DB
	switch driver {
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite db: %w", err)
		}
		// One writer at a time, and in-memory databases live only as long
		// as their connection.
		sqldb.SetMaxOpenConns(1)
		sqldb.SetMaxIdleConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		sqldb.SetMaxOpenConns(o.maxOpenConns)
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	db.AddQueryHook(&queryHook{log: o.log})

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	if o.migrate {
		if _, err := migrations.Up(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return &BunStore{db: db, root: db}, nil
}

// sqliteDSN turns on foreign keys and a busy timeout unless the caller
// already set pragmas.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// DB exposes the underlying handle for migration tooling.
func (s *BunStore) DB() *bun.DB {
	return s.root
}

// Close releases the connection pool. It is a no-op on a transaction store.
func (s *BunStore) Close() error {
	if s == nil || s.inTx || s.root == nil {
		return nil
	}
	return s.root.Close()
}

// InTx runs fn inside one transaction. Nested calls reuse the outer one.
func (s *BunStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	err := s.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &BunStore{db: tx, root: s.root, inTx: true})
	})
	if err != nil {
		metrics.RecordRepositoryRollback()
	}
	return err
}

func (s *BunStore) ListPlayers(ctx context.Context) ([]model.Player, error) {
	var rows []playerModel
	if err := s.db.NewSelect().Model(&rows).OrderExpr("p.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list players: %w", mapError(err))
	}
	out := make([]model.Player, len(rows))
	for i := range rows {
		out[i] = playerFromModel(rows[i])
	}
	return out, nil
}

func (s *BunStore) GetPlayer(ctx context.Context, id int64) (model.Player, error) {
	var row playerModel
	if err := s.db.NewSelect().Model(&row).Where("p.id = ?", id).Scan(ctx); err != nil {
		return model.Player{}, fmt.Errorf("get player %d: %w", id, mapError(err))
	}
	return playerFromModel(row), nil
}

func (s *BunStore) CreatePlayer(ctx context.Context, p model.Player) (model.Player, error) {
	row := playerToModel(p)
	row.ID = 0
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return model.Player{}, fmt.Errorf("create player: %w", mapError(err))
	}
	return playerFromModel(row), nil
}

func (s *BunStore) UpdatePlayer(ctx context.Context, p model.Player) (model.Player, error) {
	row := playerToModel(p)
	res, err := s.db.NewUpdate().Model(&row).Column("name", "team").WherePK().Exec(ctx)
	if err != nil {
		return model.Player{}, fmt.Errorf("update player %d: %w", p.ID, mapError(err))
	}
	if err := affected(res); err != nil {
		return model.Player{}, fmt.Errorf("update player %d: %w", p.ID, err)
	}
	return playerFromModel(row), nil
}

func (s *BunStore) DeletePlayer(ctx context.Context, id int64) error {
	// Scores are removed explicitly so the outcome does not depend on the
	// foreign_keys pragma being on.
	if _, err := s.db.NewDelete().Model((*scoreModel)(nil)).Where("player_id = ?", id).Exec(ctx); err != nil {
		return fmt.Errorf("delete scores of player %d: %w", id, mapError(err))
	}
	res, err := s.db.NewDelete().Model((*playerModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete player %d: %w", id, mapError(err))
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete player %d: %w", id, err)
	}
	return nil
}

func (s *BunStore) ListScores(ctx context.Context, filter model.ScoreFilter) ([]model.Score, error) {
	var rows []scoreModel
	q := s.db.NewSelect().Model(&rows)
	if filter.PlayerID != nil {
		q = q.Where("s.player_id = ?", *filter.PlayerID)
	}
	if filter.Gameweek != nil {
		q = q.Where("s.gameweek = ?", *filter.Gameweek)
	}
	if err := q.OrderExpr("s.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list scores: %w", mapError(err))
	}
	return scoresFromModels(rows), nil
}

func (s *BunStore) GetScore(ctx context.Context, id int64) (model.Score, error) {
	var row scoreModel
	if err := s.db.NewSelect().Model(&row).Where("s.id = ?", id).Scan(ctx); err != nil {
		return model.Score{}, fmt.Errorf("get score %d: %w", id, mapError(err))
	}
	return scoreFromModel(row), nil
}

func (s *BunStore) FindScore(ctx context.Context, playerID int64, gameweek int) (model.Score, error) {
	var row scoreModel
	err := s.db.NewSelect().Model(&row).
		Where("s.player_id = ?", playerID).
		Where("s.gameweek = ?", gameweek).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return model.Score{}, fmt.Errorf("find score player=%d gameweek=%d: %w", playerID, gameweek, mapError(err))
	}
	return scoreFromModel(row), nil
}

func (s *BunStore) PlayerHistory(ctx context.Context, playerID int64) ([]model.Score, error) {
	var rows []scoreModel
	err := s.db.NewSelect().Model(&rows).
		Where("s.player_id = ?", playerID).
		OrderExpr("s.gameweek ASC, s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("history of player %d: %w", playerID, mapError(err))
	}
	return scoresFromModels(rows), nil
}

func (s *BunStore) CreateScore(ctx context.Context, sc model.Score) (model.Score, error) {
	row := scoreToModel(sc)
	row.ID = 0
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return model.Score{}, fmt.Errorf("create score: %w", mapError(err))
	}
	return scoreFromModel(row), nil
}

func (s *BunStore) SaveScores(ctx context.Context, scores ...model.Score) error {
	for _, sc := range scores {
		row := scoreToModel(sc)
		res, err := s.db.NewUpdate().Model(&row).
			Column("player_id", "gameweek", "week_points", "week_cost", "overall_points").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("save score %d: %w", sc.ID, mapError(err))
		}
		if err := affected(res); err != nil {
			return fmt.Errorf("save score %d: %w", sc.ID, err)
		}
	}
	return nil
}

func (s *BunStore) DeleteScore(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*scoreModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete score %d: %w", id, mapError(err))
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete score %d: %w", id, err)
	}
	return nil
}

func (s *BunStore) ListScoreRows(ctx context.Context) ([]model.ScoreRow, error) {
	var rows []scoreModel
	err := s.db.NewSelect().Model(&rows).
		Relation("Player").
		OrderExpr("s.gameweek ASC, player.team ASC, player.name ASC, s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list score rows: %w", mapError(err))
	}
	out := make([]model.ScoreRow, 0, len(rows))
	for i := range rows {
		r := model.ScoreRow{Score: scoreFromModel(rows[i])}
		if p := rows[i].Player; p != nil {
			r.PlayerName = p.Name
			r.Team = p.Team
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *BunStore) MaxGameweek(ctx context.Context) (int, error) {
	var maxGW int
	err := s.db.NewSelect().Model((*scoreModel)(nil)).
		ColumnExpr("COALESCE(MAX(s.gameweek), 0)").
		Scan(ctx, &maxGW)
	if err != nil {
		return 0, fmt.Errorf("max gameweek: %w", mapError(err))
	}
	return maxGW, nil
}

func (s *BunStore) Counts(ctx context.Context) (int, int, error) {
	players, err := s.db.NewSelect().Model((*playerModel)(nil)).Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count players: %w", mapError(err))
	}
	scores, err := s.db.NewSelect().Model((*scoreModel)(nil)).Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count scores: %w", mapError(err))
	}
	return players, scores, nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
