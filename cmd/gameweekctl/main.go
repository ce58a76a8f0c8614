// Command gameweekctl runs maintenance tasks against the tracker database:
// schema migrations, demo seeding, total recomputation, verification and
// spreadsheet export.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/okian/gameweek/internal/adapters/export"
	"github.com/okian/gameweek/internal/adapters/repository"
	"github.com/okian/gameweek/internal/adapters/repository/migrations"
	service "github.com/okian/gameweek/internal/app"
	"github.com/okian/gameweek/internal/config"
	"github.com/okian/gameweek/internal/domain/model"
	"github.com/okian/gameweek/internal/domain/seed"
	"github.com/okian/gameweek/pkg/logger"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

// errInconsistent is returned by verify when stored totals disagree with history.
var errInconsistent = errors.New("stored totals are inconsistent")

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "gameweekctl",
		Usage:     "gameweek tracker maintenance",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db-driver", Usage: "sqlite or postgres (overrides GAMEWEEK_DB_DRIVER)"},
			&cli.StringFlag{Name: "db-dsn", Usage: "database DSN (overrides GAMEWEEK_DB_DSN)"},
			&cli.StringFlag{Name: "log-level", Value: "warn"},
		},
		Before: func(c *cli.Context) error {
			if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
				return err
			}
			return logger.SetLevelString(c.String("log-level"))
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
			recomputeCommand(),
			verifyCommand(),
			exportCommand(),
		},
	}
}

// loadConfig reads the usual configuration and applies the global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.Context)
	if err != nil {
		return nil, err
	}
	if d := c.String("db-driver"); d != "" {
		cfg.DBDriver = d
	}
	if dsn := c.String("db-dsn"); dsn != "" {
		cfg.DBDSN = dsn
	}
	return cfg, cfg.Validate()
}

// withService opens a migrated store and runs fn against a started service.
func withService(c *cli.Context, fn func(ctx context.Context, svc *service.Service) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	l := logger.Get()
	store, err := repository.Open(c.Context, cfg.DBDriver, cfg.DBDSN, repository.WithLogger(l.Named("repository")))
	if err != nil {
		return err
	}
	svc := service.New(store,
		service.WithLogger(l.Named("service")),
		service.WithMaxGameweek(cfg.MaxGameweek),
	)
	if err := svc.Start(c.Context); err != nil {
		_ = store.Close()
		return err
	}
	defer svc.Stop()
	return fn(c.Context, svc)
}

func migrateCommand() *cli.Command {
	withMigrator := func(fn func(c *cli.Context, m *migrate.Migrator) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			store, err := repository.Open(c.Context, cfg.DBDriver, cfg.DBDSN, repository.WithoutMigrations())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			return fn(c, migrate.NewMigrator(store.DB(), migrations.Migrations))
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					if err := m.Init(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "migration tables ready")
					return nil
				}),
			},
			{
				Name:  "up",
				Usage: "apply pending migrations",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					if err := m.Init(c.Context); err != nil {
						return err
					}
					group, err := m.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Fprintln(c.App.Writer, "no new migrations to run")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "migrated to %s\n", group)
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "roll back the last migration group",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					group, err := m.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Fprintln(c.App.Writer, "no groups to roll back")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "rolled back %s\n", group)
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "list migrations and whether they are applied",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					ms, err := m.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					for _, mig := range ms {
						state := "pending"
						if mig.IsApplied() {
							state = "applied"
						}
						fmt.Fprintf(c.App.Writer, "%s\t%s\n", mig.Name, state)
					}
					return nil
				}),
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "populate the database with a generated league",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "players", Value: 10},
			&cli.IntFlag{Name: "teams", Value: 3},
			&cli.IntFlag{Name: "gameweeks", Value: 5},
			&cli.Int64Flag{Name: "seed", Value: 1},
		},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, svc *service.Service) error {
				gameweeks := c.Int("gameweeks")
				if gameweeks < 0 || gameweeks > svc.MaxGameweek() {
					return fmt.Errorf("%w: gameweeks must be in [0, %d]", service.ErrValidation, svc.MaxGameweek())
				}
				gen := seed.New(c.Int64("seed"))
				inputs := gen.Players(c.Int("players"), gen.Teams(c.Int("teams")))
				players := make([]model.Player, 0, len(inputs))
				for _, in := range inputs {
					p, err := svc.CreatePlayer(ctx, in)
					if err != nil {
						return err
					}
					players = append(players, p)
				}
				// Ascending order lets each bulk pass seed from the week before.
				for gw := 1; gw <= gameweeks; gw++ {
					if _, err := svc.BulkUpsert(ctx, gw, gen.Gameweek(players)); err != nil {
						return fmt.Errorf("gameweek %d: %w", gw, err)
					}
				}
				fmt.Fprintf(c.App.Writer, "seeded %d players over %d gameweeks\n", len(players), gameweeks)
				return nil
			})
		},
	}
}

func recomputeCommand() *cli.Command {
	return &cli.Command{
		Name:  "recompute",
		Usage: "rebuild overall points from weekly history",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "player", Usage: "only this player id (default all)"},
		},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, svc *service.Service) error {
				var ids []int64
				if c.IsSet("player") {
					ids = []int64{c.Int64("player")}
				} else {
					players, err := svc.ListPlayers(ctx)
					if err != nil {
						return err
					}
					for _, p := range players {
						ids = append(ids, p.ID)
					}
				}
				for _, id := range ids {
					res, err := svc.RecomputePlayer(ctx, id)
					if err != nil {
						return fmt.Errorf("player %d: %w", id, err)
					}
					fmt.Fprintf(c.App.Writer, "player %d: %d scores, %d rewritten\n", res.PlayerID, res.Scores, res.Rewritten)
				}
				return nil
			})
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "check that every overall total matches its history",
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, svc *service.Service) error {
				broken, err := svc.Verify(ctx)
				if err != nil {
					return err
				}
				if len(broken) == 0 {
					fmt.Fprintln(c.App.Writer, "all totals consistent")
					return nil
				}
				pids := make([]int64, 0, len(broken))
				for pid := range broken {
					pids = append(pids, pid)
				}
				sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
				for _, pid := range pids {
					fmt.Fprintf(c.App.Writer, "player %d: scores %v\n", pid, broken[pid])
				}
				return errInconsistent
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write every score to an xlsx workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "scores.xlsx"},
		},
		Action: func(c *cli.Context) error {
			return withService(c, func(ctx context.Context, svc *service.Service) error {
				rows, err := svc.ScoreRows(ctx)
				if err != nil {
					return err
				}
				f, err := os.Create(c.String("out"))
				if err != nil {
					return err
				}
				if err := export.WriteScores(f, rows); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "wrote %d scores to %s\n", len(rows), c.String("out"))
				return nil
			})
		},
	}
}
