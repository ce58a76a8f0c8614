package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/gameweek/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func run(dsn string, args ...string) (string, error) {
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"gameweekctl", "--db-dsn", dsn}, args...))
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	Convey("Given an empty database file", t, func() {
		dsn := filepath.Join(t.TempDir(), "gw.db")

		Convey("When migrations are applied", func() {
			out, err := run(dsn, "migrate", "up")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "migrated to")

			Convey("Then status lists them as applied", func() {
				out, err := run(dsn, "migrate", "status")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "20260301120000\tapplied")
				So(out, ShouldContainSubstring, "20260301121500\tapplied")
			})

			Convey("Then a second run is a no-op", func() {
				out, err := run(dsn, "migrate", "up")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "no new migrations")
			})

			Convey("Then they can be rolled back", func() {
				out, err := run(dsn, "migrate", "down")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "rolled back")

				out, err = run(dsn, "migrate", "status")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "20260301120000\tpending")
			})
		})

		Convey("When only the migration tables are created", func() {
			out, err := run(dsn, "migrate", "init")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "migration tables ready")

			out, err = run(dsn, "migrate", "down")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "no groups to roll back")
		})
	})

	Convey("Given an unsupported driver", t, func() {
		_, err := run("x", "--db-driver", "oracle", "migrate", "up")
		So(err, ShouldNotBeNil)
	})
}

func TestSeedVerifyExport(t *testing.T) {
	Convey("Given a seeded league", t, func() {
		dir := t.TempDir()
		dsn := filepath.Join(dir, "gw.db")
		out, err := run(dsn, "seed", "--players", "4", "--teams", "2", "--gameweeks", "3", "--seed", "9")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "seeded 4 players over 3 gameweeks")

		Convey("Then every total is consistent", func() {
			out, err := run(dsn, "verify")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "all totals consistent")
		})

		Convey("Then the export holds one row per score", func() {
			path := filepath.Join(dir, "scores.xlsx")
			out, err := run(dsn, "export", "--out", path)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "wrote 12 scores")

			f, err := excelize.OpenFile(path)
			So(err, ShouldBeNil)
			defer func() { _ = f.Close() }()
			rows, err := f.GetRows("Scores")
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 13)
		})

		Convey("When totals are corrupted", func() {
			store, err := repository.Open(context.Background(), repository.DriverSQLite, dsn)
			So(err, ShouldBeNil)
			_, err = store.DB().ExecContext(context.Background(),
				"UPDATE scores SET overall_points = overall_points + 1000 WHERE gameweek = 2")
			So(err, ShouldBeNil)
			So(store.Close(), ShouldBeNil)

			Convey("Then verify reports them", func() {
				out, err := run(dsn, "verify")
				So(err, ShouldEqual, errInconsistent)
				So(out, ShouldContainSubstring, "player 1: scores")
			})

			Convey("Then recompute repairs one player", func() {
				out, err := run(dsn, "recompute", "--player", "1")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "player 1: 3 scores, 1 rewritten")

				out, err = run(dsn, "verify")
				So(err, ShouldEqual, errInconsistent)
				So(out, ShouldNotContainSubstring, "player 1: scores")
			})

			Convey("Then recompute repairs everyone", func() {
				_, err := run(dsn, "recompute")
				So(err, ShouldBeNil)

				out, err := run(dsn, "verify")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "all totals consistent")
			})
		})
	})

	Convey("Given a season longer than allowed", t, func() {
		_, err := run(filepath.Join(t.TempDir(), "gw.db"), "seed", "--gameweeks", "99")
		So(err, ShouldNotBeNil)
	})

	Convey("Given an unknown player", t, func() {
		_, err := run(filepath.Join(t.TempDir(), "gw.db"), "recompute", "--player", "42")
		So(err, ShouldNotBeNil)
	})

	Convey("Given an unwritable export path", t, func() {
		_, err := run(filepath.Join(t.TempDir(), "gw.db"), "export", "--out", filepath.Join(os.DevNull, "x.xlsx"))
		So(err, ShouldNotBeNil)
	})
}
