package scoring_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/gameweek/internal/domain/model"
	"github.com/okian/gameweek/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func score(id int64, player int64, gw, pts, cost, overall int) model.Score {
	return model.Score{ID: id, PlayerID: player, Gameweek: gw, WeekPoints: pts, WeekCost: cost, OverallPoints: overall}
}

func TestSeed(t *testing.T) {
	Convey("Given a player with two gameweeks", t, func() {
		history := []model.Score{
			score(1, 7, 1, 50, 0, 50),
			score(2, 7, 2, 40, 5, 85),
		}

		Convey("When seeding gameweek 3 with 30 points and 10 cost", func() {
			got := scoring.Seed(history, 3, 30, 10, 0)

			Convey("Then it continues the running total", func() {
				So(got, ShouldEqual, 105)
			})
		})

		Convey("When seeding a gameweek before existing history", func() {
			got := scoring.Seed(history, 1, 10, 0, 0)

			Convey("Then only earlier or equal gameweeks are summed", func() {
				So(got, ShouldEqual, 60)
			})
		})

		Convey("When the seeded entry is itself in history", func() {
			got := scoring.Seed(history, 2, 10, 0, 2)

			Convey("Then its stored values are excluded", func() {
				So(got, ShouldEqual, 60)
			})
		})

		Convey("When history is empty", func() {
			So(scoring.Seed(nil, 5, 12, 4, 0), ShouldEqual, 8)
		})
	})
}

func TestRecalculate(t *testing.T) {
	Convey("Given the worked example history", t, func() {
		history := []model.Score{
			score(1, 7, 1, 50, 0, 50),
			score(2, 7, 2, 40, 5, 85),
		}

		Convey("When gameweek 1 is edited to 60 points", func() {
			edited, later := scoring.Recalculate(history, score(1, 7, 1, 60, 0, 50))

			Convey("Then the edit and the cascade reflect the new total", func() {
				So(edited.OverallPoints, ShouldEqual, 60)
				want := []model.Score{score(2, 7, 2, 40, 5, 95)}
				So(cmp.Diff(want, later), ShouldBeEmpty)
			})
		})

		Convey("When the same edit is applied twice", func() {
			e1, l1 := scoring.Recalculate(history, score(1, 7, 1, 60, 0, 0))
			next := append([]model.Score{e1}, l1...)
			e2, l2 := scoring.Recalculate(next, score(1, 7, 1, 60, 0, 0))

			Convey("Then the second pass produces identical totals", func() {
				So(e2, ShouldResemble, e1)
				So(cmp.Diff(l1, l2), ShouldBeEmpty)
			})
		})

		Convey("When the last gameweek is edited", func() {
			edited, later := scoring.Recalculate(history, score(2, 7, 2, 10, 10, 85))

			Convey("Then there is nothing to cascade", func() {
				So(edited.OverallPoints, ShouldEqual, 50)
				So(later, ShouldBeEmpty)
			})
		})

		Convey("When an edit moves a score to a later gameweek", func() {
			history = append(history, score(3, 7, 3, 20, 0, 105))
			edited, later := scoring.Recalculate(history, score(1, 7, 4, 50, 0, 50))

			Convey("Then the gameweeks it left drop its points", func() {
				So(edited.OverallPoints, ShouldEqual, 35+20+50)
				want := []model.Score{
					score(2, 7, 2, 40, 5, 35),
					score(3, 7, 3, 20, 0, 55),
				}
				So(cmp.Diff(want, later), ShouldBeEmpty)
			})

			Convey("Then the whole history satisfies the running total", func() {
				So(scoring.Verify(append([]model.Score{edited}, later...)), ShouldBeEmpty)
			})
		})

		Convey("When an edit moves a score to an earlier gameweek", func() {
			history = []model.Score{
				score(1, 7, 1, 50, 0, 50),
				score(2, 7, 2, 40, 5, 85),
				score(3, 7, 5, 10, 0, 95),
			}
			edited, later := scoring.Recalculate(history, score(3, 7, 3, 10, 0, 95))

			Convey("Then later scores drop the old position", func() {
				So(edited.OverallPoints, ShouldEqual, 95)
				So(later, ShouldBeEmpty)
			})
		})

		Convey("When a score from another player is re-parented into this history", func() {
			edited, later := scoring.Recalculate(history, score(9, 7, 1, 5, 0, 0))

			Convey("Then it joins the running total of the new player", func() {
				So(edited.OverallPoints, ShouldEqual, 55)
				So(cmp.Diff([]model.Score{score(2, 7, 2, 40, 5, 90)}, later), ShouldBeEmpty)
			})
		})
	})

	Convey("Given an unordered history with gaps", t, func() {
		history := []model.Score{
			score(5, 1, 10, 7, 0, 0),
			score(3, 1, 4, 3, 1, 0),
			score(4, 1, 6, 9, 2, 0),
			score(2, 1, 2, 1, 0, 0),
		}

		Convey("When gameweek 2 is edited", func() {
			_, later := scoring.Recalculate(history, score(2, 1, 2, 11, 0, 0))

			Convey("Then later scores come back ascending with full rescans", func() {
				want := []model.Score{
					score(3, 1, 4, 3, 1, 13),
					score(4, 1, 6, 9, 2, 20),
					score(5, 1, 10, 7, 0, 27),
				}
				So(cmp.Diff(want, later), ShouldBeEmpty)
			})
		})
	})
}

func TestRebuildAndVerify(t *testing.T) {
	Convey("Given a history with stale totals", t, func() {
		history := []model.Score{
			score(3, 1, 3, 30, 10, 0),
			score(1, 1, 1, 50, 0, 50),
			score(2, 1, 2, 40, 5, 0),
		}

		Convey("Then Verify reports the stale ids", func() {
			So(scoring.Verify(history), ShouldResemble, []int64{3, 2})
		})

		Convey("When the history is rebuilt", func() {
			rebuilt := scoring.Rebuild(history)

			Convey("Then totals are prefix sums in gameweek order", func() {
				want := []model.Score{
					score(1, 1, 1, 50, 0, 50),
					score(2, 1, 2, 40, 5, 85),
					score(3, 1, 3, 30, 10, 105),
				}
				So(cmp.Diff(want, rebuilt), ShouldBeEmpty)
				So(scoring.Verify(rebuilt), ShouldBeEmpty)
			})

			Convey("And the input slice is left unchanged", func() {
				So(history[0].OverallPoints, ShouldEqual, 0)
			})
		})
	})
}

func TestRecalculateKeepsInvariant(t *testing.T) {
	Convey("Given random edit sequences over a full season", t, func() {
		rng := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test data
		history := scoring.Rebuild(func() []model.Score {
			out := make([]model.Score, 0, model.MaxGameweek)
			for gw := 1; gw <= model.MaxGameweek; gw++ {
				out = append(out, score(int64(gw), 1, gw, rng.Intn(100), rng.Intn(12), 0))
			}
			return out
		}())

		for i := 0; i < 200; i++ {
			target := history[rng.Intn(len(history))]
			target.WeekPoints = rng.Intn(100)
			target.WeekCost = rng.Intn(12)

			edited, later := scoring.Recalculate(history, target)
			next := make([]model.Score, 0, len(history))
			for _, s := range history {
				switch {
				case s.ID == edited.ID:
					next = append(next, edited)
				case s.Gameweek > edited.Gameweek:
					// replaced from later below
				default:
					next = append(next, s)
				}
			}
			history = append(next, later...)
		}

		Convey("Then every total still matches its prefix sum", func() {
			So(scoring.Verify(history), ShouldBeEmpty)
			So(len(history), ShouldEqual, model.MaxGameweek)
		})
	})
}
