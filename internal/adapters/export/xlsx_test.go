package export

import (
	"bytes"
	"testing"

	"github.com/okian/gameweek/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func row(id, player int64, name, team string, gw, pts, cost, overall int) model.ScoreRow {
	return model.ScoreRow{
		Score: model.Score{
			ID: id, PlayerID: player, Gameweek: gw,
			WeekPoints: pts, WeekCost: cost, OverallPoints: overall,
		},
		PlayerName: name,
		Team:       team,
	}
}

func TestWriteScores(t *testing.T) {
	Convey("Given two players over two gameweeks", t, func() {
		rows := []model.ScoreRow{
			row(1, 1, "Alice", "Red", 1, 50, 0, 50),
			row(3, 2, "Bob", "Blue", 1, 60, 0, 60),
			row(2, 1, "Alice", "Red", 2, 40, 5, 85),
		}

		Convey("When the workbook is written", func() {
			var buf bytes.Buffer
			So(WriteScores(&buf, rows), ShouldBeNil)

			f, err := excelize.OpenReader(&buf)
			So(err, ShouldBeNil)
			defer f.Close()

			Convey("Then the scores sheet holds a header and one line per row", func() {
				got, err := f.GetRows(ScoresSheet)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 4)
				So(got[0][0], ShouldEqual, "Gameweek")
				So(got[3], ShouldResemble, []string{"2", "Red", "Alice", "40", "5", "85"})
			})

			Convey("And the standings sheet ranks players by latest total", func() {
				got, err := f.GetRows(StandingsSheet)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
				So(got[1], ShouldResemble, []string{"1", "Red", "Alice", "2", "85"})
				So(got[2], ShouldResemble, []string{"2", "Blue", "Bob", "1", "60"})
			})
		})

		Convey("When there are no rows", func() {
			var buf bytes.Buffer
			So(WriteScores(&buf, nil), ShouldBeNil)

			Convey("Then a valid workbook with headers is produced", func() {
				f, err := excelize.OpenReader(&buf)
				So(err, ShouldBeNil)
				defer f.Close()
				got, err := f.GetRows(ScoresSheet)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
			})
		})
	})
}

func TestStandings(t *testing.T) {
	Convey("Given ties on overall points", t, func() {
		rows := []model.ScoreRow{
			row(1, 2, "Zed", "Red", 1, 10, 0, 10),
			row(2, 1, "Amy", "Blue", 1, 10, 0, 10),
		}

		Convey("Then names break the tie", func() {
			got := Standings(rows)
			So(got[0].PlayerName, ShouldEqual, "Amy")
			So(got[1].PlayerName, ShouldEqual, "Zed")
		})
	})
}
