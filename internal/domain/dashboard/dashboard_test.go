package dashboard_test

import (
	"bytes"
	"testing"

	"github.com/okian/gameweek/internal/domain/dashboard"
	"github.com/okian/gameweek/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func row(gw int, name, team string, pts, cost, overall int) model.ScoreRow {
	return model.ScoreRow{
		Score:      model.Score{Gameweek: gw, WeekPoints: pts, WeekCost: cost, OverallPoints: overall},
		PlayerName: name,
		Team:       team,
	}
}

func TestBuild(t *testing.T) {
	Convey("Given no scores", t, func() {
		d := dashboard.Build(nil)

		Convey("Then both charts have a single gameweek label and no datasets", func() {
			So(d.Weekly.Labels, ShouldResemble, []int{1})
			So(d.Overall.Labels, ShouldResemble, []int{1})
			So(d.Weekly.Datasets, ShouldBeEmpty)
			So(d.Overall.Datasets, ShouldBeEmpty)
		})
	})

	Convey("Given two teams across three gameweeks", t, func() {
		rows := []model.ScoreRow{
			row(1, "Bob", "Blue", 30, 0, 30),
			row(1, "Cara", "Blue", 20, 4, 16),
			row(1, "Alice", "Red", 50, 0, 50),
			row(2, "Alice", "Red", 40, 5, 85),
			row(3, "Bob", "Blue", 10, 0, 40),
		}
		d := dashboard.Build(rows)

		Convey("Then labels are the sorted gameweeks", func() {
			So(d.Weekly.Labels, ShouldResemble, []int{1, 2, 3})
		})

		Convey("Then teams are sorted and coloured from the palette", func() {
			So(d.Weekly.Datasets, ShouldHaveLength, 2)
			So(d.Weekly.Datasets[0].Label, ShouldEqual, "Blue")
			So(d.Weekly.Datasets[1].Label, ShouldEqual, "Red")
			So(d.Weekly.Datasets[0].BorderColor, ShouldEqual, "#FF6384")
			So(d.Weekly.Datasets[1].BorderColor, ShouldEqual, "#36A2EB")
			So(d.Weekly.Datasets[1].BackgroundColor, ShouldEqual, "#36A2EB20")
			So(d.Overall.Datasets[1].Tension, ShouldEqual, 0.4)
			So(d.Overall.Datasets[1].Fill, ShouldBeFalse)
		})

		Convey("Then weekly values sum gross points with zero for missing weeks", func() {
			So(d.Weekly.Datasets[0].Data, ShouldResemble, []int{50, 0, 10})
			So(d.Weekly.Datasets[1].Data, ShouldResemble, []int{50, 40, 0})
		})

		Convey("Then overall values sum players and carry forward", func() {
			So(d.Overall.Datasets[0].Data, ShouldResemble, []int{46, 46, 40})
			So(d.Overall.Datasets[1].Data, ShouldResemble, []int{50, 85, 85})
		})
	})

	Convey("Given more teams than palette entries", t, func() {
		var rows []model.ScoreRow
		for _, team := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K"} {
			rows = append(rows, row(1, team, team, 1, 0, 1))
		}
		d := dashboard.Build(rows)

		Convey("Then colours wrap around", func() {
			So(d.Weekly.Datasets[10].BorderColor, ShouldEqual, d.Weekly.Datasets[0].BorderColor)
			So(dashboard.ColorFor(7), ShouldEqual, "#C9CBCF")
		})
	})
}

func TestRender(t *testing.T) {
	pngMagic := []byte("\x89PNG")

	Convey("Given a built dashboard", t, func() {
		d := dashboard.Build([]model.ScoreRow{
			row(1, "Alice", "Red", 50, 0, 50),
			row(2, "Alice", "Red", 40, 5, 85),
			row(2, "Bob", "Blue", 20, 0, 20),
		})

		Convey("When rendering the overall chart", func() {
			var buf bytes.Buffer
			err := dashboard.Render(d.Overall, "Overall points", &buf)

			Convey("Then a PNG is written", func() {
				So(err, ShouldBeNil)
				So(bytes.HasPrefix(buf.Bytes(), pngMagic), ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty dashboard", t, func() {
		d := dashboard.Build(nil)

		Convey("When rendering", func() {
			var buf bytes.Buffer
			err := dashboard.Render(d.Weekly, "Weekly points", &buf)

			Convey("Then a placeholder PNG is still produced", func() {
				So(err, ShouldBeNil)
				So(bytes.HasPrefix(buf.Bytes(), pngMagic), ShouldBeTrue)
			})
		})
	})

	Convey("Given a chart without labels", t, func() {
		err := dashboard.Render(dashboard.Chart{}, "x", &bytes.Buffer{})

		Convey("Then it is rejected", func() {
			So(err, ShouldEqual, dashboard.ErrEmptyChart)
		})
	})
}
