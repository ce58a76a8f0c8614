package model_test

import (
	"errors"
	"testing"

	"github.com/okian/gameweek/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScoreNet(t *testing.T) {
	Convey("Given a score with points and cost", t, func() {
		s := model.Score{WeekPoints: 40, WeekCost: 5}

		Convey("Then Net subtracts the cost", func() {
			So(s.Net(), ShouldEqual, 35)
		})

		Convey("And a cost larger than points yields a negative net", func() {
			s.WeekCost = 48
			So(s.Net(), ShouldEqual, -8)
		})
	})
}

func TestValidateScore(t *testing.T) {
	Convey("Given score validation", t, func() {
		Convey("When every field is in range", func() {
			So(model.ValidateScore(1, 0, 0, 38), ShouldBeNil)
			So(model.ValidateScore(38, 120, 12, 38), ShouldBeNil)
		})

		Convey("When the gameweek is outside the season", func() {
			err := model.ValidateScore(39, 10, 0, 38)
			So(errors.Is(err, model.ErrOutOfRange), ShouldBeTrue)
			So(model.ValidateScore(0, 10, 0, 38), ShouldNotBeNil)
		})

		Convey("When a shorter season is configured", func() {
			So(model.ValidateGameweek(21, 20), ShouldNotBeNil)
		})

		Convey("When no season length is configured", func() {
			So(model.ValidateGameweek(38, 0), ShouldBeNil)
		})

		Convey("When points or cost are negative", func() {
			So(model.ValidateScore(3, -1, 0, 38), ShouldNotBeNil)
			So(model.ValidateScore(3, 1, -4, 38), ShouldNotBeNil)
		})
	})
}
