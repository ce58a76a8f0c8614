package types_test

import (
	"testing"

	types "github.com/okian/gameweek/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPlayerInputNormalize(t *testing.T) {
	Convey("Given a player input with padding", t, func() {
		in := types.PlayerInput{Name: "  Alice ", Team: "\tRed\n"}

		Convey("When normalized", func() {
			out := in.Normalize()

			Convey("Then whitespace is trimmed", func() {
				So(out.Name, ShouldEqual, "Alice")
				So(out.Team, ShouldEqual, "Red")
			})
		})

		Convey("When the fields are only whitespace", func() {
			out := types.PlayerInput{Name: "   ", Team: ""}.Normalize()

			Convey("Then they become empty", func() {
				So(out.Name, ShouldBeEmpty)
				So(out.Team, ShouldBeEmpty)
			})
		})
	})
}

func TestOptionalInt(t *testing.T) {
	Convey("Given filter values from a query string", t, func() {
		Convey("When the value is a number", func() {
			v := types.OptionalInt(" 7 ")

			Convey("Then it is parsed", func() {
				So(v, ShouldNotBeNil)
				So(*v, ShouldEqual, 7)
			})
		})

		Convey("When the value is blank", func() {
			So(types.OptionalInt(""), ShouldBeNil)
			So(types.OptionalInt("   "), ShouldBeNil)
		})

		Convey("When the value is not an integer", func() {
			So(types.OptionalInt("seven"), ShouldBeNil)
			So(types.OptionalInt("1.5"), ShouldBeNil)
		})

		Convey("When parsing ids", func() {
			id := types.OptionalInt64("42")
			So(id, ShouldNotBeNil)
			So(*id, ShouldEqual, int64(42))
			So(types.OptionalInt64("x"), ShouldBeNil)
			So(types.OptionalInt64(""), ShouldBeNil)
		})
	})
}
