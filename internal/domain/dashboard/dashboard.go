// Package dashboard aggregates scores per team for the weekly and overall
// charts.
package dashboard

import (
	"slices"

	"github.com/okian/gameweek/internal/domain/model"
)

// Line style shared by every dataset.
const (
	Tension     = 0.4
	alphaSuffix = "20"
)

// Palette cycles across teams in sorted order.
var Palette = []string{ //nolint:gochecknoglobals // fixed colour table
	"#FF6384",
	"#36A2EB",
	"#FFCE56",
	"#4BC0C0",
	"#9966FF",
	"#FF9F40",
	"#FF6384",
	"#C9CBCF",
	"#4BC0C0",
	"#FF6384",
}

// Dataset is one team's line. Field names follow Chart.js.
type Dataset struct {
	Label           string  `json:"label"`
	Data            []int   `json:"data"`
	BorderColor     string  `json:"borderColor"`
	BackgroundColor string  `json:"backgroundColor"`
	Tension         float64 `json:"tension"`
	Fill            bool    `json:"fill"`
}

// Chart is a set of team lines over gameweek labels.
type Chart struct {
	Labels   []int     `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dashboard holds both charts.
type Dashboard struct {
	Weekly  Chart `json:"weekly"`
	Overall Chart `json:"overall"`
}

// Build aggregates rows into the weekly and overall team charts.
//
// Weekly values are gross week points summed per team. Overall values sum
// each team's players' overall points at a gameweek and carry the previous
// value forward when the team has no rows there.
func Build(rows []model.ScoreRow) Dashboard {
	weekly := map[string]map[int]int{}
	overall := map[string]map[int]int{}
	present := map[string]map[int]bool{}
	var teams []string
	var gameweeks []int

	for _, r := range rows {
		if _, ok := weekly[r.Team]; !ok {
			weekly[r.Team] = map[int]int{}
			overall[r.Team] = map[int]int{}
			present[r.Team] = map[int]bool{}
			teams = append(teams, r.Team)
		}
		if !slices.Contains(gameweeks, r.Gameweek) {
			gameweeks = append(gameweeks, r.Gameweek)
		}
		weekly[r.Team][r.Gameweek] += r.WeekPoints
		overall[r.Team][r.Gameweek] += r.OverallPoints
		present[r.Team][r.Gameweek] = true
	}

	slices.Sort(teams)
	slices.Sort(gameweeks)
	if len(gameweeks) == 0 {
		gameweeks = []int{1}
	}

	d := Dashboard{
		Weekly:  Chart{Labels: gameweeks, Datasets: make([]Dataset, 0, len(teams))},
		Overall: Chart{Labels: gameweeks, Datasets: make([]Dataset, 0, len(teams))},
	}
	for i, team := range teams {
		w := make([]int, len(gameweeks))
		o := make([]int, len(gameweeks))
		carried := 0
		for j, gw := range gameweeks {
			w[j] = weekly[team][gw]
			if present[team][gw] {
				carried = overall[team][gw]
			}
			o[j] = carried
		}
		d.Weekly.Datasets = append(d.Weekly.Datasets, dataset(i, team, w))
		d.Overall.Datasets = append(d.Overall.Datasets, dataset(i, team, o))
	}
	return d
}

// ColorFor returns the palette colour for the i-th team.
func ColorFor(i int) string {
	return Palette[i%len(Palette)]
}

func dataset(i int, team string, data []int) Dataset {
	color := ColorFor(i)
	return Dataset{
		Label:           team,
		Data:            data,
		BorderColor:     color,
		BackgroundColor: color + alphaSuffix,
		Tension:         Tension,
		Fill:            false,
	}
}
