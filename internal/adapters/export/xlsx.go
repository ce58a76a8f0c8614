// Package export writes score tables as spreadsheets.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/okian/gameweek/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the workbook.
const (
	ScoresSheet    = "Scores"
	StandingsSheet = "Standings"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrWrite wraps any failure while building the workbook.
var ErrWrite = errors.New("xlsx export failed")

var scoreHeader = []any{"Gameweek", "Team", "Player", "Week points", "Week cost", "Overall points"}

// WriteScores writes rows (ordered by gameweek, team, player) to w as an
// xlsx workbook with a Scores sheet and a Standings sheet holding each
// player's latest overall points.
func WriteScores(w io.Writer, rows []model.ScoreRow) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrWrite, cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", ScoresSheet); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := f.SetSheetRow(ScoresSheet, "A1", &scoreHeader); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		values := []any{row.Gameweek, row.Team, row.PlayerName, row.WeekPoints, row.WeekCost, row.OverallPoints}
		if err := f.SetSheetRow(ScoresSheet, cell, &values); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}

	if _, err := f.NewSheet(StandingsSheet); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	header := []any{"Rank", "Team", "Player", "Gameweek", "Overall points"}
	if err := f.SetSheetRow(StandingsSheet, "A1", &header); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	for i, st := range Standings(rows) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		values := []any{i + 1, st.Team, st.PlayerName, st.Gameweek, st.OverallPoints}
		if err := f.SetSheetRow(StandingsSheet, cell, &values); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Standings returns each player's row at their highest gameweek, ordered by
// overall points descending, then player name.
func Standings(rows []model.ScoreRow) []model.ScoreRow {
	latest := map[int64]model.ScoreRow{}
	for _, row := range rows {
		if cur, ok := latest[row.PlayerID]; !ok || row.Gameweek > cur.Gameweek {
			latest[row.PlayerID] = row
		}
	}
	out := make([]model.ScoreRow, 0, len(latest))
	for _, row := range latest {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OverallPoints != out[j].OverallPoints {
			return out[i].OverallPoints > out[j].OverallPoints
		}
		if out[i].PlayerName != out[j].PlayerName {
			return out[i].PlayerName < out[j].PlayerName
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}
