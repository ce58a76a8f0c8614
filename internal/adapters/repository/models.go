package repository

import (
	"github.com/okian/gameweek/internal/domain/model"
	"github.com/uptrace/bun"
)

type playerModel struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
	Team string `bun:"team,notnull"`
}

type scoreModel struct {
	bun.BaseModel `bun:"table:scores,alias:s"`

	ID            int64 `bun:"id,pk,autoincrement"`
	PlayerID      int64 `bun:"player_id,notnull"`
	Gameweek      int   `bun:"gameweek,notnull"`
	WeekPoints    int   `bun:"week_points,notnull"`
	WeekCost      int   `bun:"week_cost,notnull"`
	OverallPoints int   `bun:"overall_points,notnull"`

	Player *playerModel `bun:"rel:belongs-to,join:player_id=id"`
}

func playerFromModel(m playerModel) model.Player {
	return model.Player{ID: m.ID, Name: m.Name, Team: m.Team}
}

func playerToModel(p model.Player) playerModel {
	return playerModel{ID: p.ID, Name: p.Name, Team: p.Team}
}

func scoreFromModel(m scoreModel) model.Score {
	return model.Score{
		ID:            m.ID,
		PlayerID:      m.PlayerID,
		Gameweek:      m.Gameweek,
		WeekPoints:    m.WeekPoints,
		WeekCost:      m.WeekCost,
		OverallPoints: m.OverallPoints,
	}
}

func scoreToModel(s model.Score) scoreModel {
	return scoreModel{
		ID:            s.ID,
		PlayerID:      s.PlayerID,
		Gameweek:      s.Gameweek,
		WeekPoints:    s.WeekPoints,
		WeekCost:      s.WeekCost,
		OverallPoints: s.OverallPoints,
	}
}

func scoresFromModels(ms []scoreModel) []model.Score {
	out := make([]model.Score, len(ms))
	for i := range ms {
		out[i] = scoreFromModel(ms[i])
	}
	return out
}
