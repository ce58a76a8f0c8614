// Package seed generates deterministic demo leagues.
package seed

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/okian/gameweek/internal/domain/model"
	"github.com/okian/gameweek/internal/domain/types"
)

// Score ranges for generated gameweeks.
const (
	maxWeekPoints = 110
	maxWeekCost   = 8
	// costChance is the percentage of entries that carry a transfer cost.
	costChance = 20
)

// Generator produces players and gameweek entries from a fixed seed, so the
// same seed always yields the same league.
type Generator struct {
	faker *gofakeit.Faker
}

// New returns a Generator for seed.
func New(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(uint64(seed))}
}

// Teams returns n distinct team names.
func (g *Generator) Teams(n int) []string {
	seen := make(map[string]struct{}, n)
	teams := make([]string, 0, n)
	for i := 0; len(teams) < n; i++ {
		name := g.faker.City() + " " + g.faker.Animal()
		if i >= n*10 {
			name = fmt.Sprintf("Team %d", len(teams)+1)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		teams = append(teams, name)
	}
	return teams
}

// Players returns n players spread round-robin over teams.
func (g *Generator) Players(n int, teams []string) []types.PlayerInput {
	if len(teams) == 0 {
		teams = []string{"Unaffiliated"}
	}
	out := make([]types.PlayerInput, n)
	for i := range out {
		out[i] = types.PlayerInput{
			Name: g.faker.FirstName() + " " + g.faker.LastName(),
			Team: teams[i%len(teams)],
		}
	}
	return out
}

// Gameweek returns one bulk entry per player. Points always cover the cost,
// so running totals stay non-negative.
func (g *Generator) Gameweek(players []model.Player) []model.BulkEntry {
	out := make([]model.BulkEntry, len(players))
	for i, p := range players {
		points := g.faker.Number(0, maxWeekPoints)
		cost := 0
		if g.faker.Number(1, 100) <= costChance {
			cost = min(g.faker.Number(1, maxWeekCost), points)
		}
		out[i] = model.BulkEntry{PlayerID: p.ID, WeekPoints: points, WeekCost: cost}
	}
	return out
}
