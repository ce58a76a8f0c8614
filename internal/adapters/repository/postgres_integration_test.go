//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/okian/gameweek/internal/domain/model"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gameweek"),
		postgres.WithUsername("gameweek"),
		postgres.WithPassword("gameweek"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	st, err := Open(ctx, DriverPostgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	p := mustPlayer(t, st, "Alice", "Red")
	mustScore(t, st, p.ID, 1, 50, 0, 50)

	_, err = st.CreateScore(ctx, model.Score{PlayerID: p.ID, Gameweek: 1})
	require.ErrorIs(t, err, ErrDuplicateScore)

	_, err = st.CreateScore(ctx, model.Score{PlayerID: p.ID, Gameweek: 40})
	require.ErrorIs(t, err, ErrConstraint)

	rows, err := st.ListScoreRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Red", rows[0].Team)

	// Reopening must find nothing left to migrate.
	again, err := Open(ctx, DriverPostgres, dsn)
	require.NoError(t, err)
	require.NoError(t, again.Close())

	require.NoError(t, st.DeletePlayer(ctx, p.ID))
	_, scores, err := st.Counts(ctx)
	require.NoError(t, err)
	require.Zero(t, scores)
}
