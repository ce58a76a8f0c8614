package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/okian/gameweek/pkg/logger"
	"github.com/okian/gameweek/pkg/metrics"
	"github.com/uptrace/bun"
)

// queryHook records latency for every query and optionally logs it.
type queryHook struct {
	log logger.Logger
}

var _ bun.QueryHook = (*queryHook)(nil)

func (h *queryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	ms := float64(time.Since(event.StartTime).Microseconds()) / 1000
	op := event.Operation()
	if op == "SELECT" {
		metrics.RecordRepositoryQueryLatency(ms)
	} else {
		metrics.RecordRepositoryUpdateLatency(ms)
	}

	failed := event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows)
	if failed {
		metrics.RecordErrorByComponent("repository", op)
	}
	if h.log == nil {
		return
	}
	if failed {
		h.log.Warn(ctx, "query failed", logger.String("operation", op), logger.String("query", event.Query), logger.Error(event.Err))
		return
	}
	h.log.Debug(ctx, "query", logger.String("operation", op), logger.Any("latency_ms", ms))
}
