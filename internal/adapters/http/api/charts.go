package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okian/gameweek/internal/adapters/export"
	"github.com/okian/gameweek/internal/domain/dashboard"
	"github.com/okian/gameweek/pkg/metrics"
)

var chartTitles = map[string]string{
	"weekly":  "Weekly points per team",
	"overall": "Overall points per team",
}

// handleChart handles GET /charts/{weekly|overall}.png.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.chart"
	name := chi.URLParam(r, "name")
	title, ok := chartTitles[name]
	if !ok {
		s.fail(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("unknown chart %q", name)))
		return
	}
	d, err := s.deps.Dashboard(r.Context())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	c := d.Weekly
	if name == "overall" {
		c = d.Overall
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := dashboard.Render(c, title, &buf); err != nil {
		s.fail(w, r, WrapKind(op, ErrRender, err))
		return
	}
	metrics.RecordChartRender(float64(time.Since(start).Microseconds()) / 1000)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleExport handles GET /scores/export.xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	rows, err := s.deps.ScoreRows(r.Context())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	var buf bytes.Buffer
	if err := export.WriteScores(&buf, rows); err != nil {
		s.fail(w, r, WrapKind(op, ErrRender, err))
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="scores.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
