package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/okian/gameweek/internal/domain/dashboard"
	"github.com/okian/gameweek/internal/domain/model"
	"github.com/okian/gameweek/internal/domain/types"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"deref": func(v *int) string {
		if v == nil {
			return ""
		}
		return strconv.Itoa(*v)
	},
	"selectedPlayer": func(selected *int64, id int64) bool {
		return selected != nil && *selected == id
	},
}

// pageData is the context shared by every page. Pages fill the fields they use.
type pageData struct {
	Title       string
	IsAdmin     bool
	CurrentUser string
	MaxGameweek int

	Weekly  dashboard.Chart
	Overall dashboard.Chart

	Players     []model.Player
	Page        types.ScoresPage
	PlayerNames map[int64]string
}

type pageRenderer struct {
	pages map[string]*template.Template
}

func newPageRenderer() *pageRenderer {
	r := &pageRenderer{pages: map[string]*template.Template{}}
	for _, name := range []string{"dashboard.html", "players.html", "scores.html"} {
		r.pages[name] = template.Must(template.New(name).Funcs(templateFuncs).
			ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
	}
	return r
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (p *pageRenderer) render(w http.ResponseWriter, name string, data pageData) error {
	t, ok := p.pages[name]
	if !ok {
		return NewKind("api.render", ErrRender)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return WrapKind("api.render", ErrRender, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
	return nil
}

func (s *Server) newPage(r *http.Request, title string) pageData {
	user := s.auth.currentUser(r)
	return pageData{
		Title:       title,
		IsAdmin:     user != "",
		CurrentUser: user,
		MaxGameweek: s.deps.MaxGameweek(),
	}
}

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard_page"
	d, err := s.deps.Dashboard(r.Context())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	data := s.newPage(r, "Dashboard")
	data.Weekly = d.Weekly
	data.Overall = d.Overall
	if err := s.pages.render(w, "dashboard.html", data); err != nil {
		s.fail(w, r, err)
	}
}

func (s *Server) handlePlayersPage(w http.ResponseWriter, r *http.Request) {
	const op = "api.players_page"
	players, err := s.deps.ListPlayers(r.Context())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	data := s.newPage(r, "Players")
	data.Players = players
	if err := s.pages.render(w, "players.html", data); err != nil {
		s.fail(w, r, err)
	}
}

func (s *Server) handleScoresPage(w http.ResponseWriter, r *http.Request) {
	const op = "api.scores_page"
	page, err := s.deps.ScoresPage(r.Context(), scoreFilter(r))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	data := s.newPage(r, "Scores")
	data.Page = page
	data.PlayerNames = make(map[int64]string, len(page.Players))
	for _, p := range page.Players {
		data.PlayerNames[p.ID] = p.Name
	}
	if err := s.pages.render(w, "scores.html", data); err != nil {
		s.fail(w, r, err)
	}
}

// scoreFilter reads the optional player_id and gameweek query filters.
// Blank or malformed values are ignored.
func scoreFilter(r *http.Request) model.ScoreFilter {
	q := r.URL.Query()
	return model.ScoreFilter{
		PlayerID: types.OptionalInt64(q.Get("player_id")),
		Gameweek: types.OptionalInt(q.Get("gameweek")),
	}
}
