// Package site serves the embedded static assets of the web pages.
package site

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Prefix is the URL prefix of every asset.
const Prefix = "/static/"

//go:embed static/*
var staticFS embed.FS

// FS returns an http.FileSystem rooted at the embedded static directory.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Expose an empty FS on error.
		return http.FS(staticFS)
	}
	return http.FS(sub)
}

// Register attaches /static/* to r.
func Register(r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	files := http.StripPrefix(Prefix, http.FileServer(FS()))
	r.Handle(Prefix+"*", files)
}
