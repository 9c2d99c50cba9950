// Package site serves the landing page with the car showroom.
package site

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/okian/pixelrace/internal/domain/catalog"
	"github.com/okian/pixelrace/internal/domain/model"
)

// Error constants
var (
	ErrRender = errors.New("landing page render failed")
)

//go:embed static/index.html.tmpl
var indexTemplate string

var index = template.Must(template.New("index").Parse(indexTemplate)) //nolint:gochecknoglobals // parsed once

type showroom struct {
	Starters   []model.Car
	Dealership []model.Car
}

// Register attaches the landing page to mux. Only the exact root path is
// served; everything else falls through to the mux's 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /{$}", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests
type RootHandler struct {
	page showroom
}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{page: showroom{Starters: catalog.Starters(), Dealership: catalog.Dealership()}}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := index.Execute(&buf, h.page); err != nil {
		http.Error(w, fmt.Errorf("%w: %w", ErrRender, err).Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
