package api

import (
	"net/http"

	"github.com/okian/pixelrace/internal/domain/model"
)

// CatalogDependencies lists the cars on offer.
type CatalogDependencies interface {
	Cars() []model.Car
	Dealership() []model.Car
}

// CatalogHandler handles catalog requests.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleCars handles GET /cars requests.
func (h *CatalogHandler) HandleCars(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Cars())
}

// HandleDealership handles GET /dealership requests.
func (h *CatalogHandler) HandleDealership(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Dealership())
}
