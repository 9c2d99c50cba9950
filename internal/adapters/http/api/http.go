// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/pixelrace/internal/adapters/mq/worker"
	"github.com/okian/pixelrace/internal/adapters/repository"
	service "github.com/okian/pixelrace/internal/app"
	"github.com/okian/pixelrace/internal/domain/catalog"
	"github.com/okian/pixelrace/internal/domain/garage"
	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/okian/pixelrace/internal/domain/session"
	"github.com/okian/pixelrace/pkg/logger"
)

// IdempotencyKeyHeader carries the client's purchase key.
const IdempotencyKeyHeader = "Idempotency-Key"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CatalogDependencies
	SessionDependencies
	GarageDependencies
	StreamDependencies
}

// Server wires HTTP routes for the race API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	catalogHandler *CatalogHandler
	sessionHandler *SessionHandler
	garageHandler  *GarageHandler
	streamHandler  *StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		catalogHandler: NewCatalogHandler(deps),
		sessionHandler: NewSessionHandler(deps),
		garageHandler:  NewGarageHandler(deps),
		streamHandler:  NewStreamHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /cars", MetricsMiddleware(s.catalogHandler.HandleCars, "cars"))
	mux.HandleFunc("GET /dealership", MetricsMiddleware(s.catalogHandler.HandleDealership, "dealership"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionHandler.HandleCreate, "sessions"))
	mux.HandleFunc("GET /sessions", MetricsMiddleware(s.sessionHandler.HandleList, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionHandler.HandleGet, "session"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionHandler.HandleDelete, "session"))
	mux.HandleFunc("POST /sessions/{id}/car", MetricsMiddleware(s.sessionHandler.HandleSelectCar, "select_car"))
	mux.HandleFunc("POST /sessions/{id}/start", MetricsMiddleware(s.sessionHandler.HandleStart, "start"))
	mux.HandleFunc("POST /sessions/{id}/restart", MetricsMiddleware(s.sessionHandler.HandleRestart, "restart"))
	mux.HandleFunc("GET /sessions/{id}/standings", MetricsMiddleware(s.sessionHandler.HandleStandings, "standings"))
	mux.HandleFunc("GET /sessions/{id}/results", MetricsMiddleware(s.sessionHandler.HandleResults, "results"))
	mux.HandleFunc("GET /sessions/{id}/stream", MetricsMiddleware(s.streamHandler.HandleStream, "stream"))

	mux.HandleFunc("GET /sessions/{id}/garage", MetricsMiddleware(s.garageHandler.HandleGarage, "garage"))
	mux.HandleFunc("POST /sessions/{id}/purchase", MetricsMiddleware(s.garageHandler.HandlePurchase, "purchase"))
	mux.HandleFunc("POST /sessions/{id}/garage/rename", MetricsMiddleware(s.garageHandler.HandleRename, "rename"))
	mux.HandleFunc("POST /sessions/{id}/garage/decal", MetricsMiddleware(s.garageHandler.HandleDecal, "decal"))
	mux.HandleFunc("POST /sessions/{id}/garage/slot", MetricsMiddleware(s.garageHandler.HandleBuySlot, "slot"))
}

// Re-exported response shapes.
type (
	View    = service.View
	Results = service.Results
	Receipt = service.Receipt
)

// carRequest is the body of car selection and purchase requests.
type carRequest struct {
	CarID *int `json:"car_id"`
}

func (c carRequest) validate() error {
	if c.CarID == nil {
		return errors.New("missing car_id")
	}
	return nil
}

// customizeRequest is the body of rename and decal requests.
type customizeRequest struct {
	CarID *int   `json:"car_id"`
	Name  string `json:"name"`
	Decal string `json:"decal"`
}

func (c customizeRequest) validate() error {
	if c.CarID == nil {
		return errors.New("missing car_id")
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decode(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a domain error to its HTTP status and code.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
	}
	if msg, ok := prompts[code]; ok {
		writeJSON(w, status, errorResponse{Code: code, Message: msg})
		return
	}
	writeError(w, status, code, err)
}

// prompts replace raw error text for codes a player sees.
var prompts = map[string]string{ //nolint:gochecknoglobals // static lookup
	"no_car_selected":    "choose a car before starting the race",
	"insufficient_funds": "not enough money for this purchase",
	"garage_full":        "garage is full, buy another slot first",
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, garage.ErrInvalidCustomization):
		return http.StatusBadRequest, "invalid_customization"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, catalog.ErrUnknownCar):
		return http.StatusNotFound, "unknown_car"
	case errors.Is(err, session.ErrNoCarSelected):
		return http.StatusConflict, "no_car_selected"
	case errors.Is(err, session.ErrResultsNotReady):
		return http.StatusConflict, "results_not_ready"
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, session.ErrNotRacing):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, garage.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, garage.ErrAlreadyOwned):
		return http.StatusConflict, "already_owned"
	case errors.Is(err, garage.ErrGarageFull):
		return http.StatusConflict, "garage_full"
	case errors.Is(err, garage.ErrCarNotOwned):
		return http.StatusConflict, "car_not_owned"
	case errors.Is(err, worker.ErrStopped):
		return http.StatusGone, "session_closed"
	case errors.Is(err, worker.ErrBusy):
		return http.StatusTooManyRequests, "busy"
	case errors.Is(err, repository.ErrLimitReached):
		return http.StatusServiceUnavailable, "session_limit"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, model.ErrInvariant):
		return http.StatusInternalServerError, "invariant"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// sessionID extracts the {id} path value.
func sessionID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", errors.New("missing session id")
	}
	return id, nil
}
