package api

import (
	"context"
	"net/http"

	"github.com/okian/pixelrace/internal/domain/model"
)

// SessionDependencies drives the race state machine of a session.
type SessionDependencies interface {
	CreateSession(ctx context.Context) (View, error)
	CloseSession(ctx context.Context, id string) error
	Session(ctx context.Context, id string) (View, error)
	Sessions(ctx context.Context) ([]View, error)
	SelectCar(ctx context.Context, id string, carID int) (View, error)
	StartRace(ctx context.Context, id string) (View, error)
	Restart(ctx context.Context, id string) (View, error)
	Standings(ctx context.Context, id string) ([]model.Standing, error)
	Results(ctx context.Context, id string) (Results, error)
}

// SessionHandler handles session requests.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleCreate handles POST /sessions requests.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	view, err := h.deps.CreateSession(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/sessions/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

// HandleList handles GET /sessions requests.
func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_sessions"
	views, err := h.deps.Sessions(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleGet handles GET /sessions/{id} requests.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.get_session", h.deps.Session)
}

// HandleDelete handles DELETE /sessions/{id} requests.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	id, err := sessionID(r)
	if err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.CloseSession(r.Context(), id); err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSelectCar handles POST /sessions/{id}/car requests.
func (h *SessionHandler) HandleSelectCar(w http.ResponseWriter, r *http.Request) {
	const op = "api.select_car"
	id, err := sessionID(r)
	if err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	var req carRequest
	if err := decode(r, &req); err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.SelectCar(r.Context(), id, *req.CarID)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleStart handles POST /sessions/{id}/start requests.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.start_race", h.deps.StartRace)
}

// HandleRestart handles POST /sessions/{id}/restart requests.
func (h *SessionHandler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "api.restart", h.deps.Restart)
}

// HandleStandings handles GET /sessions/{id}/standings requests.
func (h *SessionHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.standings"
	id, err := sessionID(r)
	if err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	standings, err := h.deps.Standings(r.Context(), id)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	if standings == nil {
		standings = []model.Standing{}
	}
	writeJSON(w, http.StatusOK, standings)
}

// HandleResults handles GET /sessions/{id}/results requests.
func (h *SessionHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.results"
	id, err := sessionID(r)
	if err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Results(r.Context(), id)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, op string,
	call func(ctx context.Context, id string) (View, error),
) {
	id, err := sessionID(r)
	if err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := call(r.Context(), id)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
