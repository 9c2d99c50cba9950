package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/pixelrace/internal/domain/garage"
)

// GarageDependencies manages the wallet and owned cars of a session.
type GarageDependencies interface {
	Garage(ctx context.Context, id string) (garage.View, error)
	Purchase(ctx context.Context, id string, carID int, key string) (Receipt, error)
	BuySlot(ctx context.Context, id string, key string) (Receipt, error)
	RenameCar(ctx context.Context, id string, carID int, name string) (garage.OwnedCar, error)
	SetDecal(ctx context.Context, id string, carID int, decal string) (garage.OwnedCar, error)
}

// GarageHandler handles dealership and garage requests.
type GarageHandler struct {
	deps GarageDependencies
}

// NewGarageHandler creates a new garage handler.
func NewGarageHandler(deps GarageDependencies) *GarageHandler {
	return &GarageHandler{deps: deps}
}

// HandleGarage handles GET /sessions/{id}/garage requests.
func (h *GarageHandler) HandleGarage(w http.ResponseWriter, r *http.Request) {
	const op = "api.garage"
	id, err := sessionID(r)
	if err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.Garage(r.Context(), id)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandlePurchase handles POST /sessions/{id}/purchase requests. A
// request without an Idempotency-Key gets a fresh one, echoed back so the
// client can retry safely.
func (h *GarageHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	const op = "api.purchase"
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

	key := idempotencyKey(w, r)
	receipt, err := h.deps.Purchase(r.Context(), id, *req.CarID, key)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeReceipt(w, receipt)
}

// HandleBuySlot handles POST /sessions/{id}/garage/slot requests.
func (h *GarageHandler) HandleBuySlot(w http.ResponseWriter, r *http.Request) {
	const op = "api.buy_slot"
	id, err := sessionID(r)
	if err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	receipt, err := h.deps.BuySlot(r.Context(), id, idempotencyKey(w, r))
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeReceipt(w, receipt)
}

// HandleRename handles POST /sessions/{id}/garage/rename requests.
func (h *GarageHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	h.customize(w, r, "api.rename", func(ctx context.Context, id string, req customizeRequest) (garage.OwnedCar, error) {
		return h.deps.RenameCar(ctx, id, *req.CarID, req.Name)
	})
}

// HandleDecal handles POST /sessions/{id}/garage/decal requests.
func (h *GarageHandler) HandleDecal(w http.ResponseWriter, r *http.Request) {
	h.customize(w, r, "api.decal", func(ctx context.Context, id string, req customizeRequest) (garage.OwnedCar, error) {
		return h.deps.SetDecal(ctx, id, *req.CarID, req.Decal)
	})
}

func (h *GarageHandler) customize(w http.ResponseWriter, r *http.Request, op string,
	apply func(ctx context.Context, id string, req customizeRequest) (garage.OwnedCar, error),
) {
	id, err := sessionID(r)
	if err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	var req customizeRequest
	if err := decode(r, &req); err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	owned, err := apply(r.Context(), id, req)
	if err != nil {
		writeFailure(r.Context(), w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, owned)
}

func idempotencyKey(w http.ResponseWriter, r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key == "" {
		key = uuid.NewString()
	}
	w.Header().Set(IdempotencyKeyHeader, key)
	return key
}

// writeReceipt answers 201 for a new purchase and 200 for a replay.
func writeReceipt(w http.ResponseWriter, receipt Receipt) {
	status := http.StatusCreated
	if receipt.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, receipt)
}
