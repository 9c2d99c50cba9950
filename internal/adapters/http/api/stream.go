package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/pixelrace/internal/domain/session"
	"github.com/okian/pixelrace/pkg/logger"
	"github.com/okian/pixelrace/pkg/metrics"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

// StreamDependencies exposes per-tick snapshots of a session.
type StreamDependencies interface {
	Subscribe(ctx context.Context, id string) (<-chan session.Snapshot, func(), error)
}

// StreamFrame is one WebSocket message: the snapshot of one tick.
type StreamFrame struct {
	ID string `json:"id"`
	session.Snapshot
}

// StreamHandler pushes session snapshots over WebSocket.
type StreamHandler struct {
	deps     StreamDependencies
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps StreamDependencies) *StreamHandler {
	return &StreamHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// HandleStream handles GET /sessions/{id}/stream requests. The stream ends
// when the client disconnects or the session is closed.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	ctx := r.Context()
	id, err := sessionID(r)
	if err != nil {
		writeFailure(ctx, w, WrapKind(op, ErrBadRequest, err))
		return
	}
	snapshots, unsubscribe, err := h.deps.Subscribe(ctx, id)
	if err != nil {
		writeFailure(ctx, w, Wrap(op, err))
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client.
		return
	}
	defer func() { _ = conn.Close() }()

	metrics.StreamClientConnected()
	defer metrics.StreamClientDisconnected()

	// Replace the server's request read deadline with the pong keepalive.
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(streamWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(StreamFrame{ID: id, Snapshot: snap}); err != nil {
				logger.Get().Debug(ctx, "stream write failed", logger.String("session", id), logger.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-ctx.Done():
			return
		}
	}
}
