// Package raceclient drives a pixelrace server over its HTTP and WebSocket API.
package raceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	app "github.com/okian/pixelrace/internal/app"
	"github.com/okian/pixelrace/internal/domain/garage"
	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/okian/pixelrace/internal/domain/session"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultPollInterval = 100 * time.Millisecond
	idempotencyHeader   = "Idempotency-Key"
)

// Frame is one message of the session stream.
type Frame struct {
	ID string `json:"id"`
	session.Snapshot
}

// Client talks to one server.
type Client struct {
	base *url.URL
	http *http.Client
	poll time.Duration
}

// New creates a client for baseURL, e.g. http://localhost:9080.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: defaultTimeout},
		poll: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Health checks the liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Cars lists starters and dealership cars.
func (c *Client) Cars(ctx context.Context) ([]model.Car, error) {
	var cars []model.Car
	return cars, c.call(ctx, http.MethodGet, "/cars", nil, nil, &cars)
}

// CreateSession opens a session in Selection.
func (c *Client) CreateSession(ctx context.Context) (app.View, error) {
	var v app.View
	return v, c.call(ctx, http.MethodPost, "/sessions", nil, nil, &v)
}

// Session returns the current snapshot of a session.
func (c *Client) Session(ctx context.Context, id string) (app.View, error) {
	var v app.View
	return v, c.call(ctx, http.MethodGet, "/sessions/"+id, nil, nil, &v)
}

// CloseSession tears a session down.
func (c *Client) CloseSession(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/sessions/"+id, nil, nil, nil)
}

// SelectCar chooses an owned car.
func (c *Client) SelectCar(ctx context.Context, id string, carID int) (app.View, error) {
	var v app.View
	return v, c.call(ctx, http.MethodPost, "/sessions/"+id+"/car", map[string]int{"car_id": carID}, nil, &v)
}

// Start begins the race.
func (c *Client) Start(ctx context.Context, id string) (app.View, error) {
	var v app.View
	return v, c.call(ctx, http.MethodPost, "/sessions/"+id+"/start", nil, nil, &v)
}

// Restart returns a finished session to Selection.
func (c *Client) Restart(ctx context.Context, id string) (app.View, error) {
	var v app.View
	return v, c.call(ctx, http.MethodPost, "/sessions/"+id+"/restart", nil, nil, &v)
}

// Results returns the final standings once the race is over.
func (c *Client) Results(ctx context.Context, id string) (app.Results, error) {
	var r app.Results
	return r, c.call(ctx, http.MethodGet, "/sessions/"+id+"/results", nil, nil, &r)
}

// AwaitResults polls until the race is over or ctx ends.
func (c *Client) AwaitResults(ctx context.Context, id string) (app.Results, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		r, err := c.Results(ctx, id)
		if err == nil || !IsCode(err, "results_not_ready") {
			return r, err
		}
		select {
		case <-ctx.Done():
			return app.Results{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Garage returns the session's wallet and owned cars.
func (c *Client) Garage(ctx context.Context, id string) (garage.View, error) {
	var g garage.View
	return g, c.call(ctx, http.MethodGet, "/sessions/"+id+"/garage", nil, nil, &g)
}

// Purchase buys a dealership car. An empty key lets the server pick one.
func (c *Client) Purchase(ctx context.Context, id string, carID int, key string) (app.Receipt, error) {
	var r app.Receipt
	return r, c.call(ctx, http.MethodPost, "/sessions/"+id+"/purchase", map[string]int{"car_id": carID}, keyHeader(key), &r)
}

// BuySlot buys an extra garage slot.
func (c *Client) BuySlot(ctx context.Context, id, key string) (app.Receipt, error) {
	var r app.Receipt
	return r, c.call(ctx, http.MethodPost, "/sessions/"+id+"/garage/slot", nil, keyHeader(key), &r)
}

// Watch follows the session stream and hands every frame to fn until the
// server closes the stream, fn returns an error, or ctx ends. A normal
// close by the server is not an error.
func (c *Client) Watch(ctx context.Context, id string, fn func(Frame) error) error {
	ws := *c.base
	switch ws.Scheme {
	case "https":
		ws.Scheme = "wss"
	default:
		ws.Scheme = "ws"
	}
	ws.Path += "/sessions/" + id + "/stream"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, ws.String(), nil)
	if err != nil {
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
			return decodeError(resp)
		}
		return fmt.Errorf("dial stream: %w", err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read stream: %w", err)
		}
		if err := fn(f); err != nil {
			return err
		}
	}
}

func keyHeader(key string) http.Header {
	if key == "" {
		return nil
	}
	return http.Header{idempotencyHeader: []string{key}}
}

func (c *Client) call(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	resp, err := c.do(ctx, method, path, body, header)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil && !errors.Is(err, io.EOF) {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
