package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/brettbedarf/webfiles"
	"github.com/brettbedarf/webfiles/internal/util"
	"github.com/brettbedarf/webfiles/metrics"
	"github.com/brettbedarf/webfiles/requests"
)

// Client-facing response bodies
const (
	MsgCreated       = "File created successfully"
	MsgUpdated       = "File updated successfully"
	MsgDeleted       = "File deleted successfully"
	MsgForbidden     = "Forbidden path"
	MsgNotFound      = "File not found"
	MsgInternal      = "Internal server error"
	MsgRouteNotFound = "Route not found"
)

// Resolver confines a caller-supplied filename to the sandbox.
type Resolver interface {
	Resolve(filename string) (string, error)
}

// Operator performs file operations on resolved paths.
type Operator interface {
	Create(ctx context.Context, path, filename, content string) error
	Read(ctx context.Context, path string) (string, error)
	Update(ctx context.Context, path, content string) error
	Delete(ctx context.Context, path, filename string) error
}

// Handler dispatches each request through parse, validate and execute,
// short-circuiting to a response on the first failure.
type Handler struct {
	resolver Resolver
	ops      Operator
	metrics  metrics.Metrics
	maxBody  int64
	logger   util.Logger
}

type HandlerOption func(*Handler)

// WithMetrics records request metrics. Defaults to no-op.
func WithMetrics(m metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithMaxBody limits request bodies; 0 disables the limit.
func WithMaxBody(n int64) HandlerOption {
	return func(h *Handler) { h.maxBody = n }
}

func NewHandler(resolver Resolver, ops Operator, opts ...HandlerOption) *Handler {
	h := &Handler{
		resolver: resolver,
		ops:      ops,
		metrics:  metrics.NewNoopMetrics(),
		logger:   util.GetLogger("Dispatcher"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := requests.RequestID(r)
	w.Header().Set(requests.RequestIDHeader, id)
	if h.maxBody > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	routeLabel := "unknown"
	if route, ok := webfiles.Routes[r.URL.Path]; ok {
		routeLabel = string(route)
	}
	h.metrics.RecordInFlight(routeLabel, 1)
	defer h.metrics.RecordInFlight(routeLabel, -1)

	status, body := h.dispatch(r, id)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		// Client went away; the operation result is simply discarded.
		h.logger.Debug().Err(err).Str("request_id", id).Msg("Failed to write response")
	}

	elapsed := time.Since(start)
	h.metrics.RecordRequest(routeLabel, status, elapsed)
	h.logger.Debug().
		Str("request_id", id).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("Request handled")
}

// dispatch returns the status and body for r.
func (h *Handler) dispatch(r *http.Request, id string) (int, string) {
	req, err := requests.Parse(r)
	if err != nil {
		if errors.Is(err, webfiles.ErrRouteNotFound) {
			return http.StatusNotFound, MsgRouteNotFound
		}
		h.logger.Debug().Err(err).Str("request_id", id).Msg("Rejected malformed request")
		return http.StatusBadRequest, requests.MissingParamMessage(req.Route)
	}
	req.ID = id

	path, err := h.resolver.Resolve(req.Filename)
	if err != nil {
		return h.failure(req, err)
	}

	// The request context is passed so a departed client releases this
	// goroutine; the executor lets the I/O itself finish.
	ctx := r.Context()
	switch req.Route {
	case webfiles.CreateRoute:
		if err := h.ops.Create(ctx, path, req.Filename, req.Content); err != nil {
			return h.failure(req, err)
		}
		h.metrics.RecordBytes(string(req.Route), "in", len(req.Content))
		return http.StatusCreated, MsgCreated

	case webfiles.ReadRoute:
		content, err := h.ops.Read(ctx, path)
		if err != nil {
			return h.failure(req, err)
		}
		h.metrics.RecordBytes(string(req.Route), "out", len(content))
		return http.StatusOK, content

	case webfiles.UpdateRoute:
		if err := h.ops.Update(ctx, path, req.Content); err != nil {
			return h.failure(req, err)
		}
		h.metrics.RecordBytes(string(req.Route), "in", len(req.Content))
		return http.StatusOK, MsgUpdated

	case webfiles.DeleteRoute:
		if err := h.ops.Delete(ctx, path, req.Filename); err != nil {
			return h.failure(req, err)
		}
		return http.StatusOK, MsgDeleted
	}

	return http.StatusNotFound, MsgRouteNotFound
}

// failure logs err and maps it to a generic client response. The underlying
// error text is never returned to the client.
func (h *Handler) failure(req *webfiles.Request, err error) (int, string) {
	status := webfiles.StatusCode(err)
	switch status {
	case http.StatusBadRequest:
		return status, requests.MissingParamMessage(req.Route)
	case http.StatusForbidden:
		h.logger.Warn().Err(err).Str("request_id", req.ID).Str("route", string(req.Route)).
			Str("filename", req.Filename).Msg("Path rejected")
		return status, MsgForbidden
	case http.StatusNotFound:
		h.logger.Debug().Err(err).Str("request_id", req.ID).Str("route", string(req.Route)).
			Msg("File not found")
		return status, MsgNotFound
	default:
		h.logger.Error().Err(err).Str("request_id", req.ID).Str("route", string(req.Route)).
			Str("filename", req.Filename).Msg("File operation failed")
		return http.StatusInternalServerError, MsgInternal
	}
}
