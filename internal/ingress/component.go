// Package ingress accepts device event notifications over HTTP and puts them
// on the event bus.
package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/winlab/netconflogger/pkg/component"
	"github.com/winlab/netconflogger/pkg/events"
	"github.com/winlab/netconflogger/pkg/logger"
)

const Namespace = "ingress.http"

func init() {
	component.Register(Namespace, New)
}

type Component struct {
	*component.Base
	logger   *slog.Logger
	eventBus events.Bus
	addr     string
	server   *http.Server
	mu       sync.RWMutex
	running  bool
}

type AcceptedResponse struct {
	Accepted int `json:"accepted"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func New(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.Ingress.HTTP.Enabled {
		return nil, nil
	}
	if deps.EventBus == nil {
		return nil, fmt.Errorf("%s requires an event bus", Namespace)
	}

	return &Component{
		Base:     component.NewBase(Namespace),
		logger:   logger.Get(logger.IngressHTTP),
		eventBus: deps.EventBus,
		addr:     deps.Config.Ingress.HTTP.ListenAddress,
	}, nil
}

func (c *Component) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events", c.handleEvents)
	return mux
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting HTTP ingress", "addr", c.addr)

	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", c.addr, err)
	}

	c.mu.Lock()
	c.addr = ln.Addr().String()
	c.server = &http.Server{
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	c.running = true
	server := c.server
	c.mu.Unlock()

	c.Go(func() {
		c.logger.Info("HTTP ingress listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("HTTP ingress server error", "error", err)
		}
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	})

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping HTTP ingress")

	c.mu.RLock()
	server := c.server
	c.mu.RUnlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("HTTP ingress shutdown", "error", err)
		}
	}

	c.StopContext()
	return nil
}

// Addr is the bound listen address once started.
func (c *Component) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.addr
}

func (c *Component) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

func (c *Component) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	evs, err := Decode(body, r.Header.Get("Content-Type"))
	if err != nil {
		c.logger.Debug("Rejected ingress payload", "remote", r.RemoteAddr, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	Publish(c.eventBus, Namespace, evs)
	c.logger.Debug("Accepted device events", "count", len(evs), "remote", r.RemoteAddr)

	writeJSON(w, http.StatusAccepted, AcceptedResponse{Accepted: len(evs)})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.Encode(v)
}
