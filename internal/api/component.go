// Package api serves relay status, a health probe and the OpenAPI document.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/winlab/netconflogger/pkg/component"
	"github.com/winlab/netconflogger/pkg/events"
	"github.com/winlab/netconflogger/pkg/logger"
	"github.com/winlab/netconflogger/pkg/version"
)

const Namespace = "api"

func init() {
	component.Register(Namespace, New)
}

type Component struct {
	*component.Base
	logger   *slog.Logger
	relay    component.StatusProvider
	health   component.HealthProvider
	eventBus events.Bus
	spec     *openapi3.T
	addr     string
	server   *http.Server
	mu       sync.RWMutex
	running  bool
}

func New(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.API.Enabled {
		return nil, nil
	}
	if deps.Relay == nil {
		return nil, fmt.Errorf("%s requires the relay status", Namespace)
	}

	spec := buildOpenAPISpec()
	if err := spec.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	return &Component{
		Base:     component.NewBase(Namespace),
		logger:   logger.Get(logger.API),
		relay:    deps.Relay,
		health:   deps.Health,
		eventBus: deps.EventBus,
		spec:     spec,
		addr:     deps.Config.API.ListenAddress,
	}, nil
}

func (c *Component) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", c.handleStatus)
	mux.HandleFunc("GET /api/openapi.json", c.handleOpenAPI)
	mux.HandleFunc("GET /healthz", c.handleHealth)
	mux.HandleFunc("GET /readyz", c.handleReady)
	return mux
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting API server", "addr", c.addr)

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
		c.logger.Info("API server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("API server error", "error", err)
		}
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	})

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping API server")

	c.mu.RLock()
	server := c.server
	c.mu.RUnlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}

	c.StopContext()
	return nil
}

func (c *Component) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.addr
}

func (c *Component) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Relay: c.relay.Status()}
	if c.eventBus != nil {
		resp.Bus = c.eventBus.Stats()
	}
	c.writeJSON(w, http.StatusOK, resp)
}

func (c *Component) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	data, err := c.spec.MarshalJSON()
	if err != nil {
		c.logger.Error("Failed to marshal OpenAPI document", "error", err)
		c.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (c *Component) handleHealth(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: version.Short()})
}

// handleReady reports 503 until every critical watchdog target is up. Without
// a watchdog the daemon is always ready.
func (c *Component) handleReady(w http.ResponseWriter, r *http.Request) {
	if c.health == nil {
		c.writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
		return
	}

	resp := ReadyResponse{Targets: c.health.GetAllStates()}
	if c.health.IsReady() {
		resp.Status = "ready"
		c.writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Status = "not_ready"
	c.writeJSON(w, http.StatusServiceUnavailable, resp)
}

func (c *Component) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		c.logger.Debug("Failed to write response", "error", err)
	}
}
