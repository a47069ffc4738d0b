// Package exporter serves the relay metrics in the Prometheus text format.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/winlab/netconflogger/pkg/component"
	"github.com/winlab/netconflogger/pkg/events"
	"github.com/winlab/netconflogger/pkg/logger"
	"github.com/winlab/netconflogger/pkg/metrics"
)

const Namespace = "exporter.prometheus"

func init() {
	component.Register(Namespace, New)
}

type Component struct {
	*component.Base
	logger  *slog.Logger
	metrics *metrics.Metrics
	addr    string
	server  *http.Server
	mu      sync.RWMutex
	running bool
}

type Status struct {
	State         string `json:"state"`
	ListenAddress string `json:"listen_address,omitempty"`
	ServerRunning bool   `json:"server_running,omitempty"`
}

func New(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.Exporter.Enabled {
		return nil, nil
	}
	if deps.Metrics == nil {
		return nil, fmt.Errorf("%s requires metrics", Namespace)
	}

	if deps.EventBus != nil {
		bus := deps.EventBus
		collector, err := metrics.NewStructCollector(func() events.Stats { return bus.Stats() })
		if err != nil {
			return nil, fmt.Errorf("bus stats collector: %w", err)
		}
		if err := deps.Metrics.Registry().Register(collector); err != nil {
			return nil, fmt.Errorf("register bus stats collector: %w", err)
		}
	}

	return &Component{
		Base:    component.NewBase(Namespace),
		logger:  logger.Get(logger.Exporter),
		metrics: deps.Metrics,
		addr:    deps.Config.Exporter.ListenAddress,
	}, nil
}

func (c *Component) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.metrics.Registry(), promhttp.HandlerOpts{}))
	return mux
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting Prometheus exporter", "addr", c.addr)

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
		c.logger.Info("Prometheus HTTP server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("Prometheus HTTP server error", "error", err)
		}
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	})

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping Prometheus exporter")

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

func (c *Component) GetStatus() *Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state := "stopped"
	if c.running {
		state = "running"
	}

	return &Status{
		State:         state,
		ListenAddress: c.addr,
		ServerRunning: c.running,
	}
}
