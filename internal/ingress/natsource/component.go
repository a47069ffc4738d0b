// Package natsource feeds device event notifications published on a NATS
// subject into the event bus.
package natsource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/winlab/netconflogger/internal/ingress"
	"github.com/winlab/netconflogger/pkg/component"
	"github.com/winlab/netconflogger/pkg/config"
	"github.com/winlab/netconflogger/pkg/events"
	"github.com/winlab/netconflogger/pkg/logger"
)

const Namespace = "ingress.nats"

func init() {
	component.Register(Namespace, New)
}

type Component struct {
	*component.Base
	logger   *slog.Logger
	eventBus events.Bus
	cfg      config.NATSIngressConfig

	mu   sync.Mutex
	conn *nats.Conn
	sub  *nats.Subscription
}

func New(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.Ingress.NATS.Enabled {
		return nil, nil
	}
	if deps.EventBus == nil {
		return nil, fmt.Errorf("%s requires an event bus", Namespace)
	}

	return &Component{
		Base:     component.NewBase(Namespace),
		logger:   logger.Get(logger.IngressNATS),
		eventBus: deps.EventBus,
		cfg:      deps.Config.Ingress.NATS,
	}, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting NATS ingress", "url", c.cfg.URL, "subject", c.cfg.Subject, "queue", c.cfg.Queue)

	log := c.logger
	conn, err := nats.Connect(c.cfg.URL,
		nats.Name("netconflogger"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS %s: %w", c.cfg.URL, err)
	}

	var sub *nats.Subscription
	if c.cfg.Queue != "" {
		sub, err = conn.QueueSubscribe(c.cfg.Subject, c.cfg.Queue, c.handleMsg)
	} else {
		sub, err = conn.Subscribe(c.cfg.Subject, c.handleMsg)
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("subscribe to %s: %w", c.cfg.Subject, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.sub = sub
	c.mu.Unlock()

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping NATS ingress")

	c.mu.Lock()
	conn, sub := c.conn, c.sub
	c.conn, c.sub = nil, nil
	c.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warn("Failed to unsubscribe", "subject", c.cfg.Subject, "error", err)
		}
	}
	if conn != nil {
		conn.Close()
	}

	c.StopContext()
	return nil
}

func (c *Component) handleMsg(msg *nats.Msg) {
	var contentType string
	if msg.Header != nil {
		contentType = msg.Header.Get("Content-Type")
	}
	c.HandleMessage(msg.Subject, msg.Data, contentType)
}

// HandleMessage decodes one message body and publishes its notifications. It
// returns how many were published.
func (c *Component) HandleMessage(subject string, data []byte, contentType string) int {
	if len(data) > ingress.MaxPayload {
		c.logger.Warn("Dropping oversized NATS message", "subject", subject, "size", len(data))
		return 0
	}

	evs, err := ingress.Decode(data, contentType)
	if err != nil {
		c.logger.Warn("Dropping undecodable NATS message", "subject", subject, "error", err)
		return 0
	}

	ingress.Publish(c.eventBus, Namespace, evs)
	return len(evs)
}
