// Package relay turns device lifecycle notifications from the event bus into
// collector records and forwards them.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/winlab/netconflogger/pkg/component"
	"github.com/winlab/netconflogger/pkg/deviceevent"
	"github.com/winlab/netconflogger/pkg/events"
	"github.com/winlab/netconflogger/pkg/forwarder"
	"github.com/winlab/netconflogger/pkg/logger"
	"github.com/winlab/netconflogger/pkg/metrics"
	"github.com/winlab/netconflogger/pkg/models"
)

// Sender delivers one record. *forwarder.Forwarder implements it.
type Sender interface {
	Forward(ctx context.Context, rec deviceevent.Record, endpoint string) forwarder.Outcome
}

type Component struct {
	*component.Base

	logger   *slog.Logger
	eventBus events.Bus
	sender   Sender
	metrics  *metrics.Metrics
	stats    *Stats

	endpoint            atomic.Value
	forwardUnclassified atomic.Bool

	mu       sync.Mutex
	sub      events.Subscription
	stopping bool
	inflight sync.WaitGroup
}

func New(deps component.Dependencies, sender Sender) (*Component, error) {
	if deps.EventBus == nil {
		return nil, fmt.Errorf("relay requires an event bus")
	}
	if sender == nil {
		return nil, fmt.Errorf("relay requires a sender")
	}

	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	c := &Component{
		Base:     component.NewBase("relay"),
		logger:   logger.Get(logger.Relay),
		eventBus: deps.EventBus,
		sender:   sender,
		metrics:  m,
		stats:    NewStats(),
	}

	c.endpoint.Store("")
	c.forwardUnclassified.Store(true)
	if deps.Config != nil {
		c.endpoint.Store(deps.Config.CollectorEndpoint())
		c.forwardUnclassified.Store(deps.Config.Relay.ForwardUnclassified)
	}

	return c, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting relay", "endpoint", c.Endpoint())

	c.mu.Lock()
	c.stopping = false
	c.sub = c.eventBus.Subscribe(events.TopicDeviceLifecycle, c.handleEvent)
	c.mu.Unlock()

	return nil
}

// Stop releases the bus subscription and waits for deliveries already under
// way, until ctx expires.
func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping relay")

	c.mu.Lock()
	c.stopping = true
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}

	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		c.logger.Warn("Abandoning in-flight deliveries", "error", ctx.Err())
	}

	c.StopContext()
	return nil
}

func (c *Component) Endpoint() string {
	return c.endpoint.Load().(string)
}

// SetEndpoint changes the collector URL for events handled from now on.
func (c *Component) SetEndpoint(endpoint string) {
	old := c.endpoint.Swap(endpoint)
	if old != endpoint {
		c.logger.Info("Collector endpoint changed", "old", old, "new", endpoint)
	}
}

func (c *Component) SetForwardUnclassified(enabled bool) {
	c.forwardUnclassified.Store(enabled)
}

func (c *Component) Status() models.RelayStatus {
	status := c.stats.Snapshot()
	status.Endpoint = c.Endpoint()
	return status
}

func (c *Component) handleEvent(event events.Event) {
	c.mu.Lock()
	if c.stopping {
		c.mu.Unlock()
		return
	}
	c.inflight.Add(1)
	ctx := c.Ctx
	c.mu.Unlock()
	defer c.inflight.Done()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Device event handler panicked", "event_id", event.ID, "panic", r)
		}
	}()

	ev, ok := event.DeviceLifecycle()
	if !ok {
		c.logger.Warn("Unexpected payload on device lifecycle topic", "event_id", event.ID, "type", fmt.Sprintf("%T", event.Data))
		return
	}

	c.Process(ctx, event.ID, ev)
}

// Process runs one notification through the pipeline: classify, build the
// record, forward, account. It never panics on bad input.
func (c *Component) Process(ctx context.Context, eventID string, ev events.DeviceLifecycleEvent) {
	kind := kindOf(ev)

	c.stats.IncrReceived()
	c.metrics.EventReceived(string(kind))

	log := logger.WithDevice(c.logger, logger.DeviceAttrs{
		EventID:   eventID,
		EventType: string(kind),
	})

	// Text with no recognisable type is malformed, not merely unclassified.
	if kind == "" && ev.Device == nil {
		if _, err := deviceevent.Extract(ev.Raw); err != nil {
			c.rejectMalformed(log, ev, err)
			return
		}
	}

	if kind.Classified() {
		switch kind {
		case models.DeviceAdded:
			log.Info("Device added")
		case models.DeviceRemoved:
			log.Info("Device removed")
		case models.DeviceAvailabilityChanged:
			log.Info("Device status changed")
		}
	} else {
		subject, at := describe(ev)
		log.Info("New device event detected", "subject", subject, "time", at)
		if !c.forwardUnclassified.Load() {
			c.stats.IncrSkipped()
			log.Debug("Not forwarding unclassified device event")
			return
		}
	}

	rec, err := buildRecord(ev)
	if err != nil {
		c.rejectMalformed(log, ev, err)
		return
	}

	id := models.DeviceID(rec.DeviceID)
	attrs := logger.DeviceAttrs{
		EventID:      eventID,
		DeviceID:     rec.DeviceID,
		DeviceScheme: id.Scheme(),
		EventType:    rec.Kind,
	}
	if addr, ok := id.Address(); ok {
		attrs.DeviceAddr = addr.String()
	}
	log = logger.WithDevice(c.logger, attrs)
	log.Info("Device event", "timestamp", rec.Timestamp)

	endpoint := c.Endpoint()
	start := time.Now()
	out := c.sender.Forward(ctx, rec, endpoint)
	elapsed := time.Since(start)

	c.stats.RecordOutcome(out)
	c.metrics.ForwardObserved(out.Result(), out.HTTPStatus, elapsed)

	switch {
	case out.Delivered:
		log.Info("Collector responded", "status", out.HTTPStatus, "duration", elapsed)
	case out.Reason == forwarder.ReasonTransportFailure:
		log.Warn("Failed to forward device event",
			"reason", out.Reason,
			"cause", out.Cause,
			"endpoint", endpoint,
			"error", out.Err)
	default:
		log.Error("Failed to forward device event",
			"reason", out.Reason,
			"endpoint", endpoint,
			"error", out.Err)
	}
}

func (c *Component) rejectMalformed(log *slog.Logger, ev events.DeviceLifecycleEvent, err error) {
	c.stats.IncrMalformed()
	c.metrics.EventMalformed()

	var merr *deviceevent.MalformedEventError
	if errors.As(err, &merr) {
		log.Warn("Skipping malformed device event",
			"offset", merr.Offset,
			"delimiter", string(merr.Delimiter),
			"raw", ev.Raw)
		return
	}
	log.Warn("Skipping malformed device event", "raw", ev.Raw, "error", err)
}

func kindOf(ev events.DeviceLifecycleEvent) models.DeviceEventType {
	switch {
	case ev.Kind != "":
		return ev.Kind
	case ev.Device != nil:
		return ev.Device.Type
	default:
		return deviceevent.KindOf(ev.Raw)
	}
}

// buildRecord prefers the structured event and parses the text otherwise.
func buildRecord(ev events.DeviceLifecycleEvent) (deviceevent.Record, error) {
	if ev.Device != nil {
		return deviceevent.FromDeviceEvent(*ev.Device), nil
	}
	return deviceevent.Extract(ev.Raw)
}

// describe returns the subject and time of an event for logging.
func describe(ev events.DeviceLifecycleEvent) (subject, at string) {
	if ev.Device != nil {
		return ev.Device.Subject.String(), ev.Device.Timestamp()
	}

	obj, err := deviceevent.Parse(ev.Raw)
	if err != nil {
		return ev.Raw, ""
	}

	if f, ok := obj.Get("subject"); ok {
		if f.Object != nil {
			subject = f.Object.String()
		} else {
			subject = f.Value
		}
	}
	if f, ok := obj.Get("time"); ok {
		at = f.Value
	}
	return subject, at
}
