package natsource

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/winlab/netconflogger/internal/ingress"
	"github.com/winlab/netconflogger/pkg/component"
	"github.com/winlab/netconflogger/pkg/config"
	"github.com/winlab/netconflogger/pkg/events"
	"github.com/winlab/netconflogger/pkg/events/local"
)

const rawAdded = "DeviceEvent{time=2022-04-04T07:17:21.038Z, type=DEVICE_ADDED, subject=DefaultDevice{id=netconf:172.19.0.3:830, type=VIRTUAL}}"

func newSource(t *testing.T) (*Component, *atomic.Int32) {
	t.Helper()

	bus := local.NewBus()
	t.Cleanup(func() { bus.Close() })

	var count atomic.Int32
	bus.Subscribe(events.TopicDeviceLifecycle, func(e events.Event) {
		if e.Source == Namespace {
			count.Add(1)
		}
	})

	cfg := config.Default()
	cfg.Ingress.NATS.Enabled = true

	comp, err := New(component.Dependencies{EventBus: bus, Config: cfg})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if comp == nil {
		t.Fatal("New() returned nil component while enabled")
	}
	return comp.(*Component), &count
}

func waitCount(t *testing.T, count *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if count.Load() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("published %d events, want %d", count.Load(), want)
}

func TestHandleMessage(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		contentType string
		want        int
	}{
		{name: "raw dump", data: rawAdded, want: 1},
		{name: "two raw dumps", data: rawAdded + "\n" + rawAdded, want: 2},
		{name: "structured", data: `{"type":"DEVICE_REMOVED","subject":{"id":"of:1"}}`, contentType: "application/json", want: 1},
		{name: "empty", data: "", want: 0},
		{name: "bad json", data: `{`, contentType: "application/json", want: 0},
		{name: "oversized", data: strings.Repeat("x", ingress.MaxPayload+1), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, count := newSource(t)

			got := c.HandleMessage("netconf.device.events", []byte(tt.data), tt.contentType)
			if got != tt.want {
				t.Errorf("HandleMessage() = %d, want %d", got, tt.want)
			}
			waitCount(t, count, int32(tt.want))
		})
	}
}

func TestNew_Disabled(t *testing.T) {
	comp, err := New(component.Dependencies{Config: config.Default()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if comp != nil {
		t.Errorf("New() = %v, want nil when disabled", comp)
	}
}

func TestStart_UnreachableServer(t *testing.T) {
	c, _ := newSource(t)
	c.cfg.URL = "nats://127.0.0.1:1"

	if err := c.Start(context.Background()); err == nil {
		c.Stop(context.Background())
		t.Fatal("Start() succeeded without a NATS server")
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Errorf("Stop() after failed Start error = %v", err)
	}
}
