package targets

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/winlab/netconflogger/internal/watchdog"
)

type CollectorCallbacks struct {
	OnDown func()
	OnUp   func()
}

// CollectorTarget dials the collector's host and port. Endpoint is read on
// every check so a reloaded endpoint is probed from the next tick.
type CollectorTarget struct {
	endpoint  func() string
	callbacks CollectorCallbacks
	critical  bool
	dialer    net.Dialer

	mu   sync.Mutex
	addr string
}

func NewCollectorTarget(endpoint func() string, callbacks CollectorCallbacks, critical bool) *CollectorTarget {
	return &CollectorTarget{
		endpoint:  endpoint,
		callbacks: callbacks,
		critical:  critical,
	}
}

func (t *CollectorTarget) Name() string { return "collector" }

func (t *CollectorTarget) Critical() bool { return t.critical }

func (t *CollectorTarget) Address() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addr
}

func (t *CollectorTarget) Check(ctx context.Context) *watchdog.HealthResult {
	start := time.Now()

	addr, err := dialAddress(t.endpoint())
	if err != nil {
		return watchdog.NewHealthResult(false, err, time.Since(start))
	}

	t.mu.Lock()
	t.addr = addr
	t.mu.Unlock()

	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return watchdog.NewHealthResult(false, fmt.Errorf("dial collector: %w", err), time.Since(start))
	}
	conn.Close()

	return watchdog.NewHealthResult(true, nil, time.Since(start))
}

func (t *CollectorTarget) OnDown() {
	if t.callbacks.OnDown != nil {
		t.callbacks.OnDown()
	}
}

func (t *CollectorTarget) OnUp() {
	if t.callbacks.OnUp != nil {
		t.callbacks.OnUp()
	}
}

// dialAddress turns an http(s) URL into host:port, filling in the scheme's
// default port.
func dialAddress(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse collector endpoint: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("collector endpoint %q has no host", endpoint)
	}

	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		default:
			return "", fmt.Errorf("collector endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
