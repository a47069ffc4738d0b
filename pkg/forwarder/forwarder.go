// Package forwarder ships normalized device event records to the collector.
//
// Delivery is best effort: one POST per record, no retry, no queue. Forward
// never returns an error or panics; every path ends in an Outcome.
package forwarder

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/winlab/netconflogger/pkg/deviceevent"
	"github.com/winlab/netconflogger/pkg/logger"
)

const (
	DefaultTimeout = 5 * time.Second

	// maxDrain bounds how much of a response body is read before the
	// connection is released.
	maxDrain = 64 << 10
)

var ErrInvalidEndpoint = errors.New("invalid collector endpoint")

// Payload is the wire body. Field names are fixed by the collector.
type Payload struct {
	DeviceID  string `json:"deviceId"`
	EventType string `json:"eventType"`
	Timestamp string `json:"timestamp"`
}

func NewPayload(rec deviceevent.Record) Payload {
	return Payload{
		DeviceID:  rec.DeviceID,
		EventType: rec.Kind,
		Timestamp: rec.Timestamp,
	}
}

type TLSConfig struct {
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify,omitempty" json:"insecure_skip_verify,omitempty"`
	CACertFile         string `yaml:"ca_cert_file,omitempty" json:"ca_cert_file,omitempty"`
}

type Config struct {
	Timeout time.Duration
	TLS     *TLSConfig
	// Client replaces the client built from Timeout and TLS.
	Client *http.Client
}

type Forwarder struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func New(cfg Config) (*Forwarder, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = buildHTTPClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("build HTTP client: %w", err)
		}
	}

	return &Forwarder{
		client:  client,
		timeout: cfg.Timeout,
		logger:  logger.Get(logger.Forwarder),
	}, nil
}

func buildHTTPClient(cfg Config) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.TLS != nil {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: cfg.TLS.InsecureSkipVerify,
		}
		if cfg.TLS.CACertFile != "" {
			caCert, err := os.ReadFile(cfg.TLS.CACertFile)
			if err != nil {
				return nil, fmt.Errorf("read CA cert file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("parse CA cert %s", cfg.TLS.CACertFile)
			}
			tlsConfig.RootCAs = pool
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}, nil
}

// ParseEndpoint accepts absolute http and https URLs with a host.
func ParseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidEndpoint, endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidEndpoint, endpoint)
	}
	return u, nil
}

// Forward POSTs rec as JSON to endpoint once. It is safe for concurrent use.
func (f *Forwarder) Forward(ctx context.Context, rec deviceevent.Record, endpoint string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = failed(ReasonUnknownFailure, fmt.Errorf("panic during send: %v", r))
		}
	}()

	target, err := ParseEndpoint(endpoint)
	if err != nil {
		return failed(ReasonInvalidEndpoint, err)
	}

	body, err := json.Marshal(NewPayload(rec))
	if err != nil {
		return failed(ReasonUnknownFailure, fmt.Errorf("marshal payload: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return failed(ReasonUnknownFailure, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	f.logger.Debug("Sending device event",
		"endpoint", target.Redacted(),
		"device_id", rec.DeviceID,
		"event_type", rec.Kind)

	resp, err := f.client.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	f.logger.Debug("Collector responded",
		"status", resp.StatusCode,
		"device_id", rec.DeviceID)

	return delivered(resp.StatusCode)
}
