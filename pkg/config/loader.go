package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/winlab/netconflogger/pkg/forwarder"
	"gopkg.in/yaml.v3"
)

const (
	EnvCollectorURL  = "NETCONFLOGGER_COLLECTOR_URL"
	EnvCollectorHost = "NETCONFLOGGER_COLLECTOR_HOST"
)

var ErrInvalidCollectorURL = errors.New("invalid collector url")

// Load reads path over the defaults, so a file only needs the keys it
// changes. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// applyDefaults fills values an explicit empty key in the file cleared.
func (c *Config) applyDefaults() {
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Collector.URL == "" {
		c.Collector.URL = DefaultCollectorURL
	}
	if c.Collector.Timeout <= 0 {
		c.Collector.Timeout = DefaultCollectorTimeout
	}
	if c.Ingress.HTTP.ListenAddress == "" {
		c.Ingress.HTTP.ListenAddress = DefaultIngressAddress
	}
	if c.Ingress.NATS.URL == "" {
		c.Ingress.NATS.URL = DefaultNATSURL
	}
	if c.Ingress.NATS.Subject == "" {
		c.Ingress.NATS.Subject = DefaultNATSSubject
	}
	if c.Exporter.ListenAddress == "" {
		c.Exporter.ListenAddress = DefaultExporterAddress
	}
	if c.API.ListenAddress == "" {
		c.API.ListenAddress = DefaultAPIAddress
	}
	if c.Events.QueueSize <= 0 {
		c.Events.QueueSize = DefaultEventsQueueSize
	}
	if c.Watchdog.CheckInterval <= 0 {
		c.Watchdog.CheckInterval = DefaultWatchdogInterval
	}
	if c.Watchdog.Timeout <= 0 {
		c.Watchdog.Timeout = DefaultWatchdogTimeout
	}
	if c.Watchdog.FailureThreshold <= 0 {
		c.Watchdog.FailureThreshold = DefaultWatchdogThreshold
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvCollectorURL)); v != "" {
		c.Collector.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCollectorHost)); v != "" {
		c.Collector.Host = v
	}
}

// Validate rejects settings the daemon cannot start with. A bad collector URL
// is not one of them: it surfaces per event as an invalid endpoint outcome.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	for name, addr := range map[string]string{
		"ingress.http.listen_address": c.Ingress.HTTP.ListenAddress,
		"exporter.listen_address":     c.Exporter.ListenAddress,
		"api.listen_address":          c.API.ListenAddress,
	} {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.Ingress.NATS.Enabled && strings.TrimSpace(c.Ingress.NATS.Subject) == "" {
		return fmt.Errorf("ingress.nats.subject is required when nats ingress is enabled")
	}

	return nil
}

// CollectorEndpoint returns the URL events are posted to, with Host applied.
// An unparsable URL is returned unchanged so the forwarder reports it.
func (c *Config) CollectorEndpoint() string {
	if c.Collector.Host == "" {
		return c.Collector.URL
	}

	u, err := forwarder.ParseEndpoint(c.Collector.URL)
	if err != nil {
		return c.Collector.URL
	}

	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(c.Collector.Host, port)
	} else {
		u.Host = c.Collector.Host
	}
	return u.String()
}

// CheckCollector reports whether the resolved endpoint is usable.
func (c *Config) CheckCollector() error {
	endpoint := c.CollectorEndpoint()
	if _, err := forwarder.ParseEndpoint(endpoint); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidCollectorURL, endpoint, err)
	}
	return nil
}
