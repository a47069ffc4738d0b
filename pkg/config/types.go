package config

import (
	"time"

	"github.com/winlab/netconflogger/pkg/forwarder"
	"github.com/winlab/netconflogger/pkg/logger"
)

const (
	DefaultCollectorURL     = "http://127.0.0.1:8000/v1/netconflogs"
	DefaultIngressAddress   = ":8181"
	DefaultNATSURL          = "nats://127.0.0.1:4222"
	DefaultNATSSubject      = "netconf.device.events"
	DefaultExporterAddress  = ":9090"
	DefaultAPIAddress       = ":8080"
	DefaultEventsQueueSize  = 10000
	DefaultCollectorTimeout = forwarder.DefaultTimeout

	DefaultWatchdogInterval  = 10 * time.Second
	DefaultWatchdogTimeout   = 2 * time.Second
	DefaultWatchdogThreshold = 3
)

type Config struct {
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Collector CollectorConfig `json:"collector" yaml:"collector"`
	Ingress   IngressConfig   `json:"ingress" yaml:"ingress"`
	Exporter  ListenerConfig  `json:"exporter" yaml:"exporter"`
	API       ListenerConfig  `json:"api" yaml:"api"`
	Relay     RelayConfig     `json:"relay" yaml:"relay"`
	Events    EventsConfig    `json:"events" yaml:"events"`
	Watchdog  WatchdogConfig  `json:"watchdog" yaml:"watchdog"`
}

type LoggingConfig struct {
	Format     string                     `json:"format" yaml:"format"`
	Level      logger.LogLevel            `json:"level" yaml:"level"`
	Components map[string]logger.LogLevel `json:"components,omitempty" yaml:"components,omitempty"`
}

type CollectorConfig struct {
	// URL is the full collector resource, e.g. http://127.0.0.1:8000/v1/netconflogs.
	URL string `json:"url" yaml:"url"`
	// Host, when set, replaces the host part of URL and keeps its port.
	Host    string               `json:"host,omitempty" yaml:"host,omitempty"`
	Timeout time.Duration        `json:"timeout" yaml:"timeout"`
	TLS     *forwarder.TLSConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
}

type IngressConfig struct {
	HTTP ListenerConfig    `json:"http" yaml:"http"`
	NATS NATSIngressConfig `json:"nats" yaml:"nats"`
}

type ListenerConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	ListenAddress string `json:"listen_address" yaml:"listen_address"`
}

type NATSIngressConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	URL     string `json:"url" yaml:"url"`
	Subject string `json:"subject" yaml:"subject"`
	Queue   string `json:"queue,omitempty" yaml:"queue,omitempty"`
}

type RelayConfig struct {
	// ForwardUnclassified forwards events other than added, removed and
	// availability-changed with their raw type token as the kind.
	ForwardUnclassified bool `json:"forward_unclassified" yaml:"forward_unclassified"`
}

// WatchdogConfig controls the collector reachability probe. Probe results
// drive /readyz and the collector_up gauge only.
type WatchdogConfig struct {
	Enabled          bool          `json:"enabled" yaml:"enabled"`
	CheckInterval    time.Duration `json:"check_interval" yaml:"check_interval"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`
	FailureThreshold int           `json:"failure_threshold" yaml:"failure_threshold"`
}

type EventsConfig struct {
	QueueSize   int      `json:"queue_size" yaml:"queue_size"`
	DebugTopics []string `json:"debug_topics,omitempty" yaml:"debug_topics,omitempty"`
}

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Format: "text",
			Level:  logger.LogLevelInfo,
		},
		Collector: CollectorConfig{
			URL:     DefaultCollectorURL,
			Timeout: DefaultCollectorTimeout,
		},
		Ingress: IngressConfig{
			HTTP: ListenerConfig{Enabled: true, ListenAddress: DefaultIngressAddress},
			NATS: NATSIngressConfig{URL: DefaultNATSURL, Subject: DefaultNATSSubject},
		},
		Exporter: ListenerConfig{Enabled: true, ListenAddress: DefaultExporterAddress},
		API:      ListenerConfig{Enabled: true, ListenAddress: DefaultAPIAddress},
		Relay:    RelayConfig{ForwardUnclassified: true},
		Events:   EventsConfig{QueueSize: DefaultEventsQueueSize},
		Watchdog: WatchdogConfig{
			Enabled:          true,
			CheckInterval:    DefaultWatchdogInterval,
			Timeout:          DefaultWatchdogTimeout,
			FailureThreshold: DefaultWatchdogThreshold,
		},
	}
}
