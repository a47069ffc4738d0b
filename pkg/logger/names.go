package logger

const (
	Main        = "main"
	Relay       = "relay"
	Forwarder   = "forwarder"
	Events      = "events"
	Ingress     = "ingress"
	IngressHTTP = "ingress.http"
	IngressNATS = "ingress.nats"
	Exporter    = "exporter.prometheus"
	API         = "api"
	Config      = "config"
	Watchdog    = "watchdog"
)
