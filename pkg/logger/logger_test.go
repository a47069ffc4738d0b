package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, format string, level LogLevel, components map[string]LogLevel) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	SetOutput(&buf)
	Configure(format, level, components)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		Configure("text", LogLevelInfo, nil)
	})
	return &buf
}

func TestEffectiveLevel(t *testing.T) {
	capture(t, "text", LogLevelWarn, map[string]LogLevel{
		"ingress":      LogLevelDebug,
		"ingress.nats": LogLevelError,
	})

	tests := []struct {
		component string
		want      slog.Level
	}{
		{component: "relay", want: slog.LevelWarn},
		{component: "ingress", want: slog.LevelDebug},
		{component: "ingress.http", want: slog.LevelDebug},
		{component: "ingress.nats", want: slog.LevelError},
		{component: "ingress.nats.conn", want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.component, func(t *testing.T) {
			assert.Equal(t, tt.want, getEffectiveLevel(tt.component))
		})
	}
}

func TestTextHandler(t *testing.T) {
	buf := capture(t, "text", LogLevelInfo, nil)

	l := Get(Relay)
	l.Debug("hidden")
	l.Info("Device added", "device_id", "netconf:172.19.0.3:830")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[relay] Device added device_id=netconf:172.19.0.3:830")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestJSONHandler(t *testing.T) {
	buf := capture(t, "json", LogLevelInfo, nil)

	Get(Forwarder).Warn("Collector unreachable", "reason", "transport_failure")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "Collector unreachable", entry["msg"])
	assert.Equal(t, "forwarder", entry["component"])
	assert.Equal(t, "transport_failure", entry["reason"])
}

func TestLevelChangeAppliesToExistingLoggers(t *testing.T) {
	buf := capture(t, "text", LogLevelInfo, nil)

	l := Get(Relay)
	l.Debug("before")

	SetComponentLevel(Relay, LogLevelDebug)
	l.Debug("after")
	assert.Equal(t, map[string]LogLevel{Relay: LogLevelDebug}, GetComponentLevels())

	ClearComponentLevel(Relay)
	l.Debug("cleared")

	out := buf.String()
	assert.NotContains(t, out, "before")
	assert.Contains(t, out, "after")
	assert.NotContains(t, out, "cleared")
	assert.Equal(t, LogLevelInfo, GetDefaultLevel())
}

func TestWithDevice(t *testing.T) {
	buf := capture(t, "text", LogLevelInfo, nil)

	WithDevice(Get(Relay), DeviceAttrs{
		EventID:      "e1",
		DeviceID:     "netconf:172.19.0.3:830",
		DeviceAddr:   "172.19.0.3:830",
		DeviceScheme: "netconf",
		EventType:    "DEVICE_ADDED",
	}).Info("Forwarded")

	assert.Contains(t, buf.String(), "Forwarded event_id=e1 device_id=netconf:172.19.0.3:830 device_addr=172.19.0.3:830 device_scheme=netconf event_type=DEVICE_ADDED")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
