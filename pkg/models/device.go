package models

import (
	"fmt"
	"strings"
	"time"

	"inet.af/netaddr"
)

type DeviceEventType string

const (
	DeviceAdded               DeviceEventType = "DEVICE_ADDED"
	DeviceRemoved             DeviceEventType = "DEVICE_REMOVED"
	DeviceAvailabilityChanged DeviceEventType = "DEVICE_AVAILABILITY_CHANGED"
	DeviceUpdated             DeviceEventType = "DEVICE_UPDATED"
	DeviceSuspended           DeviceEventType = "DEVICE_SUSPENDED"
	PortAdded                 DeviceEventType = "PORT_ADDED"
	PortUpdated               DeviceEventType = "PORT_UPDATED"
	PortRemoved               DeviceEventType = "PORT_REMOVED"
	PortStatsUpdated          DeviceEventType = "PORT_STATS_UPDATED"
)

// Classified reports whether t is one of the lifecycle kinds that get their
// own handling. Everything else goes through the catch-all path.
func (t DeviceEventType) Classified() bool {
	switch t {
	case DeviceAdded, DeviceRemoved, DeviceAvailabilityChanged:
		return true
	}
	return false
}

// TimestampLayout matches the instant format of the controller's event dump.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DeviceID is the controller's device identifier, e.g. "netconf:172.19.0.3:830"
// or "of:0000000000000001".
type DeviceID string

func (id DeviceID) Scheme() string {
	scheme, _, ok := strings.Cut(string(id), ":")
	if !ok {
		return ""
	}
	return scheme
}

// Address returns the management endpoint encoded in the identifier for
// schemes that carry one (netconf:<ip>:<port>, rest:<ip>:<port>).
func (id DeviceID) Address() (netaddr.IPPort, bool) {
	_, rest, ok := strings.Cut(string(id), ":")
	if !ok {
		return netaddr.IPPort{}, false
	}
	ipp, err := netaddr.ParseIPPort(rest)
	if err != nil {
		return netaddr.IPPort{}, false
	}
	return ipp, true
}

type Device struct {
	ID           DeviceID `json:"id"`
	Type         string   `json:"type"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	HwVersion    string   `json:"hw_version,omitempty"`
	SwVersion    string   `json:"sw_version,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	Driver       string   `json:"driver,omitempty"`
}

func (d Device) String() string {
	var b strings.Builder
	b.WriteString("DefaultDevice{id=")
	b.WriteString(string(d.ID))
	b.WriteString(", type=")
	b.WriteString(d.Type)
	optional := []struct{ key, val string }{
		{"manufacturer", d.Manufacturer},
		{"hwVersion", d.HwVersion},
		{"swVersion", d.SwVersion},
		{"serialNumber", d.SerialNumber},
		{"driver", d.Driver},
	}
	for _, kv := range optional {
		if kv.val == "" {
			continue
		}
		fmt.Fprintf(&b, ", %s=%s", kv.key, kv.val)
	}
	b.WriteByte('}')
	return b.String()
}

// DeviceEvent is the structured lifecycle notification delivered by the
// controller. String renders the controller's textual dump of it.
type DeviceEvent struct {
	Type    DeviceEventType `json:"type"`
	Time    time.Time       `json:"time"`
	Subject Device          `json:"subject"`
}

func (e DeviceEvent) Timestamp() string {
	return e.Time.UTC().Format(TimestampLayout)
}

func (e DeviceEvent) String() string {
	return fmt.Sprintf("DeviceEvent{time=%s, type=%s, subject=%s}", e.Timestamp(), e.Type, e.Subject)
}
