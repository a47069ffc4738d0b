package events

import "github.com/winlab/netconflogger/pkg/models"

// DeviceLifecycleEvent carries one controller notification. Device is set
// when the source has the structured event; Raw is the textual dump.
type DeviceLifecycleEvent struct {
	Kind   models.DeviceEventType
	Raw    string
	Device *models.DeviceEvent
}
