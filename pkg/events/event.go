package events

import "time"

// Event is the bus envelope. ID and Timestamp are filled by the bus when the
// publisher leaves them empty.
type Event struct {
	ID        string
	Type      string
	Timestamp time.Time
	Source    string
	Data      any
}

// DeviceLifecycle returns the notification carried in Data, accepting it by
// value or by pointer.
func (e Event) DeviceLifecycle() (DeviceLifecycleEvent, bool) {
	switch data := e.Data.(type) {
	case DeviceLifecycleEvent:
		return data, true
	case *DeviceLifecycleEvent:
		if data == nil {
			return DeviceLifecycleEvent{}, false
		}
		return *data, true
	default:
		return DeviceLifecycleEvent{}, false
	}
}
