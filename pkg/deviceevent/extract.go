// Package deviceevent turns the controller's textual device event dump into
// the record forwarded to the collector.
//
// The dump looks like
//
//	DeviceEvent{time=2022-04-04T07:17:21.038Z, type=DEVICE_ADDED, subject=DefaultDevice{id=netconf:172.19.0.3:830, type=VIRTUAL}}
//
// and carries no schema beyond field order: the first outer value is the
// timestamp, the second the event kind, and the first value of the nested
// subject object is the device identifier.
package deviceevent

import (
	"github.com/winlab/netconflogger/pkg/models"
)

type Record struct {
	DeviceID  string
	Kind      string
	Timestamp string
}

// Extract reads the timestamp, event kind and device identifier out of raw by
// position. It fails with *MalformedEventError when a '{', '=' or ',' is
// missing where it is needed and never returns a partial record.
func Extract(raw string) (Record, error) {
	s := &scanner{src: raw}

	if _, err := s.open(""); err != nil {
		return Record{}, err
	}

	timestamp, err := field(s)
	if err != nil {
		return Record{}, err
	}

	kind, err := field(s)
	if err != nil {
		return Record{}, err
	}

	// Skip ahead to the next object, normally subject=Tag{. Closing the outer
	// object first means there is none.
	if _, err := s.open("}"); err != nil {
		return Record{}, err
	}

	id, err := field(s)
	if err != nil {
		return Record{}, err
	}

	return Record{
		DeviceID:  id,
		Kind:      kind,
		Timestamp: timestamp,
	}, nil
}

func field(s *scanner) (string, error) {
	if _, err := s.key(); err != nil {
		return "", err
	}
	return s.value()
}

// KindOf returns the event kind token of raw, or "" when the dump is too
// damaged to reach it.
func KindOf(raw string) models.DeviceEventType {
	s := &scanner{src: raw}
	if _, err := s.open(""); err != nil {
		return ""
	}
	if _, err := field(s); err != nil {
		return ""
	}
	kind, err := field(s)
	if err != nil {
		return ""
	}
	return models.DeviceEventType(kind)
}

// FromDeviceEvent builds the record straight from a structured event, for
// sources that hand over the controller object rather than its dump.
func FromDeviceEvent(e models.DeviceEvent) Record {
	return Record{
		DeviceID:  string(e.Subject.ID),
		Kind:      string(e.Type),
		Timestamp: e.Timestamp(),
	}
}
