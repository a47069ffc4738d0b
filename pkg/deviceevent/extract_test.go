package deviceevent

import (
	"errors"
	"testing"
	"time"

	"github.com/winlab/netconflogger/pkg/models"
)

const deviceAdded = "DeviceEvent{time=2022-04-04T07:17:21.038Z, type=DEVICE_ADDED, subject=DefaultDevice{id=netconf:172.19.0.3:830, type=VIRTUAL}}"

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Record
	}{
		{
			name: "device added",
			raw:  deviceAdded,
			want: Record{
				DeviceID:  "netconf:172.19.0.3:830",
				Kind:      "DEVICE_ADDED",
				Timestamp: "2022-04-04T07:17:21.038Z",
			},
		},
		{
			name: "full controller dump",
			raw:  "DeviceEvent{time=2022-04-04T07:17:21.038Z, type=DEVICE_REMOVED, subject=DefaultDevice{id=netconf:172.19.0.3:830, type=VIRTUAL, manufacturer=Of-Config, hwVersion=VirtualBox, swVersion=1.0, serialNumber=1, driver=ovs-netconf}}",
			want: Record{
				DeviceID:  "netconf:172.19.0.3:830",
				Kind:      "DEVICE_REMOVED",
				Timestamp: "2022-04-04T07:17:21.038Z",
			},
		},
		{
			name: "surrounding whitespace",
			raw:  "  DeviceEvent {  time = 2022-04-04T07:17:21.038Z ,type=  DEVICE_AVAILABILITY_CHANGED\t,  subject = DefaultDevice {  id =of:0000000000000001 , type=SWITCH } }  ",
			want: Record{
				DeviceID:  "of:0000000000000001",
				Kind:      "DEVICE_AVAILABILITY_CHANGED",
				Timestamp: "2022-04-04T07:17:21.038Z",
			},
		},
		{
			name: "no type tag",
			raw:  "{time=t1, type=k1, subject={id=d1, type=x}}",
			want: Record{DeviceID: "d1", Kind: "k1", Timestamp: "t1"},
		},
		{
			name: "empty values are not validated",
			raw:  "E{time=, type=, subject=D{id=, type=}}",
			want: Record{},
		},
		{
			name: "scalar fields before subject are skipped",
			raw:  "DeviceEvent{time=t, type=PORT_UPDATED, extra=1, subject=DefaultDevice{id=of:1, type=SWITCH}}",
			want: Record{DeviceID: "of:1", Kind: "PORT_UPDATED", Timestamp: "t"},
		},
		{
			name: "trailing fields after subject are ignored",
			raw:  "E{time=t, type=k, subject=D{id=d, a=b}, extra=1}",
			want: Record{DeviceID: "d", Kind: "k", Timestamp: "t"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.raw)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtract_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		delim  byte
		offset int
	}{
		{name: "no brace", raw: "malformed", delim: '{', offset: 9},
		{name: "empty", raw: "", delim: '{', offset: 0},
		{name: "whitespace only", raw: "  \t ", delim: '{', offset: 4},
		{name: "first key has no equals", raw: "E{time, type=k, subject=D{id=d, t=x}}", delim: '=', offset: 6},
		{name: "timestamp not terminated", raw: "E{time=t", delim: ',', offset: 8},
		{name: "single outer field", raw: "E{time=t}", delim: ',', offset: 8},
		{name: "kind not terminated", raw: "E{time=t, type=k}", delim: ',', offset: 16},
		{name: "subject is not an object", raw: "E{time=t, type=PORT_STATS_UPDATED, subject=of:1}", delim: '{', offset: 47},
		{name: "subject missing", raw: "E{time=t, type=k, }", delim: '{', offset: 18},
		{name: "only scalars after kind", raw: "E{time=t, type=k, a=1, b=2}", delim: '{', offset: 26},
		{name: "device id has no equals", raw: "E{time=t, type=k, subject=D{id}}", delim: '=', offset: 30},
		{name: "single key subject", raw: "E{time=t, type=k, subject=D{id=d}}", delim: ',', offset: 32},
		{name: "kind field missing", raw: "E{time=t, subject=D{id=d, type=x}}", delim: ',', offset: 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.raw)
			if err == nil {
				t.Fatalf("Extract() = %+v, want error", got)
			}
			if got != (Record{}) {
				t.Errorf("Extract() returned partial record %+v", got)
			}
			if !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("error %v does not match ErrMalformedEvent", err)
			}

			var merr *MalformedEventError
			if !errors.As(err, &merr) {
				t.Fatalf("error %T is not *MalformedEventError", err)
			}
			if merr.Delimiter != tt.delim {
				t.Errorf("Delimiter = %q, want %q", merr.Delimiter, tt.delim)
			}
			if merr.Offset != tt.offset {
				t.Errorf("Offset = %d, want %d", merr.Offset, tt.offset)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		raw  string
		want models.DeviceEventType
	}{
		{raw: deviceAdded, want: models.DeviceAdded},
		{raw: "E{time=t, type=PORT_STATS_UPDATED, subject=of:1}", want: models.PortStatsUpdated},
		{raw: "malformed", want: ""},
		{raw: "E{time=t}", want: ""},
	}

	for _, tt := range tests {
		if got := KindOf(tt.raw); got != tt.want {
			t.Errorf("KindOf(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFromDeviceEventMatchesExtract(t *testing.T) {
	events := []models.DeviceEvent{
		{
			Type: models.DeviceAdded,
			Time: time.Date(2022, 4, 4, 7, 17, 21, 38_000_000, time.UTC),
			Subject: models.Device{
				ID:           "netconf:172.19.0.3:830",
				Type:         "VIRTUAL",
				Manufacturer: "Of-Config",
				Driver:       "ovs-netconf",
			},
		},
		{
			Type:    models.DeviceAvailabilityChanged,
			Time:    time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC),
			Subject: models.Device{ID: "of:0000000000000001"},
		},
	}

	for _, e := range events {
		parsed, err := Extract(e.String())
		if err != nil {
			t.Fatalf("Extract(%q) error = %v", e.String(), err)
		}
		if structured := FromDeviceEvent(e); parsed != structured {
			t.Errorf("parsed %+v != structured %+v", parsed, structured)
		}
	}
}
