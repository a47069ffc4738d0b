package ingress

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/winlab/netconflogger/pkg/deviceevent"
	"github.com/winlab/netconflogger/pkg/events"
	"github.com/winlab/netconflogger/pkg/models"
)

// MaxPayload bounds one ingress body or message.
const MaxPayload = 1 << 20

var ErrEmptyPayload = errors.New("no device events in payload")

// Decode splits one payload into notifications. A JSON payload holds a
// structured DeviceEvent or an array of them; anything else is read as raw
// dumps, one per line.
func Decode(data []byte, contentType string) ([]events.DeviceLifecycleEvent, error) {
	if isJSON(contentType) {
		return decodeJSON(data)
	}

	var out []events.DeviceLifecycleEvent
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64<<10), MaxPayload)
	for sc.Scan() {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		out = append(out, events.DeviceLifecycleEvent{
			Kind: deviceevent.KindOf(raw),
			Raw:  raw,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	if len(out) == 0 {
		return nil, ErrEmptyPayload
	}
	return out, nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

func decodeJSON(data []byte) ([]events.DeviceLifecycleEvent, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	var devs []models.DeviceEvent
	if data[0] == '[' {
		if err := json.Unmarshal(data, &devs); err != nil {
			return nil, fmt.Errorf("decode device events: %w", err)
		}
	} else {
		var d models.DeviceEvent
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode device event: %w", err)
		}
		devs = append(devs, d)
	}

	if len(devs) == 0 {
		return nil, ErrEmptyPayload
	}

	out := make([]events.DeviceLifecycleEvent, 0, len(devs))
	for i := range devs {
		d := devs[i]
		if d.Type == "" {
			return nil, fmt.Errorf("device event %d: missing type", i)
		}
		out = append(out, events.DeviceLifecycleEvent{
			Kind:   d.Type,
			Raw:    d.String(),
			Device: &d,
		})
	}
	return out, nil
}

// Publish puts each notification on the device lifecycle topic.
func Publish(bus events.Bus, source string, evs []events.DeviceLifecycleEvent) {
	for _, ev := range evs {
		bus.Publish(events.TopicDeviceLifecycle, events.Event{
			Source: source,
			Data:   ev,
		})
	}
}
