package models

type RelayStatus struct {
	Endpoint   string            `json:"endpoint"`
	Received   uint64            `json:"received"`
	Malformed  uint64            `json:"malformed"`
	Skipped    uint64            `json:"skipped"`
	Delivered  uint64            `json:"delivered"`
	Failed     map[string]uint64 `json:"failed"`
	LastStatus int               `json:"last_status,omitempty"`
}
