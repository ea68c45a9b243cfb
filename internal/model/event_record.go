package model

import (
	"encoding/json"
)

// EventRecord is the normalized representation of a pool observation for
// storage.
type EventRecord struct {
	Seq        uint64          `json:"seq"`
	Pool       string          `json:"pool"`
	EventName  string          `json:"event_name"`
	Timestamp  uint64          `json:"timestamp"`
	Data       json.RawMessage `json:"data"`
	IngestedAt string          `json:"ingested_at"`
}

// MarshalJSON ensures EventRecord is encoded with stable field names.
func (er EventRecord) MarshalJSON() ([]byte, error) {
	type Alias EventRecord
	return json.Marshal(Alias(er))
}

// UnmarshalJSON decodes an EventRecord from JSON.
func (er *EventRecord) UnmarshalJSON(data []byte) error {
	type Alias EventRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*er = EventRecord(a)
	return nil
}
