package storage

import "pairpool/internal/model"

// EventSink is a sink for normalized pool event records.
type EventSink interface {
	PutEventBatch(events []model.EventRecord) error
}
