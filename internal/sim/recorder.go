package sim

import (
	"encoding/json"
	"time"

	"pairpool/internal/model"
)

// Recorder collects pool observations as normalized event records.
type Recorder struct {
	seq     uint64
	records []model.EventRecord
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// EmitPoolEvent implements pool.Emitter.
func (r *Recorder) EmitPoolEvent(ev model.PoolEvent) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	r.seq++
	r.records = append(r.records, model.EventRecord{
		Seq:        r.seq,
		Pool:       ev.Pool,
		EventName:  ev.Type,
		Timestamp:  ev.Timestamp,
		Data:       data,
		IngestedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// Drain returns the buffered records and resets the buffer. The sequence
// counter keeps running so records stay globally ordered.
func (r *Recorder) Drain() []model.EventRecord {
	out := r.records
	r.records = nil
	return out
}
