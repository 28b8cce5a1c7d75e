package op

import (
	"encoding/json"
	"time"
)

// Write is one (entity, field, value) triple an op writes. Conflict detection
// groups writes from a same-seq group by (EntityType, EntityID, Field) and
// compares the stable serialization of their values.
type Write struct {
	EntityType string
	EntityID   string
	Field      string
	Value      any
}

// AttributedWrite is a Write annotated with the op that performed it, as
// recorded in conflict records for human review.
type AttributedWrite struct {
	OpID    string    `json:"opId"`
	TS      time.Time `json:"ts"`
	ActorID string    `json:"actorId"`
	Value   any       `json:"value"`

	EntityType string `json:"-"`
	EntityID   string `json:"-"`
	Field      string `json:"-"`
}

// Writes returns the attributed field writes this op performs.
func (o Op) Writes() []AttributedWrite {
	ws := o.Payload.writes()
	out := make([]AttributedWrite, 0, len(ws))
	for _, w := range ws {
		out = append(out, AttributedWrite{
			OpID:       o.ID,
			TS:         o.TS.UTC(),
			ActorID:    o.ActorID,
			Value:      w.Value,
			EntityType: w.EntityType,
			EntityID:   w.EntityID,
			Field:      w.Field,
		})
	}
	return out
}

// StableValue returns a canonical serialization of a written value for
// structural equality comparison. encoding/json sorts map keys and preserves
// array order, so two deeply equal values always serialize identically and
// two values differing only in array order do not compare equal.
func StableValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Written values come from payload structs and are always
		// JSON-serializable; a failure here indicates a new payload
		// variant carrying an unsupported value type.
		return "!" + err.Error()
	}
	return string(b)
}
