// Package op defines the immutable operation envelope and the closed set of
// typed payloads that make up the append-only log. An op is created once by
// the command layer, persisted once by the op log store, and read many times
// by replay; nothing ever mutates or deletes one.
//
// The wire format is an external contract shared with other implementations:
// one JSON object per op, UTF-8, trailing newline, with the envelope fields
// {schemaVersion, opId, seq, type, ts, actorId, payload}.
package op

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SchemaVersion is the envelope schema version this package reads and writes.
const SchemaVersion = 1

// Type identifies one kind of operation.
type Type string

// The closed set of operation types.
const (
	TypeBoardCreated         Type = "board.created"
	TypeBoardRenamed         Type = "board.renamed"
	TypeListCreated          Type = "list.created"
	TypeListRenamed          Type = "list.renamed"
	TypeListMoved            Type = "list.moved"
	TypeCardCreated          Type = "card.created"
	TypeCardMoved            Type = "card.moved"
	TypeCardUpdated          Type = "card.updated"
	TypeCardArchived         Type = "card.archived"
	TypeCommentAdded         Type = "comment.added"
	TypeChecklistItemAdded   Type = "checklist.itemAdded"
	TypeChecklistItemToggled Type = "checklist.itemToggled"
	TypeChecklistItemRenamed Type = "checklist.itemRenamed"
	TypeChecklistItemRemoved Type = "checklist.itemRemoved"
	TypeMemberAdded          Type = "member.added"
	TypeMemberRoleChanged    Type = "member.roleChanged"
)

// Sentinel errors for envelope decoding.
var (
	// ErrUnknownType indicates an op type outside the closed set.
	ErrUnknownType = errors.New("op: unknown op type")
	// ErrSchemaVersion indicates an envelope schema version this build cannot read.
	ErrSchemaVersion = errors.New("op: unsupported schema version")
)

// Op is one immutable operation record.
type Op struct {
	ID      string    // globally unique, used for idempotency and tie-break
	Seq     int64     // per-replica monotonic, assigned at append time
	Type    Type      // payload discriminator
	TS      time.Time // wall-clock time at append, informational only
	ActorID string    // informational actor identifier
	Payload Payload   // typed payload matching Type
}

// envelope is the wire shape of an op file.
type envelope struct {
	SchemaVersion int             `json:"schemaVersion"`
	OpID          string          `json:"opId"`
	Seq           int64           `json:"seq"`
	Type          Type            `json:"type"`
	TS            string          `json:"ts"`
	ActorID       string          `json:"actorId"`
	Payload       json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the op as its wire envelope. Timestamps are written in
// UTC so two replicas serializing the same op produce identical bytes.
func (o Op) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(o.Payload)
	if err != nil {
		return nil, fmt.Errorf("op: marshal payload for %s: %w", o.ID, err)
	}
	return json.Marshal(envelope{
		SchemaVersion: SchemaVersion,
		OpID:          o.ID,
		Seq:           o.Seq,
		Type:          o.Type,
		TS:            o.TS.UTC().Format(time.RFC3339Nano),
		ActorID:       o.ActorID,
		Payload:       raw,
	})
}

// UnmarshalJSON decodes a wire envelope, dispatching the payload by type.
// Unknown types and unsupported schema versions are hard errors: a log
// written by a newer schema must not be silently folded into wrong state.
func (o *Op) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: %d", ErrSchemaVersion, env.SchemaVersion)
	}
	payload, err := newPayload(env.Type)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(env.Payload, payload); err != nil {
		return fmt.Errorf("op: decode %s payload for %s: %w", env.Type, env.OpID, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, env.TS)
	if err != nil {
		return fmt.Errorf("op: parse ts for %s: %w", env.OpID, err)
	}
	o.ID = env.OpID
	o.Seq = env.Seq
	o.Type = env.Type
	o.TS = ts
	o.ActorID = env.ActorID
	o.Payload = payload
	return nil
}

// newPayload returns a zero payload value for the given type, or
// ErrUnknownType for anything outside the closed set.
func newPayload(t Type) (Payload, error) {
	switch t {
	case TypeBoardCreated:
		return &BoardCreated{}, nil
	case TypeBoardRenamed:
		return &BoardRenamed{}, nil
	case TypeListCreated:
		return &ListCreated{}, nil
	case TypeListRenamed:
		return &ListRenamed{}, nil
	case TypeListMoved:
		return &ListMoved{}, nil
	case TypeCardCreated:
		return &CardCreated{}, nil
	case TypeCardMoved:
		return &CardMoved{}, nil
	case TypeCardUpdated:
		return &CardUpdated{}, nil
	case TypeCardArchived:
		return &CardArchived{}, nil
	case TypeCommentAdded:
		return &CommentAdded{}, nil
	case TypeChecklistItemAdded:
		return &ChecklistItemAdded{}, nil
	case TypeChecklistItemToggled:
		return &ChecklistItemToggled{}, nil
	case TypeChecklistItemRenamed:
		return &ChecklistItemRenamed{}, nil
	case TypeChecklistItemRemoved:
		return &ChecklistItemRemoved{}, nil
	case TypeMemberAdded:
		return &MemberAdded{}, nil
	case TypeMemberRoleChanged:
		return &MemberRoleChanged{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}
