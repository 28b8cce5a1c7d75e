package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Ledger event kinds.
const (
	KindOpAppended     = "op_appended"
	KindDeliveryMarked = "delivery_marked"
	KindDeliveryFailed = "delivery_failed"
	KindHookRegistered = "hook_registered"
)

// Entry is a single ledger record. Delivery entries carry the hookId:opId
// key so a worker can dedupe its at-least-once outbound notifications.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	HookID    string    `json:"hook,omitempty"`
	OpID      string    `json:"op,omitempty"`
	Key       string    `json:"key,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Ledger writes append-only JSONL records of appends and deliveries. It is
// safe for concurrent use. A nil *Ledger is a valid no-op ledger.
type Ledger struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// OpenLedger creates or appends to the JSONL ledger at path.
func OpenLedger(path string) (*Ledger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("hooks: open ledger %s: %w", path, err)
	}
	return &Ledger{file: f, enc: json.NewEncoder(f)}, nil
}

// Record writes one entry, stamping the timestamp if unset.
func (l *Ledger) Record(e Entry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := l.enc.Encode(e); err != nil {
		return fmt.Errorf("hooks: write ledger entry: %w", err)
	}
	return nil
}

// RecordDelivery marks one op as delivered to one hook.
func (l *Ledger) RecordDelivery(hookID, opID string) error {
	return l.Record(Entry{
		Kind:   KindDeliveryMarked,
		HookID: hookID,
		OpID:   opID,
		Key:    DeliveryKey(hookID, opID),
	})
}

// Close flushes and closes the ledger file.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// DeliveryKey builds the idempotency key a delivery worker uses to dedupe
// outbound notifications.
func DeliveryKey(hookID, opID string) string {
	return hookID + ":" + opID
}
