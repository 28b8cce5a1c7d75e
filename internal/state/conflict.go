package state

import (
	"fmt"
	"sort"

	"github.com/gitkan/gitkan/internal/op"
)

// Conflict records that two or more ops sharing one seq wrote different
// values to the same (entityType, entityId, field). Conflicts are derived
// data, recomputed on every replay and never persisted as a source of truth.
// They are informational only: the fold still applies every op in the group,
// so the last write in opId order wins for state purposes while the conflict
// preserves every contending value for human review.
type Conflict struct {
	ID         string               `json:"id"`
	Seq        int64                `json:"seq"`
	EntityType string               `json:"entityType"`
	EntityID   string               `json:"entityId"`
	Field      string               `json:"field"`
	Ops        []op.AttributedWrite `json:"ops"`
}

// conflictID derives the deterministic conflict identifier. Repeated replay
// of the same log yields byte-identical conflict records, which UI diffing
// and tests rely on.
func conflictID(seq int64, entityType, entityID, field string) string {
	return fmt.Sprintf("%016d:%s:%s:%s", seq, entityType, entityID, field)
}

// detectConflicts inspects one seq group (ops sharing a seq, in ascending
// opId order) and returns its conflicts, sorted by conflict id.
//
// All writes from all ops in the group are collected, grouped by
// (entityType, entityId, field), and compared by stable serialization.
// A group with two or more distinct values yields one conflict carrying
// every contributing write, including the ones that agree.
func detectConflicts(group []op.Op) []Conflict {
	type key struct {
		entityType string
		entityID   string
		field      string
	}
	writes := make(map[key][]op.AttributedWrite)
	for _, o := range group {
		for _, w := range o.Writes() {
			k := key{w.EntityType, w.EntityID, w.Field}
			writes[k] = append(writes[k], w)
		}
	}

	var conflicts []Conflict
	for k, ws := range writes {
		if len(ws) < 2 {
			continue
		}
		distinct := make(map[string]struct{}, len(ws))
		for _, w := range ws {
			distinct[op.StableValue(w.Value)] = struct{}{}
		}
		if len(distinct) < 2 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			ID:         conflictID(group[0].Seq, k.entityType, k.entityID, k.field),
			Seq:        group[0].Seq,
			EntityType: k.entityType,
			EntityID:   k.entityID,
			Field:      k.field,
			Ops:        ws,
		})
	}

	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].ID < conflicts[j].ID
	})
	return conflicts
}
