package state

import (
	"strings"
	"testing"

	"github.com/gitkan/gitkan/internal/op"
)

func TestSameSeqDifferentValuesIsConflict(t *testing.T) {
	t.Parallel()

	titleA := "Fix login bug (urgent)"
	titleB := "Fix login"
	ops := append(boardFixture(),
		// Two replicas edited the same card title offline at the same seq.
		mkOp(6, "op-aa", "alice", &op.CardUpdated{CardID: "c1", Title: &titleA}),
		mkOp(6, "op-bb", "bob", &op.CardUpdated{CardID: "c1", Title: &titleB}),
	)
	res := Rebuild(ops, workspaceID)

	if len(res.Conflicts) != 1 {
		t.Fatalf("conflict count = %d, want 1", len(res.Conflicts))
	}
	c := res.Conflicts[0]
	if c.Seq != 6 || c.EntityType != op.EntityCard || c.EntityID != "c1" || c.Field != "title" {
		t.Errorf("conflict = %+v", c)
	}
	if len(c.Ops) != 2 {
		t.Errorf("conflict carries %d ops, want both contenders", len(c.Ops))
	}
	if !strings.HasPrefix(c.ID, "0000000000000006:") {
		t.Errorf("conflict id %q lacks zero-padded seq prefix", c.ID)
	}

	// The fold still applies both: last in opId order wins.
	if got := res.State.Cards["c1"].Title; got != titleB {
		t.Errorf("title = %q, want last-writer %q", got, titleB)
	}
}

func TestSameSeqEqualValuesIsNotConflict(t *testing.T) {
	t.Parallel()

	title := "Same edit twice"
	ops := append(boardFixture(),
		mkOp(6, "op-aa", "alice", &op.CardUpdated{CardID: "c1", Title: &title}),
		mkOp(6, "op-bb", "bob", &op.CardUpdated{CardID: "c1", Title: &title}),
	)
	res := Rebuild(ops, workspaceID)

	if len(res.Conflicts) != 0 {
		t.Errorf("equal values flagged as conflict: %+v", res.Conflicts)
	}
}

func TestDifferentFieldsSameSeqIsNotConflict(t *testing.T) {
	t.Parallel()

	title := "New title"
	desc := "New description"
	ops := append(boardFixture(),
		mkOp(6, "op-aa", "alice", &op.CardUpdated{CardID: "c1", Title: &title}),
		mkOp(6, "op-bb", "bob", &op.CardUpdated{CardID: "c1", Description: &desc}),
	)
	res := Rebuild(ops, workspaceID)

	if len(res.Conflicts) != 0 {
		t.Errorf("disjoint fields flagged as conflict: %+v", res.Conflicts)
	}
	c := res.State.Cards["c1"]
	if c.Title != title || c.Description != desc {
		t.Errorf("both edits should land: %+v", c)
	}
}

func TestDifferentEntitiesSameSeqIsNotConflict(t *testing.T) {
	t.Parallel()

	a := "Edit one"
	b := "Edit two"
	ops := append(boardFixture(),
		mkOp(6, "op-aa", "alice", &op.CardUpdated{CardID: "c1", Title: &a}),
		mkOp(6, "op-bb", "bob", &op.CardUpdated{CardID: "c2", Title: &b}),
	)
	res := Rebuild(ops, workspaceID)

	if len(res.Conflicts) != 0 {
		t.Errorf("distinct entities flagged as conflict: %+v", res.Conflicts)
	}
}

func TestConflictDetectionSeesWholeGroupBeforeApply(t *testing.T) {
	t.Parallel()

	// Three contenders for the card's position, two of which agree. The
	// conflict must list all three writes, not just the disagreeing pair.
	ops := append(boardFixture(),
		mkOp(6, "op-aa", "a", &op.CardMoved{CardID: "c1", ListID: "l1", Position: 3000}),
		mkOp(6, "op-bb", "b", &op.CardMoved{CardID: "c1", ListID: "l1", Position: 4000}),
		mkOp(6, "op-cc", "c", &op.CardMoved{CardID: "c1", ListID: "l1", Position: 3000}),
	)
	res := Rebuild(ops, workspaceID)

	if len(res.Conflicts) != 1 {
		t.Fatalf("conflict count = %d, want 1 (listId writes all agree)", len(res.Conflicts))
	}
	c := res.Conflicts[0]
	if c.Field != "position" {
		t.Errorf("field = %s, want position", c.Field)
	}
	if len(c.Ops) != 3 {
		t.Errorf("conflict carries %d writes, want all 3 contenders", len(c.Ops))
	}
	if res.State.Cards["c1"].Position != 3000 {
		t.Errorf("position = %d, want 3000 from op-cc", res.State.Cards["c1"].Position)
	}
}

func TestConflictsSortedByID(t *testing.T) {
	t.Parallel()

	t1, t2 := "A", "B"
	ops := append(boardFixture(),
		mkOp(6, "op-aa", "a", &op.CardUpdated{CardID: "c2", Title: &t1}),
		mkOp(6, "op-bb", "b", &op.CardUpdated{CardID: "c2", Title: &t2}),
		mkOp(6, "op-cc", "a", &op.CardUpdated{CardID: "c1", Title: &t1}),
		mkOp(6, "op-dd", "b", &op.CardUpdated{CardID: "c1", Title: &t2}),
	)
	res := Rebuild(ops, workspaceID)

	if len(res.Conflicts) != 2 {
		t.Fatalf("conflict count = %d, want 2", len(res.Conflicts))
	}
	if res.Conflicts[0].ID >= res.Conflicts[1].ID {
		t.Errorf("conflicts out of order: %s, %s", res.Conflicts[0].ID, res.Conflicts[1].ID)
	}
	if res.Conflicts[0].EntityID != "c1" || res.Conflicts[1].EntityID != "c2" {
		t.Errorf("entity order = %s, %s", res.Conflicts[0].EntityID, res.Conflicts[1].EntityID)
	}
}

func TestLabelListsCompareAsWholeValues(t *testing.T) {
	t.Parallel()

	a := []string{"bug", "auth"}
	b := []string{"auth", "bug"}
	ops := append(boardFixture(),
		mkOp(6, "op-aa", "a", &op.CardUpdated{CardID: "c1", Labels: &a}),
		mkOp(6, "op-bb", "b", &op.CardUpdated{CardID: "c1", Labels: &b}),
	)
	res := Rebuild(ops, workspaceID)

	// Same elements, different order: distinct serialized values, so conflict.
	if len(res.Conflicts) != 1 {
		t.Fatalf("conflict count = %d, want 1", len(res.Conflicts))
	}
	if res.Conflicts[0].Field != "labels" {
		t.Errorf("field = %s, want labels", res.Conflicts[0].Field)
	}
}
