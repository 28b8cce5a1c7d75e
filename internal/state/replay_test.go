package state

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gitkan/gitkan/internal/op"
)

const workspaceID = "ws-test"

var foldTS = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func mkOp(seq int64, opID, actorID string, p op.Payload) op.Op {
	return op.Op{ID: opID, Seq: seq, Type: p.Kind(), TS: foldTS, ActorID: actorID, Payload: p}
}

// boardFixture is a small well-formed log: one board, two lists, two cards.
func boardFixture() []op.Op {
	return []op.Op{
		mkOp(1, "op-01", "alice", &op.BoardCreated{BoardID: "b1", Title: "Roadmap"}),
		mkOp(2, "op-02", "alice", &op.ListCreated{ListID: "l1", BoardID: "b1", Title: "Todo", Position: 1000}),
		mkOp(3, "op-03", "alice", &op.ListCreated{ListID: "l2", BoardID: "b1", Title: "Done", Position: 2000}),
		mkOp(4, "op-04", "alice", &op.CardCreated{CardID: "c1", ListID: "l1", BoardID: "b1", Title: "Fix login bug", Position: 1000}),
		mkOp(5, "op-05", "bob", &op.CardCreated{CardID: "c2", ListID: "l1", BoardID: "b1", Title: "Write docs", Position: 2000}),
	}
}

// stateJSON renders a rebuild result for order-sensitive equality checks.
func stateJSON(t *testing.T, res Result) string {
	t.Helper()
	data, err := json.Marshal(struct {
		State     *State     `json:"state"`
		Seq       int64      `json:"seq"`
		Conflicts []Conflict `json:"conflicts"`
	}{res.State, res.AppliedThroughSeq, res.Conflicts})
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	return string(data)
}

func TestRebuildDeterminism(t *testing.T) {
	t.Parallel()

	ops := boardFixture()
	a := stateJSON(t, Rebuild(ops, workspaceID))
	b := stateJSON(t, Rebuild(ops, workspaceID))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("two rebuilds differ (-first +second):\n%s", diff)
	}
}

func TestRebuildOrderInvariance(t *testing.T) {
	t.Parallel()

	ops := boardFixture()
	want := stateJSON(t, Rebuild(ops, workspaceID))

	// Simulate OS-dependent readdir order: the engine must resort by
	// parsed (seq, opId) itself.
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]op.Op, len(ops))
		copy(shuffled, ops)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := stateJSON(t, Rebuild(shuffled, workspaceID)); got != want {
			t.Fatalf("shuffle %d changed the rebuild result", i)
		}
	}
}

func TestRebuildSeedsWorkspace(t *testing.T) {
	t.Parallel()

	res := Rebuild(nil, workspaceID)
	if res.State.Workspace.ID != workspaceID {
		t.Errorf("workspace id = %q, want %q", res.State.Workspace.ID, workspaceID)
	}
	if res.AppliedThroughSeq != 0 {
		t.Errorf("appliedThroughSeq = %d, want 0 for empty log", res.AppliedThroughSeq)
	}
}

func TestAppliedThroughSeq(t *testing.T) {
	t.Parallel()

	res := Rebuild(boardFixture(), workspaceID)
	if res.AppliedThroughSeq != 5 {
		t.Errorf("appliedThroughSeq = %d, want 5", res.AppliedThroughSeq)
	}
}

func TestBoardCreatedBootstrapsEditor(t *testing.T) {
	t.Parallel()

	res := Rebuild(boardFixture(), workspaceID)
	b := res.State.Boards["b1"]
	if b == nil {
		t.Fatal("board b1 missing")
	}
	if b.Members["alice"] != RoleEditor {
		t.Errorf("creator role = %q, want editor", b.Members["alice"])
	}
}

func TestListAndCardOrdering(t *testing.T) {
	t.Parallel()

	ops := append(boardFixture(),
		// Same position as l1; id breaks the tie.
		mkOp(6, "op-06", "alice", &op.ListCreated{ListID: "l0", BoardID: "b1", Title: "Inbox", Position: 1000}),
		mkOp(7, "op-07", "alice", &op.ListMoved{ListID: "l2", Position: 500}),
	)
	res := Rebuild(ops, workspaceID)

	b := res.State.Boards["b1"]
	want := []string{"l2", "l0", "l1"}
	if diff := cmp.Diff(want, b.ListIDs); diff != "" {
		t.Errorf("listIds (-want +got):\n%s", diff)
	}

	l1 := res.State.Lists["l1"]
	if diff := cmp.Diff([]string{"c1", "c2"}, l1.CardIDs); diff != "" {
		t.Errorf("cardIds (-want +got):\n%s", diff)
	}
}

func TestCardMoveIsAtomic(t *testing.T) {
	t.Parallel()

	ops := append(boardFixture(),
		mkOp(6, "op-06", "alice", &op.CardMoved{CardID: "c1", ListID: "l2", Position: 1000}),
	)
	res := Rebuild(ops, workspaceID)

	c := res.State.Cards["c1"]
	if c.ListID != "l2" || c.Position != 1000 {
		t.Errorf("card after move: listId=%s pos=%d, want l2/1000", c.ListID, c.Position)
	}
	if diff := cmp.Diff([]string{"c2"}, res.State.Lists["l1"].CardIDs); diff != "" {
		t.Errorf("source list (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c1"}, res.State.Lists["l2"].CardIDs); diff != "" {
		t.Errorf("dest list (-want +got):\n%s", diff)
	}
}

func TestCardUpdatedPartialAndDueDateClear(t *testing.T) {
	t.Parallel()

	title := "Fix login bug (urgent)"
	ops := append(boardFixture(),
		mkOp(6, "op-06", "alice", &op.CardUpdated{CardID: "c1", DueDate: op.SetDueDate("2026-06-01")}),
		mkOp(7, "op-07", "alice", &op.CardUpdated{CardID: "c1", Title: &title}),
		mkOp(8, "op-08", "alice", &op.CardUpdated{CardID: "c1", DueDate: op.ClearDueDate()}),
	)
	res := Rebuild(ops, workspaceID)

	c := res.State.Cards["c1"]
	if c.Title != title {
		t.Errorf("title = %q, want %q", c.Title, title)
	}
	if c.DueDate != nil {
		t.Errorf("dueDate = %v, want cleared", *c.DueDate)
	}
	if c.Description != "" {
		t.Errorf("description changed by partial update: %q", c.Description)
	}
}

func TestIdempotentFoldRules(t *testing.T) {
	t.Parallel()

	ops := append(boardFixture(),
		// A second creation of an existing card id must not duplicate it.
		mkOp(6, "op-06", "mallory", &op.CardCreated{CardID: "c1", ListID: "l2", BoardID: "b1", Title: "Impostor", Position: 9000}),
		// A second board.created must not reset the creator's role.
		mkOp(7, "op-07", "bob", &op.BoardCreated{BoardID: "b1", Title: "Hijack"}),
	)
	res := Rebuild(ops, workspaceID)

	c := res.State.Cards["c1"]
	if c.Title != "Fix login bug" || c.ListID != "l1" {
		t.Errorf("card.created reapplied over existing card: %+v", c)
	}
	if n := len(res.State.Lists["l2"].CardIDs); n != 0 {
		t.Errorf("dest list gained %d cards from duplicate create", n)
	}
	b := res.State.Boards["b1"]
	if b.Title != "Roadmap" {
		t.Errorf("board title = %q, want Roadmap", b.Title)
	}
	if b.Members["bob"] != RoleEditor {
		// The duplicate create still bootstraps the new actor if unset.
		t.Errorf("bob role = %q, want editor", b.Members["bob"])
	}
}

func TestDefensiveNoOpsForMissingReferents(t *testing.T) {
	t.Parallel()

	ops := []op.Op{
		mkOp(1, "op-01", "a", &op.CardMoved{CardID: "ghost", ListID: "nowhere", Position: 1}),
		mkOp(2, "op-02", "a", &op.ListCreated{ListID: "l1", BoardID: "no-board", Title: "Orphan", Position: 1000}),
		mkOp(3, "op-03", "a", &op.MemberRoleChanged{BoardID: "no-board", MemberID: "x", Role: RoleEditor}),
	}
	res := Rebuild(ops, workspaceID)

	if len(res.State.Cards) != 0 || len(res.State.Lists) != 0 || len(res.State.Boards) != 0 {
		t.Errorf("ops on missing referents materialized entities: %+v", res.State)
	}
	if res.AppliedThroughSeq != 3 {
		t.Errorf("appliedThroughSeq = %d, want 3 (no-ops still count as applied)", res.AppliedThroughSeq)
	}
}

func TestChecklistFold(t *testing.T) {
	t.Parallel()

	ops := append(boardFixture(),
		mkOp(6, "op-06", "alice", &op.ChecklistItemAdded{ItemID: "i2", CardID: "c1", Text: "second", Position: 2000}),
		mkOp(7, "op-07", "alice", &op.ChecklistItemAdded{ItemID: "i1", CardID: "c1", Text: "first", Position: 1000}),
		mkOp(8, "op-08", "alice", &op.ChecklistItemToggled{ItemID: "i1", CardID: "c1", Done: true}),
		mkOp(9, "op-09", "alice", &op.ChecklistItemRenamed{ItemID: "i2", CardID: "c1", Text: "second (edited)"}),
		mkOp(10, "op-10", "alice", &op.ChecklistItemAdded{ItemID: "i3", CardID: "c1", Text: "third", Position: 3000}),
		mkOp(11, "op-11", "alice", &op.ChecklistItemRemoved{ItemID: "i3", CardID: "c1"}),
	)
	res := Rebuild(ops, workspaceID)

	got := res.State.Cards["c1"].Checklist
	want := []ChecklistItem{
		{ID: "i1", Text: "first", Done: true, Position: 1000},
		{ID: "i2", Text: "second (edited)", Position: 2000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("checklist (-want +got):\n%s", diff)
	}
}

func TestMembershipFold(t *testing.T) {
	t.Parallel()

	ops := append(boardFixture(),
		mkOp(6, "op-06", "alice", &op.MemberAdded{BoardID: "b1", MemberID: "carol", Role: RoleViewer}),
		// Duplicate add must not override the existing role.
		mkOp(7, "op-07", "alice", &op.MemberAdded{BoardID: "b1", MemberID: "carol", Role: RoleEditor}),
		mkOp(8, "op-08", "alice", &op.MemberRoleChanged{BoardID: "b1", MemberID: "carol", Role: RoleEditor}),
		// Role change for someone with no membership is a no-op.
		mkOp(9, "op-09", "alice", &op.MemberRoleChanged{BoardID: "b1", MemberID: "nobody", Role: RoleEditor}),
	)
	res := Rebuild(ops, workspaceID)

	b := res.State.Boards["b1"]
	if b.Members["carol"] != RoleEditor {
		t.Errorf("carol role = %q, want editor after explicit change", b.Members["carol"])
	}
	if _, has := b.Members["nobody"]; has {
		t.Error("roleChanged materialized a membership that never existed")
	}
}

func TestCommentFold(t *testing.T) {
	t.Parallel()

	ops := append(boardFixture(),
		mkOp(6, "op-06", "bob", &op.CommentAdded{CommentID: "m1", CardID: "c1", Body: "looks hard"}),
		mkOp(7, "op-07", "bob", &op.CommentAdded{CommentID: "m1", CardID: "c1", Body: "duplicate"}),
	)
	res := Rebuild(ops, workspaceID)

	comments := res.State.Cards["c1"].Comments
	if len(comments) != 1 {
		t.Fatalf("comment count = %d, want 1 (idempotent by id)", len(comments))
	}
	if comments[0].Body != "looks hard" || comments[0].ActorID != "bob" {
		t.Errorf("comment = %+v", comments[0])
	}
}
