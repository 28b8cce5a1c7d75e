package search

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gitkan/gitkan/internal/op"
	"github.com/gitkan/gitkan/internal/state"
)

func mkOp(seq int64, opID string, p op.Payload) op.Op {
	return op.Op{ID: opID, Seq: seq, Type: p.Kind(), ActorID: "a", Payload: p}
}

func searchState(t *testing.T) *state.State {
	t.Helper()
	ops := []op.Op{
		mkOp(1, "op-01", &op.BoardCreated{BoardID: "b1", Title: "Dev"}),
		mkOp(2, "op-02", &op.ListCreated{ListID: "l1", BoardID: "b1", Title: "Todo", Position: 1000}),
		mkOp(3, "op-03", &op.CardCreated{CardID: "c1", ListID: "l1", BoardID: "b1", Title: "Fix login bug", Labels: []string{"auth"}, Position: 1000}),
		mkOp(4, "op-04", &op.CardCreated{CardID: "c2", ListID: "l1", BoardID: "b1", Title: "Write onboarding doc", Description: "covers the login flow", Position: 2000}),
		mkOp(5, "op-05", &op.CardCreated{CardID: "c3", ListID: "l1", BoardID: "b1", Title: "Old login spike", Position: 3000}),
		mkOp(6, "op-06", &op.CardArchived{CardID: "c3"}),
	}
	return state.Rebuild(ops, "ws").State
}

func TestAllTokensMustMatch(t *testing.T) {
	t.Parallel()

	st := searchState(t)
	got := Cards(st, "login fix")
	want := []Match{{CardID: "c1", ListID: "l1", BoardID: "b1", Title: "Fix login bug"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}
}

func TestMatchesTitleDescriptionAndLabels(t *testing.T) {
	t.Parallel()

	st := searchState(t)
	if got := Cards(st, "auth"); len(got) != 1 || got[0].CardID != "c1" {
		t.Errorf("label match = %+v, want c1", got)
	}
	if got := Cards(st, "flow"); len(got) != 1 || got[0].CardID != "c2" {
		t.Errorf("description match = %+v, want c2", got)
	}
}

func TestCaseInsensitive(t *testing.T) {
	t.Parallel()

	st := searchState(t)
	if got := Cards(st, "LOGIN Fix"); len(got) != 1 || got[0].CardID != "c1" {
		t.Errorf("matches = %+v, want c1", got)
	}
}

func TestArchivedCardsExcluded(t *testing.T) {
	t.Parallel()

	st := searchState(t)
	for _, m := range Cards(st, "login") {
		if m.CardID == "c3" {
			t.Error("archived card surfaced in results")
		}
	}
}

func TestDeterministicOrder(t *testing.T) {
	t.Parallel()

	st := searchState(t)
	// c1 at position 1000 sorts before c2 at 2000.
	want := []string{"c1", "c2"}
	for i := 0; i < 5; i++ {
		got := Cards(st, "login")
		if len(got) != 2 || got[0].CardID != want[0] || got[1].CardID != want[1] {
			t.Fatalf("run %d order = %+v, want %v", i, got, want)
		}
	}
}

func TestEmptyQueryReturnsNothing(t *testing.T) {
	t.Parallel()

	st := searchState(t)
	if got := Cards(st, "   "); got != nil {
		t.Errorf("blank query returned %+v", got)
	}
}
