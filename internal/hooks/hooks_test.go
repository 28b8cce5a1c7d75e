package hooks

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gitkan/gitkan/internal/op"
	"github.com/gitkan/gitkan/internal/oplog"
)

func TestRegistryMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	r, err := LoadRegistry(filepath.Join(t.TempDir(), "nope", "hooks.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(r.Hooks) != 0 {
		t.Errorf("hooks = %d, want 0", len(r.Hooks))
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".kanban", "hooks.toml")
	r := &Registry{Hooks: []Hook{
		{ID: "h1", URL: "https://example.com/a", Cursor: 7},
		{ID: "h2", URL: "https://example.com/b"},
	}}
	if err := SaveRegistry(path, r); err != nil {
		t.Fatalf("save: %v", err)
	}

	back, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(r.Hooks, back.Hooks); diff != "" {
		t.Errorf("hooks (-want +got):\n%s", diff)
	}
}

func TestRegistryMalformedFileIsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hooks.toml")
	if err := os.WriteFile(path, []byte("[[hooks]\nid ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Error("malformed registry parsed without error")
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	t.Parallel()

	r := &Registry{}
	r.Upsert(Hook{ID: "h1", URL: "https://old.example.com"})
	r.Upsert(Hook{ID: "h1", URL: "https://new.example.com", Cursor: 3})
	r.Upsert(Hook{ID: "h2", URL: "https://other.example.com"})

	if len(r.Hooks) != 2 {
		t.Fatalf("hooks = %d, want 2", len(r.Hooks))
	}
	h := r.Find("h1")
	if h == nil || h.URL != "https://new.example.com" || h.Cursor != 3 {
		t.Errorf("h1 = %+v", h)
	}
	if r.Find("missing") != nil {
		t.Error("Find invented a hook")
	}
}

func TestDeliveryKey(t *testing.T) {
	t.Parallel()

	if got := DeliveryKey("h1", "op-9"); got != "h1:op-9" {
		t.Errorf("key = %q, want h1:op-9", got)
	}
}

func TestLedgerWritesJSONL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	l, err := OpenLedger(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.Record(Entry{Kind: KindOpAppended, OpID: "op-1"}); err != nil {
		t.Fatal(err)
	}
	if err := l.RecordDelivery("h1", "op-1"); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Kind != KindOpAppended || entries[0].Timestamp.IsZero() {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Key != "h1:op-1" {
		t.Errorf("delivery key = %q, want h1:op-1", entries[1].Key)
	}
}

func TestNilLedgerIsNoOp(t *testing.T) {
	t.Parallel()

	var l *Ledger
	if err := l.Record(Entry{Kind: KindHookRegistered}); err != nil {
		t.Errorf("nil Record: %v", err)
	}
	if err := l.RecordDelivery("h", "o"); err != nil {
		t.Errorf("nil RecordDelivery: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestFeedListOpsSince(t *testing.T) {
	t.Parallel()

	store, err := oplog.Init(t.TempDir(), "actor-test")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := store.Append("a", &op.BoardCreated{BoardID: "b", Title: "T"}); err != nil {
			t.Fatal(err)
		}
	}

	feed := NewFeed(store)
	all, err := feed.LoadOps()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("LoadOps = %d ops, want 3", len(all))
	}
	tail, err := feed.ListOpsSince(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 || tail[0].Seq != 2 {
		t.Errorf("ListOpsSince(1) = %+v, want seqs 2,3", tail)
	}
}
