// Package oplog owns the append-only operation log on disk: one immutable
// JSON file per op under .kanban/ops/, named so lexicographic filename order
// matches the intended total order, plus the versioned format marker that
// gates all access. The store is the single writer of op files; everything
// else only reads them.
package oplog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gitkan/gitkan/internal/ident"
	"github.com/gitkan/gitkan/internal/op"
)

// seqDigits is the zero-pad width of the filename seq prefix. Wide enough
// that lexicographic and numeric order never diverge in practice; parsed
// file contents remain the ordering ground truth regardless.
const seqDigits = 16

// maxAppendRetries bounds the filename-collision retry loop. A collision
// needs another writer to land the same seq and the same opId, so one retry
// should always suffice; the bound guards against a wedged filesystem.
const maxAppendRetries = 5

// ErrMalformedOp indicates an op file that exists but cannot be parsed.
// It is fatal for the read: a corrupt log must not silently produce wrong
// state.
var ErrMalformedOp = errors.New("oplog: malformed op file")

// Committer is the optional durability adapter hook. When non-nil, the store
// stages and commits each op file right after a successful append. A nil
// Committer is no-git mode and changes nothing about on-disk correctness.
type Committer interface {
	AddAndCommitOp(repoRoot, opPath string, o op.Op) error
}

// Store is the append-only op log for one repository.
type Store struct {
	root      string
	marker    Marker
	committer Committer
}

// Init creates the .kanban layout under repoRoot: the format marker and an
// empty ops directory. It fails if the repo is already initialized.
func Init(repoRoot, actorID string) (*Store, error) {
	if _, err := os.Stat(markerPath(repoRoot)); err == nil {
		return nil, fmt.Errorf("oplog: %s already initialized", repoRoot)
	}
	m := Marker{
		Format:             FormatName,
		FormatVersion:      FormatVersion,
		CreatedAt:          time.Now().UTC(),
		CreatedBy:          CreatedBy{SDK: sdkName, SDKVersion: sdkVersion},
		DefaultWorkspaceID: ident.NewID(),
	}
	if err := writeMarker(repoRoot, m); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opsDir(repoRoot), 0o755); err != nil {
		return nil, fmt.Errorf("oplog: create ops dir: %w", err)
	}
	_ = actorID // informational; recorded per-op, not in the marker
	return &Store{root: repoRoot, marker: m}, nil
}

// Open validates the format marker and returns a store for repoRoot.
// The marker check is the schema-compatibility boundary: a repo written by
// an unknown format or a newer formatVersion is refused here, before any op
// is read.
func Open(repoRoot string) (*Store, error) {
	m, err := readMarker(repoRoot)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opsDir(repoRoot), 0o755); err != nil {
		return nil, fmt.Errorf("oplog: create ops dir: %w", err)
	}
	return &Store{root: repoRoot, marker: m}, nil
}

// SetCommitter installs the optional git durability adapter.
func (s *Store) SetCommitter(c Committer) { s.committer = c }

// Root returns the repository root this store operates on.
func (s *Store) Root() string { return s.root }

// Marker returns the repo's validated format marker.
func (s *Store) Marker() Marker { return s.marker }

// Dir returns the ops directory path, for watchers.
func (s *Store) Dir() string { return opsDir(s.root) }

func opsDir(repoRoot string) string {
	return filepath.Join(repoRoot, ".kanban", "ops")
}

// Append assigns the next seq, writes the op to a temp file, and atomically
// renames it into place. If the final path already exists (a concurrent
// writer landed the identical seq and opId, or a retried rename), it
// re-reads the current max seq and tries again with a fresh seq; an existing
// op file is never overwritten.
func (s *Store) Append(actorID string, payload op.Payload) (op.Op, error) {
	return s.AppendAt(actorID, payload, ident.NewID(), time.Now())
}

// AppendAt is Append with a caller-supplied opId and timestamp, used by
// tests and by replication tooling that re-records ops verbatim.
func (s *Store) AppendAt(actorID string, payload op.Payload, opID string, ts time.Time) (op.Op, error) {
	dir := opsDir(s.root)
	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		maxSeq, err := s.maxSeq()
		if err != nil {
			return op.Op{}, err
		}
		o := op.Op{
			ID:      opID,
			Seq:     maxSeq + 1,
			Type:    payload.Kind(),
			TS:      ts.UTC(),
			ActorID: actorID,
			Payload: payload,
		}
		final := filepath.Join(dir, fileName(o.Seq, o.ID))
		if _, err := os.Stat(final); err == nil {
			// Same seq and opId already on disk; mint a fresh seq.
			continue
		}
		data, err := json.Marshal(o)
		if err != nil {
			return op.Op{}, fmt.Errorf("oplog: marshal op %s: %w", o.ID, err)
		}
		data = append(data, '\n')

		tmp, err := os.CreateTemp(dir, ".tmp-op-*")
		if err != nil {
			return op.Op{}, fmt.Errorf("oplog: create temp op file: %w", err)
		}
		tmpName := tmp.Name()
		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return op.Op{}, fmt.Errorf("oplog: write temp op file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmpName)
			return op.Op{}, fmt.Errorf("oplog: close temp op file: %w", err)
		}
		if err := os.Rename(tmpName, final); err != nil {
			os.Remove(tmpName)
			return op.Op{}, fmt.Errorf("oplog: place op file: %w", err)
		}

		if s.committer != nil {
			if err := s.committer.AddAndCommitOp(s.root, final, o); err != nil {
				// The op is durable on disk; surface the commit failure
				// without rolling the append back.
				return o, fmt.Errorf("oplog: op %s appended but not committed: %w", o.ID, err)
			}
		}
		return o, nil
	}
	return op.Op{}, fmt.Errorf("oplog: append gave up after %d seq collisions", maxAppendRetries)
}

// LoadAll reads every op file and returns the canonical total order:
// ascending seq, ties broken by ascending opId. The order comes from parsed
// file contents, never from directory listing order.
func (s *Store) LoadAll() ([]op.Op, error) {
	return s.LoadSince(0)
}

// LoadSince returns the canonical order restricted to seq > cursorSeq.
// Filenames whose numeric prefix is already at or below the cursor are
// skipped without parsing; everything else is parsed, and parsed (seq, opId)
// is the ordering ground truth.
func (s *Store) LoadSince(cursorSeq int64) ([]op.Op, error) {
	dir := opsDir(s.root)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("oplog: read ops dir: %w", err)
	}

	var ops []op.Op
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if seq, ok := seqFromName(name); ok && seq <= cursorSeq {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("oplog: read %s: %w", name, err)
		}
		var o op.Op
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedOp, name, err)
		}
		if o.Seq <= cursorSeq {
			continue
		}
		ops = append(ops, o)
	}

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Seq != ops[j].Seq {
			return ops[i].Seq < ops[j].Seq
		}
		return ops[i].ID < ops[j].ID
	})
	return ops, nil
}

// MaxSeq returns the highest seq present in the log, or 0 when empty.
func (s *Store) MaxSeq() (int64, error) {
	return s.maxSeq()
}

// maxSeq scans filenames for the highest seq prefix. Filenames are
// authoritative here per the append contract; unparsable names are ignored
// (temp files, editor droppings).
func (s *Store) maxSeq() (int64, error) {
	entries, err := os.ReadDir(opsDir(s.root))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("oplog: read ops dir: %w", err)
	}
	var max int64
	for _, e := range entries {
		if seq, ok := seqFromName(e.Name()); ok && seq > max {
			max = seq
		}
	}
	return max, nil
}

// fileName builds the canonical op filename. Zero-padding keeps
// lexicographic filename order aligned with numeric seq order; opIds are
// lowercase UUIDs, so names never collide on case-insensitive filesystems.
func fileName(seq int64, opID string) string {
	return fmt.Sprintf("%0*d-%s.json", seqDigits, seq, opID)
}

// seqFromName parses the numeric seq prefix from an op filename.
func seqFromName(name string) (int64, bool) {
	base := strings.TrimSuffix(name, ".json")
	dash := strings.IndexByte(base, '-')
	if dash != seqDigits {
		return 0, false
	}
	seq, err := strconv.ParseInt(base[:dash], 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}
