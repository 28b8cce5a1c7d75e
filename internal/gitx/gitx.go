// Package gitx is the git-shaped durability adapter: the core treats git as
// an opaque primitive for commit and sync, reached through the git CLI. The
// adapter is optional: a nil *Adapter is valid no-git mode, and the absence
// of git never changes the correctness of the on-disk op log.
package gitx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/gitkan/gitkan/internal/op"
)

// Adapter runs git commands against one repository. All methods are nil-safe
// no-ops so callers never branch on "is git present".
type Adapter struct {
	dir string
}

// New returns an adapter for dir if the git binary is available, or nil
// otherwise. A nil return is not an error; callers in no-git mode simply
// carry a nil adapter.
func New(dir string) *Adapter {
	if _, err := exec.LookPath("git"); err != nil {
		return nil
	}
	return &Adapter{dir: dir}
}

// Detect returns an adapter only when dir is already inside a git work tree.
func Detect(ctx context.Context, dir string) *Adapter {
	a := New(dir)
	if a == nil {
		return nil
	}
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--git-dir")
	if err := cmd.Run(); err != nil {
		return nil
	}
	return a
}

// Init initializes a git repository at the adapter's directory. Running it
// on an existing repository is harmless.
func (a *Adapter) Init(ctx context.Context) error {
	if a == nil {
		return nil
	}
	return a.run(ctx, "init")
}

// Add stages the given paths.
func (a *Adapter) Add(ctx context.Context, paths ...string) error {
	if a == nil || len(paths) == 0 {
		return nil
	}
	return a.run(ctx, append([]string{"add", "--"}, paths...)...)
}

// Commit creates a commit with the given message. The actor and timestamp
// are recorded in the message trailer rather than as git author identity,
// since actor ids are informational strings, not git identities.
func (a *Adapter) Commit(ctx context.Context, message, actorID string, ts time.Time) error {
	if a == nil {
		return nil
	}
	msg := fmt.Sprintf("%s\n\nActor: %s\nTimestamp: %s", message, actorID, ts.UTC().Format(time.RFC3339))
	return a.run(ctx, "commit", "-m", msg)
}

// AddAndCommitOp stages one op file and commits it, satisfying the op log
// store's Committer hook. Called synchronously after each successful append;
// never from the replay path.
func (a *Adapter) AddAndCommitOp(repoRoot, opPath string, o op.Op) error {
	if a == nil {
		return nil
	}
	ctx := context.Background()
	if err := a.Add(ctx, opPath); err != nil {
		return err
	}
	msg := fmt.Sprintf("op %s seq %d (%s)", o.Type, o.Seq, o.ID)
	return a.Commit(ctx, msg, o.ActorID, o.TS)
}

// Status describes the repository's sync position.
type Status struct {
	Branch string
	Ahead  int
	Behind int
	Dirty  bool
	Raw    string
}

// Status reports the current branch, ahead/behind counts against the
// upstream (zero when no upstream is configured), and whether the work tree
// is dirty.
func (a *Adapter) Status(ctx context.Context) (Status, error) {
	if a == nil {
		return Status{}, nil
	}
	var st Status

	out, err := a.output(ctx, "status", "--porcelain")
	if err != nil {
		return Status{}, err
	}
	st.Raw = out
	st.Dirty = strings.TrimSpace(out) != ""

	if branch, err := a.output(ctx, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		st.Branch = strings.TrimSpace(branch)
	}

	// No upstream is common for a fresh local repo; leave counts at zero.
	if counts, err := a.output(ctx, "rev-list", "--left-right", "--count", "@{upstream}...HEAD"); err == nil {
		fields := strings.Fields(counts)
		if len(fields) == 2 {
			st.Behind, _ = strconv.Atoi(fields[0])
			st.Ahead, _ = strconv.Atoi(fields[1])
		}
	}
	return st, nil
}

// Fetch fetches from the remote. Empty remote and branch fall back to git's
// configured defaults.
func (a *Adapter) Fetch(ctx context.Context, remote, branch string) error {
	return a.sync(ctx, "fetch", remote, branch)
}

// Pull pulls from the remote.
func (a *Adapter) Pull(ctx context.Context, remote, branch string) error {
	return a.sync(ctx, "pull", remote, branch)
}

// Push pushes to the remote.
func (a *Adapter) Push(ctx context.Context, remote, branch string) error {
	return a.sync(ctx, "push", remote, branch)
}

func (a *Adapter) sync(ctx context.Context, verb, remote, branch string) error {
	if a == nil {
		return nil
	}
	args := []string{verb}
	if remote != "" {
		args = append(args, remote)
		if branch != "" {
			args = append(args, branch)
		}
	}
	return a.run(ctx, args...)
}

func (a *Adapter) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", a.dir}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("gitx: git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (a *Adapter) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", a.dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("gitx: git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
