package oplog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Format identity written to and required from format.json. Readers refuse
// any other format or formatVersion before touching the log.
const (
	FormatName    = "kanban-git-repo"
	FormatVersion = 1
)

// SDK identity recorded in the marker at init time.
const (
	sdkName    = "gitkan"
	sdkVersion = "0.1.0"
)

// ErrUnsupportedFormat indicates the repo marker is missing, unreadable, or
// declares a format this build cannot handle. It is fatal: no other access
// to the repo proceeds past it.
var ErrUnsupportedFormat = errors.New("oplog: unsupported repository format")

// CreatedBy identifies the implementation that initialized a repo.
type CreatedBy struct {
	SDK        string `json:"sdk"`
	SDKVersion string `json:"sdkVersion"`
}

// Marker is the versioned descriptor at .kanban/format.json. It is written
// once at init and read on every operation.
type Marker struct {
	Format             string    `json:"format"`
	FormatVersion      int       `json:"formatVersion"`
	CreatedAt          time.Time `json:"createdAt"`
	CreatedBy          CreatedBy `json:"createdBy"`
	DefaultWorkspaceID string    `json:"defaultWorkspaceId"`
}

// markerPath returns the marker file location under repoRoot.
func markerPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".kanban", "format.json")
}

// writeMarker persists the marker, creating the .kanban directory.
func writeMarker(repoRoot string, m Marker) error {
	dir := filepath.Dir(markerPath(repoRoot))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("oplog: create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("oplog: marshal format marker: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(markerPath(repoRoot), data, 0o644); err != nil {
		return fmt.Errorf("oplog: write format marker: %w", err)
	}
	return nil
}

// readMarker loads and validates the marker. Any mismatch is
// ErrUnsupportedFormat, never a silent fallback.
func readMarker(repoRoot string) (Marker, error) {
	data, err := os.ReadFile(markerPath(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return Marker{}, fmt.Errorf("%w: %s not found (not an initialized repo?)", ErrUnsupportedFormat, markerPath(repoRoot))
		}
		return Marker{}, fmt.Errorf("oplog: read format marker: %w", err)
	}
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return Marker{}, fmt.Errorf("%w: unparsable marker: %v", ErrUnsupportedFormat, err)
	}
	if m.Format != FormatName || m.FormatVersion != FormatVersion {
		return Marker{}, fmt.Errorf("%w: found %s v%d, need %s v%d",
			ErrUnsupportedFormat, m.Format, m.FormatVersion, FormatName, FormatVersion)
	}
	return m, nil
}
