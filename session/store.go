package session

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/cenvi-org/geodash/engine"
)

// ============================================================================
// SESSION PERSISTENCE — Durable Working State
// ============================================================================
// One serialized bundle keyed by a fixed session identifier. Saves are
// best-effort and fire-and-forget: a failed write is logged and the
// interactive session continues — persistence is a convenience, not a
// correctness requirement. Restore reconstructs a full working session
// without re-uploading the file; anything malformed or from an unknown
// schema version is treated as absent.
// ============================================================================

// Version is the persisted bundle schema version. Bundles with any other
// version restore as absent.
const Version = 1

// sessionKey is the fixed identifier the bundle is stored under.
const sessionKey = "geodash-session"

// State is everything needed to reconstruct a working session.
type State struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"savedAt"`

	// Ingested data.
	SourceName string          `json:"sourceName"`
	Columns    []string        `json:"columns"`
	Rows       []engine.Row    `json:"rows"`
	Numeric    map[string]bool `json:"numeric"`
	LatColumn  string          `json:"latColumn,omitempty"`
	LngColumn  string          `json:"lngColumn,omitempty"`
	NameColumn string          `json:"nameColumn,omitempty"`
	Children   map[int][]engine.Row `json:"children,omitempty"`

	// Configuration.
	ActiveColumns []string                    `json:"activeColumns"`
	Renames       map[string]string           `json:"renames,omitempty"`
	Filters       []engine.Filter             `json:"filters,omitempty"`
	Pivots        []engine.PivotConfig        `json:"pivots,omitempty"`
	PivotSorts    map[string]engine.PivotSort `json:"pivotSorts,omitempty"`
	SummaryColumn string                      `json:"summaryColumn,omitempty"`
}

// Store reads and writes the session bundle on a filesystem.
type Store struct {
	fs  afero.Fs
	dir string
	log *slog.Logger
}

// NewStore creates a store rooted at dir. The directory is created on
// first save.
func NewStore(fs afero.Fs, dir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{fs: fs, dir: dir, log: log}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, sessionKey+".json")
}

// Save persists the state. Best-effort: failures are logged, never
// returned — callers must not rely on the write having completed.
func (s *Store) Save(state *State) {
	state.Version = Version
	state.SavedAt = time.Now().UTC()

	data, err := json.Marshal(state)
	if err != nil {
		s.log.Warn("session save failed", "err", err)
		return
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		s.log.Warn("session save failed", "err", err)
		return
	}
	if err := afero.WriteFile(s.fs, s.path(), data, 0o644); err != nil {
		s.log.Warn("session save failed", "err", err)
		return
	}
	s.log.Debug("session saved", "rows", len(state.Rows), "path", s.path())
}

// Restore loads the persisted state. Returns (nil, nil) when nothing
// usable is stored — absent file, malformed JSON, or a different schema
// version all fall back to an empty session rather than an error the
// caller has to handle.
func (s *Store) Restore() (*State, error) {
	data, err := afero.ReadFile(s.fs, s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		s.log.Warn("session restore failed", "err", err)
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Warn("session bundle malformed, starting empty", "err", err)
		return nil, nil
	}
	if state.Version != Version {
		s.log.Warn("session bundle version mismatch, starting empty",
			"found", state.Version, "want", Version)
		return nil, nil
	}
	return &state, nil
}

// Clear removes the persisted bundle.
func (s *Store) Clear() error {
	err := s.fs.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
