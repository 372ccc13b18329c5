package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cjeanneret/ptzgo/internal/debug"
)

// ErrPersist is returned when the state record cannot be written.
// Read failures are never surfaced: Load falls back to defaults.
var ErrPersist = errors.New("state persist failed")

// Bounds are the soft angle limits applied to requested moves, in degrees.
// Invariant: min < max per axis.
type Bounds struct {
	PanMin  float64 `json:"pan_min"`
	PanMax  float64 `json:"pan_max"`
	TiltMin float64 `json:"tilt_min"`
	TiltMax float64 `json:"tilt_max"`
}

// DefaultBounds returns the hardcoded bound defaults. Tilt is limited to
// 30° up so the head cannot fold back onto the mount.
func DefaultBounds() Bounds {
	return Bounds{PanMin: -90, PanMax: 90, TiltMin: -90, TiltMax: 30}
}

// Position is the persisted record: last reached angles plus the bounds
// that were in effect when they were applied.
type Position struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
	Bounds
}

// Defaults returns the record used when nothing has been persisted yet.
func Defaults() Position {
	return Position{Pan: 0, Tilt: 0, Bounds: DefaultBounds()}
}

// Store persists a single Position as a JSON document at a fixed path.
// There is no merge: Save rewrites the whole document.
type Store struct {
	path string
}

// DefaultPath returns the well-known state location under the user's
// cache directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(dir, "ptz_state.json"), nil
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path used by this store.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted record. It never fails: a missing, unreadable
// or corrupt document yields the defaults (fail-open), and fields absent
// from the document keep their default values.
func (s *Store) Load() Position {
	data, err := os.ReadFile(s.path)
	if err != nil {
		debug.Verbose("state: no readable record at %s (%v), using defaults", s.path, err)
		return Defaults()
	}

	pos := Defaults()
	if err := json.Unmarshal(data, &pos); err != nil {
		debug.Verbose("state: corrupt record at %s (%v), using defaults", s.path, err)
		return Defaults()
	}
	return pos
}

// Save rewrites the whole record. The parent directory is created if
// needed; any failure wraps ErrPersist.
func (s *Store) Save(pos Position) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrPersist, filepath.Dir(s.path), err)
	}

	data, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("%w: encode record: %w", ErrPersist, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersist, s.path, err)
	}

	debug.Verbose("state: saved pan=%.2f tilt=%.2f to %s", pos.Pan, pos.Tilt, s.path)
	return nil
}
