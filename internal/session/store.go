package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const sessionFileName = "session.json"

// record is the on-disk shape of the store file.
type record struct {
	SessionID string    `json:"sessionId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists the session identifier in the profile directory. Writes are
// atomic replacements, so concurrent readers in other processes never observe
// a partial record; ordering between writers is last writer wins.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a Store inside the profile directory, creating the
// directory when needed.
func NewStore(profileDir string) (*Store, error) {
	if profileDir == "" {
		return nil, ErrProfileDirEmpty
	}

	if err := os.MkdirAll(profileDir, 0o700); err != nil { //nolint:mnd
		return nil, errors.Wrap(err, "can't create profile dir")
	}

	return &Store{path: filepath.Join(profileDir, sessionFileName)}, nil
}

// Path returns the backing file location, used by the change watcher.
func (s *Store) Path() string {
	return s.path
}

// Get returns the current session identifier, or empty when none is set.
func (s *Store) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

// Set writes the session identifier. Writing the current value again is a
// no-op, so repeated calls stay idempotent.
func (s *Store) Set(id string) error {
	if id == "" {
		return ErrSessionIDEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err == nil && current == id {
		return nil
	}

	return s.write(record{SessionID: id, UpdatedAt: time.Now().UTC()})
}

// Clear removes the stored identifier. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "can't clear session file")
	}

	return nil
}

func (s *Store) read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}

		return "", errors.Wrap(err, "can't read session file")
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		// a torn or foreign file counts as no session
		log.Warn().Err(err).Str("path", s.path).Msg("ignoring unreadable session file")

		return "", nil
	}

	return r.SessionID, nil
}

// write replaces the file atomically via a temp file and rename.
func (s *Store) write(r record) error {
	out, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "can't encode session record")
	}

	tmp := s.path + ".tmp"

	if err := os.WriteFile(tmp, out, 0o600); err != nil { //nolint:mnd
		return errors.Wrap(err, "can't write session file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "can't replace session file")
	}

	return nil
}
