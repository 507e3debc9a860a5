// Package settings persists the user's mode and current project next to the database.
package settings

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/errors"
)

// FileName is the settings file inside the base directory.
const FileName = "settings.json"

// Mode controls whether network-backed features may run.
type Mode string

const (
	// Offline never calls bibliographic providers.
	Offline Mode = "offline"
	// Hybrid allows provider calls.
	Hybrid Mode = "hybrid"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Offline:
		return Offline, nil
	case Hybrid:
		return Hybrid, nil
	}
	return "", errors.NewInvalidRequest("mode must be \"offline\" or \"hybrid\"")
}

type state struct {
	Mode           Mode   `json:"mode"`
	CurrentProject string `json:"current_project"`
}

// Settings is a small JSON-file-backed key store. Safe for concurrent use
// within one process.
type Settings struct {
	path string
	mu   sync.Mutex
}

// Open returns Settings stored under baseDir. The file is created on first write.
func Open(baseDir string) *Settings {
	return &Settings{path: filepath.Join(baseDir, FileName)}
}

// Mode returns the current mode. Defaults to Offline.
func (s *Settings) Mode() (Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return "", err
	}
	return st.Mode, nil
}

// SetMode stores the mode.
func (s *Settings) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	return s.update(func(st *state) { st.Mode = m })
}

// Online reports whether the mode allows provider calls. Read errors count as offline.
func (s *Settings) Online() bool {
	m, err := s.Mode()
	return err == nil && m == Hybrid
}

// CurrentProject returns the selected project id. Defaults to the default project.
func (s *Settings) CurrentProject() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return "", err
	}
	return st.CurrentProject, nil
}

// SetCurrentProject selects a project. An empty id selects the default project.
func (s *Settings) SetCurrentProject(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		id = card.DefaultProjectID
	}
	return s.update(func(st *state) { st.CurrentProject = id })
}

// ResetProjectIfCurrent falls back to the default project when id is selected.
func (s *Settings) ResetProjectIfCurrent(id string) error {
	return s.update(func(st *state) {
		if st.CurrentProject == id {
			st.CurrentProject = card.DefaultProjectID
		}
	})
}

func (s *Settings) update(fn func(st *state)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	fn(st)
	return s.save(st)
}

func (s *Settings) load() (*state, error) {
	st := &state{Mode: Offline, CurrentProject: card.DefaultProjectID}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return nil, errors.NewInternal(err)
	}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, errors.NewInternal(err)
	}
	if st.Mode == "" {
		st.Mode = Offline
	}
	if st.CurrentProject == "" {
		st.CurrentProject = card.DefaultProjectID
	}
	return st, nil
}

// save writes atomically via a temp file and rename.
func (s *Settings) save(st *state) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.NewInternal(err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.NewInternal(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return errors.NewInternal(err)
	}
	return nil
}
