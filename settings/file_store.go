package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/nulifyer/gugetctl/logger"
)

type fileData struct {
	ActiveSource string                  `toml:"active_source,omitempty"`
	Settings     map[string]UserSettings `toml:"settings"`
}

// FileStore keeps every session's settings in one TOML file. Add only
// touches memory; Save writes the file.
type FileStore struct {
	path string

	mu   sync.Mutex
	data fileData
}

// DefaultPath is <user config dir>/gugetctl/settings.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "gugetctl", "settings.toml")
}

// OpenFileStore loads path. A missing file yields an empty store. A corrupt
// file yields an empty store together with the parse error so the caller can
// report it and carry on with defaults.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, data: fileData{Settings: map[string]UserSettings{}}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}
	var data fileData
	if err := toml.Unmarshal(raw, &data); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if data.Settings == nil {
		data.Settings = map[string]UserSettings{}
	}
	s.data = data
	return s, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(key string) (*UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	us, ok := s.data.Settings[key]
	if !ok {
		return nil, nil
	}
	return &us, nil
}

func (s *FileStore) Add(key string, us UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Settings[key] = us
	return nil
}

func (s *FileStore) ActiveSourceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ActiveSource
}

// SetActiveSourceName records the name and flushes immediately, since the
// active source is shared by every session.
func (s *FileStore) SetActiveSourceName(name string) error {
	s.mu.Lock()
	s.data.ActiveSource = name
	s.mu.Unlock()
	return s.Save()
}

func (s *FileStore) Save() error {
	s.mu.Lock()
	blob, err := toml.Marshal(s.data)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	return atomicWrite(s.path, blob, 0o644)
}

// atomicWrite writes through a temp file and renames it into place,
// retrying the rename for transient locks on Windows (antivirus, indexers).
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	const maxAttempts = 5
	var err error
	for i := range maxAttempts {
		if err = os.Rename(tmp, path); err == nil {
			return nil
		}
		if i < maxAttempts-1 {
			logger.Debug("rename retry %d/%d for %s: %v", i+1, maxAttempts, path, err)
			time.Sleep(time.Duration(50*(i+1)) * time.Millisecond)
		}
	}
	_ = os.Remove(tmp)
	return err
}
