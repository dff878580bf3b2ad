package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/reqdistill/internal/adapters/driven/config/values"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in config.toml. Dotted keys are tables on
// disk, so "llm.model" is written as model under [llm].
type ConfigStore struct {
	*values.Store
	path string
}

// NewConfigStore opens config.toml under configDir, ~/.reqdistill by
// default. A missing file is an empty configuration; a corrupt one is an
// error.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".reqdistill")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{
		Store: values.NewStore(nil),
		path:  filepath.Join(configDir, "config.toml"),
	}
	if err := s.Load(); err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	return s, nil
}

// Set writes the whole file. On failure the previous value is kept.
func (s *ConfigStore) Set(key string, value any) error {
	return s.Update(func(m values.Map) error {
		m[key] = value
		return s.write(m)
	})
}

// Save rewrites the file from memory.
func (s *ConfigStore) Save() error {
	return s.Update(s.write)
}

// Load replaces the in-memory settings with the file's.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.Replace(nil)
		return nil
	}
	if err != nil {
		return err
	}

	var nested map[string]any
	if err := toml.Unmarshal(data, &nested); err != nil {
		return err
	}
	s.Replace(values.Flatten(nested))
	return nil
}

func (s *ConfigStore) Path() string {
	return s.path
}

func (s *ConfigStore) write(m values.Map) error {
	nested, err := m.Nest()
	if err != nil {
		return err
	}
	data, err := toml.Marshal(nested)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(s.path, data, 0600)
}
