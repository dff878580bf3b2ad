package memory

import (
	"github.com/custodia-labs/reqdistill/internal/adapters/driven/config/values"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory only. Tests seed it with the
// value types a TOML decoder produces.
type ConfigStore struct {
	*values.Store
}

func NewConfigStore(seed ...map[string]any) *ConfigStore {
	merged := make(values.Map)
	for _, m := range seed {
		for k, v := range m {
			merged[k] = v
		}
	}
	return &ConfigStore{Store: values.NewStore(merged)}
}

func (s *ConfigStore) Set(key string, value any) error {
	return s.Update(func(m values.Map) error {
		m[key] = value
		return nil
	})
}
