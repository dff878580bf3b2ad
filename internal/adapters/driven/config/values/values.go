// Package values holds flat, dot-keyed configuration and the lenient
// conversions applied when a key is read. Decoders produce int64 and
// []any where callers expect int and []string; readers here accept both.
package values

import (
	"fmt"
	"maps"
	"strings"
	"sync"
)

// Map is configuration keyed by dotted paths such as "llm.model".
type Map map[string]any

// Flatten turns nested tables into dotted keys.
func Flatten(nested map[string]any) Map {
	flat := make(Map)
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			if prefix != "" {
				k = prefix + "." + k
			}
			if table, ok := v.(map[string]any); ok {
				walk(k, table)
				continue
			}
			flat[k] = v
		}
	}
	walk("", nested)
	return flat
}

// Nest turns dotted keys back into tables. It fails when a key is
// both a value and the prefix of another key.
func (m Map) Nest() (map[string]any, error) {
	root := make(map[string]any)
	for key, value := range m {
		path := strings.Split(key, ".")
		node := root
		for _, part := range path[:len(path)-1] {
			switch child := node[part].(type) {
			case nil:
				table := make(map[string]any)
				node[part] = table
				node = table
			case map[string]any:
				node = child
			default:
				return nil, fmt.Errorf("config key %q conflicts with value at %q", key, part)
			}
		}
		leaf := path[len(path)-1]
		if _, isTable := node[leaf].(map[string]any); isTable {
			return nil, fmt.Errorf("config key %q conflicts with a table", key)
		}
		node[leaf] = value
	}
	return root, nil
}

func (m Map) String(key string) string {
	s, _ := m[key].(string)
	return s
}

func (m Map) Int(key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Float reads integers too, so "threshold = 1" is 1.0.
func (m Map) Float(key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func (m Map) Bool(key string) bool {
	b, _ := m[key].(bool)
	return b
}

// Strings keeps the string elements of a list and drops the rest.
func (m Map) Strings(key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Store is a Map guarded for concurrent use. It provides the read side
// of driven.ConfigStore to the stores that embed it.
type Store struct {
	mu   sync.RWMutex
	data Map
}

// NewStore starts from a copy of seed.
func NewStore(seed Map) *Store {
	s := &Store{}
	s.Replace(seed)
	return s
}

// Replace swaps the contents for a copy of m.
func (s *Store) Replace(m Map) {
	data := make(Map, len(m))
	maps.Copy(data, m)
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
}

// Update applies fn under the write lock. When fn fails the contents
// are rolled back.
func (s *Store) Update(fn func(m Map) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(Map)
	}
	before := maps.Clone(s.data)
	if err := fn(s.data); err != nil {
		s.data = before
		return err
	}
	return nil
}

func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Store) GetString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.String(key)
}

func (s *Store) GetInt(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Int(key)
}

func (s *Store) GetFloat(key string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Float(key)
}

func (s *Store) GetBool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Bool(key)
}

func (s *Store) GetStringSlice(key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Strings(key)
}
