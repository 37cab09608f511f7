// Package config holds the two configuration layers: process settings taken
// from the environment, and the key/value store the engine reads while a
// session runs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Keys read by the engine.
const (
	KeyAllowMapBuy       = "allow_map_buy"
	KeyAllowSnackBuy     = "allow_snack_buy"
	KeyAllowMemoryToken  = "allow_memory_token"
	KeyAllowlistMap      = "allowlist_map"
	KeyForbidMap         = "forbid_map"
	KeyAllowlistMode     = "allowlist_mode"
	KeyAllowlistModeOnce = "allowlist_mode_once"
	KeyAngleSet          = "angle_set"
	KeyAngle             = "angle"
)

// DefaultAngle is the camera ratio of a client that was never calibrated.
const DefaultAngle = "1.0"

// ErrMalformed reports a value whose type does not match what the key needs.
var ErrMalformed = errors.New("malformed configuration value")

// Store is a flat key/value file. YAML and JSON files are both accepted;
// writes keep the format of the file extension.
type Store struct {
	path string

	mu     sync.RWMutex
	values map[string]any
}

// Open reads the store at path. A missing file yields an empty store that is
// created on the first write.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]any)}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	return s, nil
}

// NewMemory returns a store that is never written to disk.
func NewMemory(values map[string]any) *Store {
	cp := make(map[string]any, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Store{values: cp}
}

// Bool returns the value of key as a boolean. Missing or non-boolean values
// are false.
func (s *Store) Bool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, _ := s.values[key].(bool)
	return b
}

// Int returns the value of key as an int, or def.
func (s *Store) Int(key string, def int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch v := s.values[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

// String returns the value of key as a string, or def.
func (s *Store) String(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key].(string); ok {
		return v
	}
	return def
}

// Strings returns the string items of a list value. Items of any other type
// are dropped and reported through an ErrMalformed error alongside the items
// that were usable.
func (s *Store) Strings(key string) ([]string, error) {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()
	if !ok || raw == nil {
		return nil, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list, got %T", ErrMalformed, key, raw)
	}
	out := make([]string, 0, len(list))
	var bad []string
	for _, item := range list {
		if str, ok := item.(string); ok {
			out = append(out, str)
			continue
		}
		bad = append(bad, fmt.Sprintf("%v", item))
	}
	if len(bad) > 0 {
		return out, fmt.Errorf("%w: %s should only contain strings, ignored [%s]", ErrMalformed, key, strings.Join(bad, ", "))
	}
	return out, nil
}

// Values returns a copy of every key, used as the environment of route
// expressions.
func (s *Store) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]any, len(s.values))
	for k, v := range s.values {
		cp[k] = v
	}
	return cp
}

// SetBool stores a boolean and writes the file back.
func (s *Store) SetBool(key string, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(s.path), ".json") {
		data, err = json.MarshalIndent(s.values, "", "    ")
	} else {
		data, err = yaml.Marshal(s.values)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", s.path, err)
	}
	return nil
}
