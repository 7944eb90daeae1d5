package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// NameStore persists the code to display-name mapping gathered during
// sector discovery, so later runs can label funds without searching again.
type NameStore struct {
	path string
}

func NewNameStore(path string) *NameStore {
	return &NameStore{path: path}
}

// Load reads the stored mapping. A missing file is an empty mapping.
func (s *NameStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read names file: %w", err)
	}

	names := map[string]string{}
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse names file: %w", err)
	}
	return names, nil
}

// Save writes the mapping, creating the directory when needed.
func (s *NameStore) Save(names map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create names dir: %w", err)
	}

	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return fmt.Errorf("encode names: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write names file: %w", err)
	}
	return nil
}
