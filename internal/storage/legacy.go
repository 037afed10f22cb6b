package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"sidetask/internal/domain"
)

// LegacySource reads the deprecated JSON snapshot the app used before
// the SQLite store existed. It is read-only apart from Clear.
type LegacySource struct {
	path string
}

func NewLegacySource(path string) *LegacySource {
	return &LegacySource{path: path}
}

// Load returns the legacy records, or an empty slice when the
// snapshot was never written.
func (ls *LegacySource) Load() ([]domain.LegacyTask, error) {
	raw, err := os.ReadFile(ls.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read legacy snapshot: %w", err)
	}

	var records []domain.LegacyTask
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode legacy snapshot: %w", err)
	}

	return records, nil
}

// Clear removes the snapshot file. Clearing an absent snapshot is
// not an error.
func (ls *LegacySource) Clear() error {
	err := os.Remove(ls.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear legacy snapshot: %w", err)
	}
	return nil
}
