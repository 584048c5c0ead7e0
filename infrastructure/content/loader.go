// Package content loads the reading corpus from disk and keeps it fresh
// while the server runs.
package content

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kyle-mirich/church-fathers-reader/domain/core/content"
)

// LoadLibrary reads and validates a corpus file. The file holds the whole
// library as one JSON document of works, parts and chapters.
func LoadLibrary(path string) (*content.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library file: %w", err)
	}

	var lib content.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse library file %s: %w", path, err)
	}
	if err := lib.Validate(); err != nil {
		return nil, fmt.Errorf("invalid library in %s: %w", path, err)
	}
	return &lib, nil
}
