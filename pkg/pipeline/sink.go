package pipeline

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/entrhq/scrapbook/pkg/storage"
)

// JSONSink persists checkpoint data as pretty-printed JSON files in a
// single output directory.
type JSONSink struct {
	store storage.Store
	dir   string
}

// NewJSONSink creates a sink writing <dir>/<name>.json files.
func NewJSONSink(store storage.Store, dir string) (*JSONSink, error) {
	if err := store.MkdirAll(dir); err != nil {
		return nil, err
	}
	return &JSONSink{store: store, dir: dir}, nil
}

// Save writes data under name. The data is handed over unchanged by the
// executor; Save must not mutate it.
func (s *JSONSink) Save(name string, data any) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name+".json")
	if err := s.store.WriteArtifact(path, out); err != nil {
		return fmt.Errorf("failed to write checkpoint %s: %w", name, err)
	}
	return nil
}
