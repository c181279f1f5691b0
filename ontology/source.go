package ontology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source is a named JSON-LD document holding an @graph of entities.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads a document from disk.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesSource serves a document from memory.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Load opens and parses the source's graph.
func (s Source) Load() ([]Record, error) {
	rc, err := s.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Name, err)
	}
	defer rc.Close()

	records, err := ReadGraph(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	return records, nil
}

// ReadGraph parses a document of the form {"@graph": [entity, ...]}.
// Other top-level keys (@context) are ignored.
func ReadGraph(r io.Reader) ([]Record, error) {
	var doc struct {
		Graph *[]json.RawMessage `json:"@graph"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	if doc.Graph == nil {
		return nil, ErrMissingGraph
	}

	records := make([]Record, 0, len(*doc.Graph))
	for i, raw := range *doc.Graph {
		rec, err := ParseRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
