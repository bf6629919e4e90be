package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	schemagraph "github.com/reoring/schemagraph"
	"github.com/reoring/schemagraph/jsonschema"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// formatOf picks the document format from the file extension.
func formatOf(path, fallback string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	case ".json":
		return formatJSON
	}
	return fallback
}

func (a *app) readDocument(path string) (*jsonschema.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	limits := jsonschema.Limits{MaxDepth: a.cfg.Input.MaxDepth, MaxBytes: a.cfg.Input.MaxBytes}
	var doc *jsonschema.Object
	if formatOf(path, formatJSON) == formatYAML {
		doc, err = jsonschema.DecodeYAML(bytes.NewReader(data), limits)
	} else {
		doc, err = jsonschema.DecodeJSON(bytes.NewReader(data), limits)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// loadStore reads and parses path. New documents use the configured
// definitions keyword.
func (a *app) loadStore(path string) (*schemagraph.Store, error) {
	doc, err := a.readDocument(path)
	if err != nil {
		return nil, err
	}
	s, err := jsonschema.Parse(doc, schemagraph.WithDefinitionsKeyword(a.cfg.Schema.Definitions))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (a *app) encode(doc *jsonschema.Object, format string) ([]byte, error) {
	if format == formatYAML {
		return jsonschema.EncodeYAML(doc)
	}
	return jsonschema.EncodeJSON(doc, a.cfg.Output.Indent)
}

// render serializes s in format.
func (a *app) render(s *schemagraph.Store, format string) ([]byte, error) {
	doc, err := jsonschema.Serialize(s)
	if err != nil {
		return nil, err
	}
	return a.encode(doc, format)
}
