package jsonschema

import (
	"strings"

	"github.com/reoring/schemagraph/pointer"
)

// Settings are the dialect choices derived from a document's "$schema".
type Settings struct {
	// Draft is a short dialect name such as "2020-12" or "draft-07"; empty
	// when the URL is not recognized.
	Draft string
	// DefinitionsKeyword is "$defs" or "definitions".
	DefinitionsKeyword string
}

var drafts = []Settings{
	{Draft: "draft-04", DefinitionsKeyword: pointer.Definitions},
	{Draft: "draft-06", DefinitionsKeyword: pointer.Definitions},
	{Draft: "draft-07", DefinitionsKeyword: pointer.Definitions},
	{Draft: "2019-09", DefinitionsKeyword: pointer.Defs},
	{Draft: "2020-12", DefinitionsKeyword: pointer.Defs},
}

// SettingsFor looks up a "$schema" URL. Unknown or empty URLs get the
// 2020-12 style "$defs".
func SettingsFor(schemaURL string) Settings {
	for _, d := range drafts {
		if strings.Contains(schemaURL, d.Draft) {
			return d
		}
	}
	return Settings{DefinitionsKeyword: pointer.Defs}
}

// DetectSettings prefers the definitions keyword the document already uses
// and falls back to its "$schema" URL.
func DetectSettings(doc *Object) Settings {
	url, _ := doc.Get("$schema")
	s := SettingsFor(stringOf(url))
	switch {
	case doc.Has(pointer.Defs):
		s.DefinitionsKeyword = pointer.Defs
	case doc.Has(pointer.Definitions):
		s.DefinitionsKeyword = pointer.Definitions
	}
	return s
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
