package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemagraph/internal/config"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemagraph.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	require.NoError(t, cfg.Validate())

	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	cfg, err := config.Load(write(t, `
[schema]
definitions = "definitions"

[output]
format = "yaml"

[drafts]
path = "/tmp/d.db"
`))
	require.NoError(t, err)
	assert.Equal(t, "definitions", cfg.Schema.Definitions)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, 2, cfg.Output.Indent, "unset keys keep their default")
	assert.Equal(t, "/tmp/d.db", cfg.Drafts.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 512, cfg.Input.MaxDepth)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]struct {
		body string
		msg  string
	}{
		"unknown key":     {"[output]\ncolour = true\n", "unknown keys output.colour"},
		"bad format":      {"[output]\nformat = \"xml\"\n", "output.format must be one of: json yaml"},
		"indent too big":  {"[output]\nindent = 12\n", "output.indent must be at most 8"},
		"negative depth":  {"[input]\nmax_depth = -1\n", "input.maxdepth must be at least 0"},
		"bad level":       {"[log]\nlevel = \"trace\"\n", "log.level must be one of"},
		"empty drafts":    {"[drafts]\npath = \"\"\n", "drafts.path is required"},
		"bad definitions": {"[schema]\ndefinitions = \"defs\"\n", "schema.definitions must be one of"},
		"not toml":        {"[output\n", "reading config"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(write(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
