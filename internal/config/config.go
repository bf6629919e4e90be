// Package config loads the schemagraph CLI configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Config is the whole configuration file.
type Config struct {
	Schema Schema `toml:"schema"`
	Input  Input  `toml:"input"`
	Output Output `toml:"output"`
	Drafts Drafts `toml:"drafts"`
	Log    Log    `toml:"log"`
}

// Schema holds defaults for new documents.
type Schema struct {
	Definitions string `toml:"definitions" validate:"oneof=$defs definitions"`
}

// Input limits what documents are accepted; zero disables a limit.
type Input struct {
	MaxDepth int   `toml:"max_depth" validate:"min=0"`
	MaxBytes int64 `toml:"max_bytes" validate:"min=0"`
}

// Output controls how documents are written.
type Output struct {
	Format   string `toml:"format" validate:"oneof=json yaml"`
	Indent   int    `toml:"indent" validate:"min=0,max=8"`
	Language string `toml:"language" validate:"oneof=en ja"`
}

// Drafts locates the draft database.
type Drafts struct {
	Path string `toml:"path" validate:"required"`
}

// Log sets the log level.
type Log struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Default returns the configuration used when no file exists.
func Default() Config {
	path := "schemagraph-drafts.db"
	if dir, err := os.UserCacheDir(); err == nil {
		path = filepath.Join(dir, "schemagraph", "drafts.db")
	}
	return Config{
		Schema: Schema{Definitions: "$defs"},
		Input:  Input{MaxDepth: 512, MaxBytes: 16 << 20},
		Output: Output{Format: "json", Indent: 2, Language: "en"},
		Drafts: Drafts{Path: path},
		Log:    Log{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults;
// unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values against their tags.
func (c Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldError(e validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config."))
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "min", "max":
		return fmt.Sprintf("%s must be %s %s", field, map[string]string{"min": "at least", "max": "at most"}[e.Tag()], e.Param())
	}
	return field + " is invalid"
}
