// Package config loads the sheetsql TOML configuration file.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Config is the top-level TOML document.
type Config struct {
	Connection Connection `toml:"connection"`
	Import     Import     `toml:"import"`
	Export     Export     `toml:"export"`
	Mappings   Mappings   `toml:"mappings"`
	Log        Log        `toml:"log"`
}

// Connection maps [connection].
type Connection struct {
	DSN    string `toml:"dsn"`
	Schema string `toml:"schema"`
}

// Import maps [import].
type Import struct {
	IncludeHeaders bool `toml:"include_headers"`
	CreateTable    bool `toml:"create_table"`
	AnchorRow      int  `toml:"anchor_row"`
	SurfaceMaxRows int  `toml:"surface_max_rows"`
	LimitRows      int  `toml:"limit_rows"`
}

// Export maps [export].
type Export struct {
	UseFirstRowAsHeader bool   `toml:"use_first_row_as_header"`
	AddPrimaryKey       bool   `toml:"add_primary_key"`
	RowsPerInsert       int    `toml:"rows_per_insert"`
	Engine              string `toml:"engine"`
	Charset             string `toml:"charset"`
	Collation           string `toml:"collation"`
}

// Mappings maps [mappings].
type Mappings struct {
	File string `toml:"file"`
}

// Log maps [log].
type Log struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Import: Import{
			IncludeHeaders: true,
			AnchorRow:      1,
		},
		Export: Export{
			UseFirstRowAsHeader: true,
			RowsPerInsert:       100,
			Engine:              "InnoDB",
		},
		Mappings: Mappings{File: defaultMappingsFile()},
		Log:      Log{Level: "info"},
	}
}

func defaultMappingsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "sheetsql-mappings.toml"
	}
	return filepath.Join(dir, "sheetsql", "mappings.toml")
}

// Load reads the file at path over the defaults. An empty path or a missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML from r over the defaults and validates the result.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("toml: decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can use.
func (c *Config) Validate() error {
	switch {
	case c.Import.AnchorRow < 0:
		return fmt.Errorf("import.anchor_row must not be negative")
	case c.Import.SurfaceMaxRows < 0:
		return fmt.Errorf("import.surface_max_rows must not be negative")
	case c.Import.LimitRows < 0:
		return fmt.Errorf("import.limit_rows must not be negative")
	case c.Export.RowsPerInsert < 0:
		return fmt.Errorf("export.rows_per_insert must not be negative")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
