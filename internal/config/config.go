package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.hcl
var sampleHCL string

//go:embed sample_config.toml
var sampleTOML string

// Logging controls log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Ingest controls source discovery.
type Ingest struct {
	// Ignore holds filepath.Match patterns for entry names to skip.
	Ignore []string `toml:"ignore"`
}

// Fonts controls bitmap font pages.
type Fonts struct {
	PageSize int `toml:"page_size"`
	Padding  int `toml:"padding"`
}

// Atlas controls texture atlas pages. A size flag on a packed directory
// overrides MaxPageSize.
type Atlas struct {
	MaxPageSize int `toml:"max_page_size"`
	Padding     int `toml:"padding"`
}

// Output controls what is written besides the bundle itself.
type Output struct {
	IndexDB    string `toml:"index_db"`
	GoIndex    string `toml:"go_index"`
	GoPackage  string `toml:"go_package"`
	StagingDir string `toml:"staging_dir"`
}

// Config holds every respack setting.
type Config struct {
	Logging Logging `toml:"logging"`
	Ingest  Ingest  `toml:"ingest"`
	Fonts   Fonts   `toml:"fonts"`
	Atlas   Atlas   `toml:"atlas"`
	Output  Output  `toml:"output"`
}

// DefaultPaths are tried in order when no path is given.
var DefaultPaths = []string{"respack.hcl", "respack.toml"}

// Load locates, parses, and validates a configuration file. It returns the
// resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := decode(resolved, data, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		var doc hclDocument
		if err := hclsimple.Decode(filepath.Base(path), data, nil, &doc); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		doc.apply(cfg)
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	default:
		return fmt.Errorf("config %s: unsupported format, want .hcl or .toml", path)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	var first string
	for _, p := range DefaultPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", false, err
		}
		if first == "" {
			first = abs
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			return abs, true, nil
		}
	}
	return first, false, nil
}

func expandPath(value string) (string, error) {
	if value == "" {
		return value, nil
	}
	if strings.HasPrefix(value, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if value == "~" {
			value = home
		} else if len(value) > 1 && (value[1] == '/' || value[1] == '\\') {
			value = filepath.Join(home, value[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(value))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return abs, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// CreateSample writes a commented sample configuration to path, in HCL
// unless path ends in .toml.
func CreateSample(path string) error {
	sample := sampleHCL
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		sample = sampleTOML
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
