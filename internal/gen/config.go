// Package gen implements dyncastgen: it finds the participating struct
// types of the configured packages and writes their Bases and
// DynamicType methods.
//
// The pipeline is:
//   - Parsing and validating dyncast.yaml (or dyncast.toml)
//   - Loading the packages via go/packages
//   - Checking the supertype graph for cycles and repeated ancestors
//   - Rendering zz_dyncast.go (and optionally a Verify test) per package
//   - Recording each generation in a sqlite ledger so unchanged packages
//     are skipped
package gen

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/dyncast/internal/config"
)

// ErrNoConfig is returned when no config file is found.
var ErrNoConfig = errors.New("no dyncast config found")

// Config represents the top-level dyncast.yaml configuration.
type Config struct {
	// Packages lists the packages to generate for.
	Packages []PackageSpec `yaml:"packages" toml:"packages"`

	// Ledger enables the generation ledger in .dyncast/. Defaults to true.
	Ledger *bool `yaml:"ledger,omitempty" toml:"ledger,omitempty"`
}

// PackageSpec selects the participating types of one package pattern.
type PackageSpec struct {
	// Path is a package pattern relative to the config file
	// (e.g. "./shapes" or "./model/...").
	Path string `yaml:"path" toml:"path"`

	// Types is an optional list of type names that participate in
	// addition to those marked with //dyncast:type.
	Types []string `yaml:"types,omitempty" toml:"types,omitempty"`

	// Exclude removes types that would otherwise participate.
	Exclude []string `yaml:"exclude,omitempty" toml:"exclude,omitempty"`

	// Output is the generated file name. Defaults to zz_dyncast.go.
	Output string `yaml:"output,omitempty" toml:"output,omitempty"`

	// Tests also emits zz_dyncast_test.go calling dyncast.Verify for
	// every participating type.
	Tests bool `yaml:"tests,omitempty" toml:"tests,omitempty"`
}

// ConfigError reports an invalid config entry.
type ConfigError struct {
	File  string
	Entry string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Entry, e.Msg)
}

// LoadConfig reads and parses a config file. The format is chosen by
// extension.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses config content from bytes. The path selects the
// format and is used in error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for a config file starting from dir and walking up
// to parent directories. It returns ErrNoConfig when none is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range config.ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoConfig
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	if len(c.Packages) == 0 {
		return &ConfigError{File: path, Msg: "no packages defined"}
	}

	seen := make(map[string]int)
	for i, p := range c.Packages {
		entry := fmt.Sprintf("packages[%d]", i)
		if p.Path == "" {
			return &ConfigError{File: path, Entry: entry, Msg: "path is required"}
		}
		entry = fmt.Sprintf("packages[%d] (%s)", i, p.Path)

		if prev, ok := seen[p.Path]; ok {
			return &ConfigError{File: path, Entry: entry, Msg: fmt.Sprintf("duplicate of packages[%d]", prev)}
		}
		seen[p.Path] = i

		if p.Output != "" {
			if filepath.Base(p.Output) != p.Output {
				return &ConfigError{File: path, Entry: entry, Msg: fmt.Sprintf("output %q must be a file name", p.Output)}
			}
			if !strings.HasSuffix(p.Output, ".go") || strings.HasSuffix(p.Output, "_test.go") {
				return &ConfigError{File: path, Entry: entry, Msg: fmt.Sprintf("output %q must be a non-test .go file", p.Output)}
			}
		}

		excluded := make(map[string]bool, len(p.Exclude))
		for _, name := range p.Exclude {
			excluded[name] = true
		}
		for j, name := range p.Types {
			if !token.IsIdentifier(name) {
				return &ConfigError{File: path, Entry: fmt.Sprintf("%s.types[%d]", entry, j), Msg: fmt.Sprintf("%q is not a type name", name)}
			}
			if excluded[name] {
				return &ConfigError{File: path, Entry: fmt.Sprintf("%s.types[%d]", entry, j), Msg: fmt.Sprintf("%s is both listed and excluded", name)}
			}
		}
	}

	return nil
}

func (c *Config) setDefaults() {
	for i := range c.Packages {
		if c.Packages[i].Output == "" {
			c.Packages[i].Output = config.DefaultOutputFile
		}
	}
	if c.Ledger == nil {
		on := true
		c.Ledger = &on
	}
}

// LedgerEnabled reports whether generations are recorded.
func (c *Config) LedgerEnabled() bool {
	return c.Ledger == nil || *c.Ledger
}

// IsExcluded reports whether name is listed in Exclude.
func (p *PackageSpec) IsExcluded(name string) bool {
	for _, e := range p.Exclude {
		if e == name {
			return true
		}
	}
	return false
}

// IsListed reports whether name is listed in Types.
func (p *PackageSpec) IsListed(name string) bool {
	for _, t := range p.Types {
		if t == name {
			return true
		}
	}
	return false
}
