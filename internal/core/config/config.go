package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"phpmap/internal/engine/classmap"
)

type Config struct {
	Root          string        `toml:"root"`
	Scan          Scan          `toml:"scan"`
	Output        Output        `toml:"output"`
	DB            Database      `toml:"db"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Scan struct {
	Extensions     []string `toml:"extensions"`
	Exclude        []string `toml:"exclude"`
	CaseSensitive  bool     `toml:"case_sensitive"`
	FollowSymlinks bool     `toml:"follow_symlinks"`
	IncludeStatic  bool     `toml:"include_static"`
}

type Output struct {
	Loader    string `toml:"loader"`
	Relative  *bool  `toml:"relative"`
	Prepend   bool   `toml:"prepend"`
	Namespace string `toml:"namespace"`
	ClassName string `toml:"class_name"`
}

type Database struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Default returns the configuration used when no file is given: scan the
// current directory for .php files and emit a relative loader next to it.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg.applyDefaults()

	// A relative scan root is resolved against the config file, not the
	// process working directory.
	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(path), cfg.Root)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Root) == "" {
		c.Root = "."
	}
	if len(c.Scan.Extensions) == 0 {
		c.Scan.Extensions = []string{"php"}
	}
	if c.Output.Loader == "" {
		c.Output.Loader = "phpmap_loader.php"
	}
	if c.Output.ClassName == "" {
		c.Output.ClassName = classmap.DefaultClassName
	}
	if c.DB.Path == "" {
		c.DB.Path = "phpmap.db"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
}

func (c *Config) validate() error {
	for _, ext := range c.Scan.Extensions {
		if strings.TrimSpace(strings.TrimPrefix(ext, ".")) == "" {
			return fmt.Errorf("scan.extensions contains an empty entry")
		}
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// Options converts the file-level settings into scan options.
func (c *Config) Options() classmap.Options {
	opts := classmap.DefaultOptions()
	opts.Extensions = c.Scan.Extensions
	opts.Exclude = c.Scan.Exclude
	opts.CaseSensitive = c.Scan.CaseSensitive
	opts.FollowSymlinks = c.Scan.FollowSymlinks
	opts.IncludeStatic = c.Scan.IncludeStatic
	opts.Prepend = c.Output.Prepend
	opts.Namespace = c.Output.Namespace
	opts.ClassName = c.Output.ClassName
	if c.Output.Relative != nil {
		opts.Relative = *c.Output.Relative
	}
	return opts
}
