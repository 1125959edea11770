package config

import (
	"os"
	"time"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the config is looked up when no path is given.
const DefaultPath = "copydeck.yaml"

type Config struct {
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Security  SecurityConfig  `yaml:"security"`
	Git       GitConfig       `yaml:"git"`
	Log       LogConfig       `yaml:"log"`
}

type ClipboardConfig struct {
	// Method is auto, async or legacy.
	Method      string        `yaml:"method"`
	StagingDir  string        `yaml:"stagingDir,omitempty"`
	SuccessTime time.Duration `yaml:"successTime"`
	Timeout     time.Duration `yaml:"timeout"`
	// Hold keeps the process alive until the clipboard is overwritten,
	// which X11 needs for the copy to outlive us.
	Hold bool `yaml:"hold"`
}

type InputConfig struct {
	Include       []string `yaml:"include,omitempty"`
	Ignore        []string `yaml:"ignore"`
	IncludeHidden bool     `yaml:"includeHidden"`
	MaxFileSize   int64    `yaml:"maxFileSize"`
	Encoding      string   `yaml:"encoding"`
}

type OutputConfig struct {
	Style           string `yaml:"style"`
	ShowLineNumbers bool   `yaml:"showLineNumbers"`
	Print           bool   `yaml:"print"`
}

type SecurityConfig struct {
	DisableSecurityCheck bool `yaml:"disableSecurityCheck"`
	// Strict refuses to copy when an error-severity issue is found.
	Strict bool `yaml:"strict"`
}

type GitConfig struct {
	RepoPath string `yaml:"repoPath"`
	Revision string `yaml:"revision"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

var DefaultIgnorePatterns = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	"**/node_modules/**",
	"**/.idea/**",
	"**/.vscode/**",
	"*.log",
	"*.tmp",
	"*.temp",
	".DS_Store",
	"Thumbs.db",
}

func DefaultConfig() *Config {
	return &Config{
		Clipboard: ClipboardConfig{
			Method:      "auto",
			SuccessTime: time.Second,
			Timeout:     5 * time.Second,
		},
		Input: InputConfig{
			Ignore:      append([]string(nil), DefaultIgnorePatterns...),
			MaxFileSize: 10 * 1024 * 1024, // 10MB
			Encoding:    "auto",
		},
		Output: OutputConfig{
			Style: "plain",
		},
		Git: GitConfig{
			RepoPath: ".",
			Revision: "HEAD",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads the config at path over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Annotatef(err, "reading config %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Annotatef(err, "parsing config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Annotatef(err, "config %s", path)
	}

	return cfg, nil
}

// Validate checks values that would otherwise only fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Clipboard.Method {
	case "", "auto", "async", "legacy":
	default:
		return errors.NotValidf("clipboard.method %q", c.Clipboard.Method)
	}
	switch c.Output.Style {
	case "", "plain", "markdown", "xml":
	default:
		return errors.NotValidf("output.style %q", c.Output.Style)
	}
	if c.Clipboard.Timeout < 0 {
		return errors.NotValidf("negative clipboard.timeout")
	}
	if c.Input.MaxFileSize < 0 {
		return errors.NotValidf("negative input.maxFileSize")
	}
	return nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Trace(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Annotatef(err, "writing config %s", path)
	}
	return nil
}
