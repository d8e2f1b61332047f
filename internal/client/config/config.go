package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const AppName = "otpkeeper"

// Config holds runtime settings for the CLI.
type Config struct {
	DataDir     string
	KeySource   string
	LogFormat   string
	LogLevel    string
	MergePolicy string
}

// userConfigDir is a seam for tests.
var userConfigDir = os.UserConfigDir

// LoadDefaults populates c with defaults. The data directory lives under the
// user's config dir, falling back to the working directory when that cannot
// be determined.
func (c *Config) LoadDefaults() {
	base, err := userConfigDir()
	if err != nil || base == "" {
		base = "."
	}
	c.DataDir = filepath.Join(base, AppName)
	c.KeySource = "file"
	c.LogFormat = "text"
	c.LogLevel = "info"
	c.MergePolicy = "arrival"
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	if err := oneOf("key source", c.KeySource, "file", "keyring"); err != nil {
		return err
	}
	if err := oneOf("log format", c.LogFormat, "text", "json", "zerolog"); err != nil {
		return err
	}
	if err := oneOf("log level", c.LogLevel, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	return oneOf("merge policy", c.MergePolicy, "arrival", "newer")
}

func oneOf(what, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q, want one of %v", what, v, allowed)
}

// LoadConfig builds a Config from defaults, then the JSON file named in args
// (if any), then flags in args. Later sources take precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
