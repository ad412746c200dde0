package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the optional TOML config file. Flags override it.
//
//	log_level    = "debug"
//	log_format   = "json"
//	db           = "./rill.db"
//	recv_timeout = "500ms"
type Config struct {
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	DB          string `toml:"db"`
	RecvTimeout string `toml:"recv_timeout"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig reads path over the defaults. An empty path yields the defaults;
// a named file that does not exist is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := ParseConfig(data, cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML into cfg, rejecting unknown keys.
func ParseConfig(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("line %d, column %d: %s", row, col, decodeErr.Error())
		}
		return err
	}
	return cfg.validate()
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// Timeout returns recv_timeout, or 0 when unset.
func (c *Config) Timeout() (time.Duration, error) {
	if c.RecvTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RecvTimeout)
	if err != nil {
		return 0, fmt.Errorf("recv_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("recv_timeout must be positive, got %s", d)
	}
	return d, nil
}
