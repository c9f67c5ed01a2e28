// Package config loads the ambient settings of the cmd/sanescan
// command-line tool: an optional YAML file overridden by command-line
// flags, the two-layer pattern of file-plus-flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the settings cmd/sanescan accepts. Zero
// values mean "unset"; Defaults fills them in.
type Config struct {
	Address      string        `yaml:"address"`
	Port         int           `yaml:"port"`
	Timeout      time.Duration `yaml:"timeout"`
	PasswordFile string        `yaml:"password_file"`
	LogLevel     string        `yaml:"log_level"`
}

// Defaults returns the baseline configuration applied before a file or
// flags are read.
func Defaults() Config {
	return Config{
		Address:  "localhost",
		Port:     6566,
		Timeout:  30 * time.Second,
		LogLevel: "info",
	}
}

// LoadFile reads a YAML configuration file and merges it over base. A
// missing file at path is not an error: base is returned unchanged.
func LoadFile(path string, base Config) (Config, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// RegisterFlags binds the fields of cfg to fs so that a later fs.Parse
// overrides them in place. Call after LoadFile so flags win over the
// file, and the file wins over Defaults.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Address, "address", cfg.Address, "saned host to connect to")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "saned TCP port")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "connect timeout")
	fs.StringVar(&cfg.PasswordFile, "password-file", cfg.PasswordFile, "path to a SANE credential file (default $HOME/.sane/pass)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
}
