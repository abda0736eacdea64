// Package config loads settings for the sqlcomment command.
//
// Precedence, highest first: flags that were set, SQLCOMMENT_ environment
// variables, the yaml config file, defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
	"github.com/honeycombio/sqlcomment-go/client"
	"github.com/honeycombio/sqlcomment-go/generator"
)

const (
	// EnvPrefix marks environment variables read as config. Nested keys use a
	// double underscore: SQLCOMMENT_HONEYCOMB__WRITE_KEY.
	EnvPrefix = "SQLCOMMENT_"

	DefaultPolicy  = "escape"
	DefaultDialect = "default"
	DefaultDataset = "sqlcomment"
)

// DefaultFiles are tried in order when no config file is named.
var DefaultFiles = []string{"sqlcomment.yaml", "sqlcomment.yml"}

// Honeycomb configures where the command's events go. With no write key
// and STDOUT off, events are discarded.
type Honeycomb struct {
	WriteKey string `koanf:"write_key"`
	Dataset  string `koanf:"dataset"`
	APIHost  string `koanf:"api_host"`
	STDOUT   bool   `koanf:"stdout"`
	Debug    bool   `koanf:"debug"`
}

// Config holds every setting the command reads.
type Config struct {
	Comment   string    `koanf:"comment"`
	Newline   bool      `koanf:"newline"`
	Policy    string    `koanf:"policy"`
	Quote     bool      `koanf:"quote"`
	Dialect   string    `koanf:"dialect"`
	Driver    string    `koanf:"driver"`
	DSN       string    `koanf:"dsn"`
	Honeycomb Honeycomb `koanf:"honeycomb"`
}

// Package-level koanf instance and the file it read, if any.
var (
	k              = koanf.New(".")
	configFileUsed string
)

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// GetConfigFileUsed returns the path of the config file read by the last
// Load, or the empty string.
func GetConfigFileUsed() string {
	return configFileUsed
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds a Config from defaults, cfgFile (or the first of DefaultFiles
// that exists), the environment and flags. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"policy":            DefaultPolicy,
		"dialect":           DefaultDialect,
		"newline":           false,
		"quote":             false,
		"honeycomb.dataset": DefaultDataset,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// SQLCOMMENT_HONEYCOMB__WRITE_KEY -> honeycomb.write_key
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			switch key {
			case "write_key", "dataset", "api_host", "stdout", "debug":
				key = "honeycomb." + key
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if _, err := cfg.SQLComment(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SQLComment returns the annotation settings. With Quote set, comments are
// first rendered as string literals of the configured dialect.
func (c *Config) SQLComment() (sqlcomment.Config, error) {
	policy, err := sqlcomment.ParsePolicy(c.Policy)
	if err != nil {
		return sqlcomment.Config{}, fmt.Errorf("invalid policy: %w", err)
	}
	cfg := sqlcomment.Config{Newline: c.Newline, Policy: policy}
	if c.Quote {
		cfg.Escaper = generator.DialectFor(c.DialectName()).Literal
	}
	return cfg, nil
}

// DialectName is the configured dialect, falling back to the driver name.
func (c *Config) DialectName() string {
	if (c.Dialect == "" || c.Dialect == DefaultDialect) && c.Driver != "" {
		return c.Driver
	}
	return c.Dialect
}

// Client returns the event client settings.
func (c *Config) Client() client.Config {
	return client.Config{
		WriteKey:    c.Honeycomb.WriteKey,
		Dataset:     c.Honeycomb.Dataset,
		APIHost:     c.Honeycomb.APIHost,
		ServiceName: "sqlcomment",
		STDOUT:      c.Honeycomb.STDOUT,
		Debug:       c.Honeycomb.Debug,
		Mute:        c.Honeycomb.WriteKey == "" && !c.Honeycomb.STDOUT,
	}
}
