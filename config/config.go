// Package config loads the cbs configuration.
//
// Values come, by increasing priority, from the defaults, a YAML file and
// CBS_* environment variables. Command line flags override them last.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/fx"
	"gopkg.in/yaml.v3"
)

// Config holds the cbs configuration.
type Config struct {
	Currency string `yaml:"currency"`  // reporting currency
	Events   string `yaml:"events"`    // JSONL events file
	Method   string `yaml:"method"`    // cost basis method
	LogLevel string `yaml:"log_level"` // debug, info, warn or error
	Rates    Rates  `yaml:"rates"`
	Store    Store  `yaml:"store"`
}

// Rates locates exchange rate observations.
type Rates struct {
	File   string    `yaml:"file"`
	Schema fx.Schema `yaml:"schema"`
}

// Store configures the event store.
type Store struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Currency: "EUR",
		Events:   "events.jsonl",
		Method:   costbasis.AverageCost.String(),
		LogLevel: "info",
		Rates:    Rates{Schema: fx.DefaultSchema},
		Store:    Store{Driver: "sqlite", DSN: "costbasis.db"},
	}
}

// Load returns the configuration read from path, then overridden by the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		if err := c.readFile(path); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load config %q: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	for _, v := range []struct {
		name string
		dst  *string
	}{
		{"CBS_CURRENCY", &c.Currency},
		{"CBS_EVENTS", &c.Events},
		{"CBS_METHOD", &c.Method},
		{"CBS_LOG_LEVEL", &c.LogLevel},
		{"CBS_RATES_FILE", &c.Rates.File},
		{"CBS_STORE_DRIVER", &c.Store.Driver},
		{"CBS_STORE_DSN", &c.Store.DSN},
	} {
		if value, ok := os.LookupEnv(v.name); ok && value != "" {
			*v.dst = value
		}
	}
	c.Currency = strings.ToUpper(c.Currency)
}

// Validate checks every value of the configuration.
func (c *Config) Validate() error {
	if err := costbasis.ValidateCurrency(c.Currency); err != nil {
		return fmt.Errorf("invalid reporting currency: %w", err)
	}
	if _, err := c.CostBasisMethod(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported store driver %q, use \"sqlite\" or \"postgres\"", c.Store.Driver)
	}
	return nil
}

// CostBasisMethod returns the configured method.
func (c *Config) CostBasisMethod() (costbasis.CostBasisMethod, error) {
	return costbasis.ParseCostBasisMethod(c.Method)
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("invalid log level: %w", err)
	}
	return l, nil
}
