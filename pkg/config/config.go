// Package config loads the serde configuration used by the xmlstruct host:
// where records start, how the catalog is declared, which name substitutions
// apply, and how rows are written.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wehubfusion/xmlstruct/pkg/normalize"
)

// Config is the root of a serde config file
type Config struct {
	Serde   SerdeConfig   `toml:"serde"`
	Catalog CatalogConfig `toml:"catalog"`
	Output  OutputConfig  `toml:"output"`
	Logging LoggingConfig `toml:"logging"`
	Tracing TracingConfig `toml:"tracing"`
	// MaxConcurrent overrides the auto-detected worker limit when positive
	MaxConcurrent int `toml:"max_concurrent"`
}

// SerdeConfig controls how records are found and fields are matched
type SerdeConfig struct {
	// RecordTag is the element name that delimits one record
	RecordTag string `toml:"record_tag"`
	// ReplacementChars is the "src=dst,src=dst" substitution property
	ReplacementChars string `toml:"replacement_chars"`
	// Replacements are applied after ReplacementChars, in file order
	Replacements    []Replacement `toml:"replacements"`
	CaseInsensitive bool          `toml:"case_insensitive"`
}

// Replacement is one ordered substitution rule
type Replacement struct {
	Source      string `toml:"source"`
	Replacement string `toml:"replacement"`
}

// CatalogConfig declares the catalog either by file or inline type string
type CatalogConfig struct {
	Path string `toml:"path"`
	Type string `toml:"type"`
}

// OutputConfig selects the row encoding
type OutputConfig struct {
	Format string `toml:"format"`
}

// LoggingConfig selects the zap preset and level
type LoggingConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// TracingConfig enables OTLP trace export
type TracingConfig struct {
	Enabled      bool    `toml:"enabled"`
	ServiceName  string  `toml:"service_name"`
	Environment  string  `toml:"environment"`
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	SampleRatio  float64 `toml:"sample_ratio"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Serde: SerdeConfig{
			RecordTag: "record",
		},
		Output: OutputConfig{
			Format: "json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Tracing: TracingConfig{
			ServiceName:  "xmlstruct",
			Environment:  "development",
			OTLPEndpoint: "127.0.0.1:4318",
			SampleRatio:  1.0,
		},
	}
}

// Load reads a TOML file over the defaults, then applies env overrides.
// An empty path loads defaults and env overrides only.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := Decode(string(data), cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Decode parses TOML text into cfg, rejecting unknown keys
func Decode(text string, cfg *Config) error {
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// applyEnv overrides file values from XMLSTRUCT_* variables
func (c *Config) applyEnv() {
	c.Serde.RecordTag = getEnv("XMLSTRUCT_RECORD_TAG", c.Serde.RecordTag)
	c.Serde.ReplacementChars = getEnv("XMLSTRUCT_REPLACEMENT_CHARS", c.Serde.ReplacementChars)
	c.Output.Format = getEnv("XMLSTRUCT_OUTPUT_FORMAT", c.Output.Format)
	c.Logging.Level = getEnv("XMLSTRUCT_LOG_LEVEL", c.Logging.Level)
	c.Tracing.OTLPEndpoint = getEnv("XMLSTRUCT_OTLP_ENDPOINT", c.Tracing.OTLPEndpoint)
	c.MaxConcurrent = getEnvInt("XMLSTRUCT_MAX_CONCURRENT", c.MaxConcurrent)
}

// Validate checks the config for values the host cannot run with
func (c *Config) Validate() error {
	if c.Serde.RecordTag == "" {
		return fmt.Errorf("serde.record_tag is required")
	}
	if c.Catalog.Path != "" && c.Catalog.Type != "" {
		return fmt.Errorf("catalog.path and catalog.type are mutually exclusive")
	}
	switch c.Output.Format {
	case "json", "msgpack":
	default:
		return fmt.Errorf("unsupported output format %q", c.Output.Format)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1")
	}
	if _, err := c.SubstitutionTable(); err != nil {
		return err
	}
	return nil
}

// SubstitutionTable builds the ordered name substitution table
func (c *Config) SubstitutionTable() (*normalize.Table, error) {
	base, err := normalize.ParseTable(c.Serde.ReplacementChars)
	if err != nil {
		return nil, fmt.Errorf("serde.replacement_chars: %w", err)
	}

	rules := base.Rules()
	for _, r := range c.Serde.Replacements {
		rules = append(rules, normalize.Rule{Source: r.Source, Replacement: r.Replacement})
	}
	table, err := normalize.NewTable(rules...)
	if err != nil {
		return nil, fmt.Errorf("serde.replacements: %w", err)
	}
	return table, nil
}

// getEnv retrieves a string from environment variable with default fallback
func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer from environment variable with default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
