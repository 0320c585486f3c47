// Package config holds dnamatch settings loaded from defaults, a YAML file and
// environment variables.
//
// Sources are layered: DefaultConfig() first, then the file given to Load (if
// any), then DNAMATCH_* environment variables. Command-line flags are applied
// last by the caller. Call Normalize() and Validate() before use.
//
// Example Usage:
//
//	cfg, err := config.Load("dnamatch.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	cfg.Normalize()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//	opts, err := cfg.MatchOptions()
//
// Environment Variables:
//   - DNAMATCH_MAX_RESULTS=14
//   - DNAMATCH_MIN_TESTERS=3
//   - DNAMATCH_SMALLEST_MATCH=866
//   - DNAMATCH_ID_ITEM="xref" or "type.exid" or a tag name
//   - DNAMATCH_NEAREST="first" or "minimum"
//   - DNAMATCH_ORIENTATION="lr", "tb", "rl" or "bt"
//   - DNAMATCH_FORMAT="dot" or "json"
//   - DNAMATCH_REVERSE_ARROWS=true
//   - DNAMATCH_SHOW_EACH=true
//   - DNAMATCH_DATA_DIR="./data"
//   - DNAMATCH_LOG_LEVEL="info"
//   - DNAMATCH_LOG_FORMAT="text"
//   - DNAMATCH_METRICS_FILE="/var/lib/node_exporter/dnamatch.prom"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/orneryd/dnamatch/pkg/kinship"
	"github.com/orneryd/dnamatch/pkg/match"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Orientations accepted by the DOT renderer.
var orientations = map[string]bool{"tb": true, "lr": true, "bt": true, "rl": true}

// DefaultOrientation is used when none (or an unknown one) is configured.
const DefaultOrientation = "lr"

var validate = validator.New()

// Config holds all dnamatch configuration.
//
// Configuration is organized into sections:
//   - Match: thresholds and identifier scheme for the match engine
//   - Output: rendering of the final result
//   - Storage: where imported pedigrees live
//   - Logging: log level and format
//   - Metrics: batch-run metrics export
type Config struct {
	Match   MatchConfig   `yaml:"match"`
	Output  OutputConfig  `yaml:"output"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// MatchConfig holds the match engine thresholds.
type MatchConfig struct {
	// MaxResults: a candidate set this large or larger fails the run
	MaxResults int `yaml:"max_results" validate:"gt=0"`
	// MinTesters is the fewest testers worth computing
	MinTesters int `yaml:"min_testers" validate:"gt=0"`
	// SmallestMatch: at least one tester must share more cM than this
	SmallestMatch int `yaml:"smallest_match" validate:"gt=1"`
	// IDItem selects how tester identifiers are located
	IDItem string `yaml:"id_item" validate:"required"`
	// Nearest picks among several shared ancestor families
	Nearest string `yaml:"nearest" validate:"oneof=first minimum"`
}

// OutputConfig holds rendering settings.
type OutputConfig struct {
	// Orientation is the DOT rankdir; unknown values fall back to lr
	Orientation string `yaml:"orientation"`
	// Format is "dot" or "json"
	Format string `yaml:"format" validate:"oneof=dot json"`
	// ReverseArrows points edges from family to child
	ReverseArrows bool `yaml:"reverse_arrows"`
	// ShowEach logs every tester's own candidate listing
	ShowEach bool `yaml:"show_each"`
}

// StorageConfig holds the pedigree store settings.
type StorageConfig struct {
	// DataDir is the Badger directory for imported pedigrees
	DataDir string `yaml:"data_dir" validate:"required_without=InMemory"`
	// InMemory keeps the store in memory (tests, dry runs)
	InMemory bool `yaml:"in_memory"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json logfmt"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	// TextfilePath, when set, receives the run metrics in Prometheus text format
	TextfilePath string `yaml:"textfile_path"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	return &Config{
		Match: MatchConfig{
			MaxResults:    match.DefaultMaxResults,
			MinTesters:    match.DefaultMinTesters,
			SmallestMatch: match.DefaultSmallestMatch,
			IDItem:        "xref",
			Nearest:       "first",
		},
		Output: OutputConfig{
			Orientation: DefaultOrientation,
			Format:      "dot",
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromEnv returns the defaults overridden by DNAMATCH_* variables.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg
}

// LoadFile returns the defaults overridden by the YAML file at path.
// Unknown keys are an error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Load layers defaults, the optional file at path and the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Match.MaxResults = getEnvInt("DNAMATCH_MAX_RESULTS", c.Match.MaxResults)
	c.Match.MinTesters = getEnvInt("DNAMATCH_MIN_TESTERS", c.Match.MinTesters)
	c.Match.SmallestMatch = getEnvInt("DNAMATCH_SMALLEST_MATCH", c.Match.SmallestMatch)
	c.Match.IDItem = getEnv("DNAMATCH_ID_ITEM", c.Match.IDItem)
	c.Match.Nearest = getEnv("DNAMATCH_NEAREST", c.Match.Nearest)

	c.Output.Orientation = getEnv("DNAMATCH_ORIENTATION", c.Output.Orientation)
	c.Output.Format = getEnv("DNAMATCH_FORMAT", c.Output.Format)
	c.Output.ReverseArrows = getEnvBool("DNAMATCH_REVERSE_ARROWS", c.Output.ReverseArrows)
	c.Output.ShowEach = getEnvBool("DNAMATCH_SHOW_EACH", c.Output.ShowEach)

	c.Storage.DataDir = getEnv("DNAMATCH_DATA_DIR", c.Storage.DataDir)
	c.Storage.InMemory = getEnvBool("DNAMATCH_IN_MEMORY", c.Storage.InMemory)

	c.Logging.Level = getEnv("DNAMATCH_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("DNAMATCH_LOG_FORMAT", c.Logging.Format)

	c.Metrics.TextfilePath = getEnv("DNAMATCH_METRICS_FILE", c.Metrics.TextfilePath)
}

// Normalize lower-cases enumerated settings and replaces an unknown
// orientation with DefaultOrientation.
func (c *Config) Normalize() {
	c.Output.Orientation = strings.ToLower(strings.TrimSpace(c.Output.Orientation))
	if !orientations[c.Output.Orientation] {
		c.Output.Orientation = DefaultOrientation
	}
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	c.Match.Nearest = strings.ToLower(strings.TrimSpace(c.Match.Nearest))
	switch c.Match.Nearest {
	case "":
		c.Match.Nearest = "first"
	case "min":
		c.Match.Nearest = "minimum"
	}
}

// Validate checks every section. All violations are reported together.
//
// Example:
//
//	cfg := config.LoadFromEnv()
//	cfg.Normalize()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Configuration error: %v", err)
//	}
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	problems := make([]string, 0, len(verrs))
	matchProblem := false
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
		if strings.HasPrefix(fe.Namespace(), "Config.Match.") {
			matchProblem = true
		}
	}
	if matchProblem {
		// bad engine options fail the same way the engine reports them
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, match.ErrInputValidation, strings.Join(problems, "; "))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", field, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "required", "required_without":
		return fmt.Sprintf("%s is required", field)
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// MatchOptions converts the match section into engine options.
func (c *Config) MatchOptions() (match.Options, error) {
	scheme, err := match.ParseIDScheme(c.Match.IDItem)
	if err != nil {
		return match.Options{}, err
	}
	nearest, err := kinship.ParseNearest(c.Match.Nearest)
	if err != nil {
		return match.Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return match.Options{
		MinTesters:    c.Match.MinTesters,
		MaxResults:    c.Match.MaxResults,
		SmallestMatch: c.Match.SmallestMatch,
		IDScheme:      scheme,
		Nearest:       nearest,
	}, nil
}

// String returns a one-line summary suitable for logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{MaxResults: %d, MinTesters: %d, SmallestMatch: %d, IDItem: %s, Nearest: %s, Orientation: %s, Format: %s, DataDir: %s}",
		c.Match.MaxResults, c.Match.MinTesters, c.Match.SmallestMatch,
		c.Match.IDItem, c.Match.Nearest,
		c.Output.Orientation, c.Output.Format,
		c.Storage.DataDir,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
