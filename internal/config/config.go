package config

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"heurbench/internal/history"
)

const DefaultNamesPath = "data/Alg_names.csv"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is everything one invocation needs. Pointer fields distinguish
// "not given" from an explicit zero.
type Config struct {
	ParamsPath string `yaml:"params,omitempty"`
	Params     `yaml:",inline"`

	Scaling  *float64 `yaml:"scaling,omitempty" validate:"omitempty,gt=0,lte=1"`
	Absolute bool     `yaml:"absolute,omitempty"`

	Difficult string `yaml:"difficult,omitempty"`
	Level     *int   `yaml:"level,omitempty" validate:"omitempty,gte=0"`

	Champion    string `yaml:"champion,omitempty"`
	ChampionOut string `yaml:"champion_out,omitempty"`
	Metric      *int   `yaml:"metric,omitempty" validate:"omitempty,gte=0,lte=3"`

	Names      string `yaml:"names" validate:"required"`
	ReportJSON string `yaml:"report_json,omitempty"`

	HistoryEntry string `yaml:"history_entry,omitempty" validate:"omitempty,len=1"`
	HistoryPair  string `yaml:"history_pair,omitempty" validate:"omitempty,len=1"`

	Store  string `yaml:"store,omitempty" validate:"omitempty,oneof=memory sqlite"`
	DBPath string `yaml:"db_path,omitempty"`

	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=auto text json"`
}

func Default() Config {
	return Config{
		Names:     DefaultNamesPath,
		LogLevel:  "info",
		LogFormat: "auto",
	}
}

// LoadYAML decodes a YAML config over the defaults. Unknown keys are
// rejected.
func LoadYAML(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: decode yaml: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// ApplyParams fills file names not already set from a parameter file.
func (c *Config) ApplyParams(p Params) {
	if c.Results == "" {
		c.Results = p.Results
	}
	if c.Instances == "" {
		c.Instances = p.Instances
	}
	if c.Algorithms == "" {
		c.Algorithms = p.Algorithms
	}
	if c.Stats == "" {
		c.Stats = p.Stats
	}
}

// CheckOptions applies the field rules and the option combination rules.
// It runs before any input is read, so it does not require the parameter
// file to have been parsed yet.
func (c Config) CheckOptions() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.ParamsPath == "" && c.Results == "" {
		return fmt.Errorf("%w: a parameter file is mandatory", ErrInvalidConfig)
	}
	if c.Level != nil && c.Difficult == "" {
		return fmt.Errorf("%w: level requires a difficult-instance output file", ErrInvalidConfig)
	}
	if c.Difficult != "" && (c.Scaling != nil || c.Absolute) {
		return fmt.Errorf("%w: difficult-instance output is not compatible with time scaling or absolute values", ErrInvalidConfig)
	}
	if c.ChampionOut != "" && c.Champion == "" {
		return fmt.Errorf("%w: champion output file requires a champion algorithm", ErrInvalidConfig)
	}
	if c.Champion != "" && c.ChampionOut == "" {
		return fmt.Errorf("%w: champion algorithm requires a champion output file", ErrInvalidConfig)
	}
	// metric 0 is the default and needs no champion options
	if c.Metric != nil && *c.Metric > 0 && (c.Champion == "" || c.ChampionOut == "") {
		return fmt.Errorf("%w: metric requires a champion algorithm and a champion output file", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the options and that the inputs are fully named.
func (c Config) Validate() error {
	if err := c.CheckOptions(); err != nil {
		return err
	}
	if c.Results == "" {
		return fmt.Errorf("%w: results file name missing", ErrInvalidConfig)
	}
	if c.Stats == "" && c.Difficult == "" && c.Champion == "" {
		return fmt.Errorf("%w: statistics output file name missing", ErrInvalidConfig)
	}
	if _, err := c.Delimiters(); err != nil {
		return err
	}
	return nil
}

func (c Config) EffectiveScaling() float64 {
	if c.Scaling == nil {
		return 1
	}
	return *c.Scaling
}

// EffectiveLevel is -1 when no level was given.
func (c Config) EffectiveLevel() int {
	if c.Level == nil {
		return -1
	}
	return *c.Level
}

func (c Config) EffectiveMetric() int {
	if c.Metric == nil {
		return 0
	}
	return *c.Metric
}

func (c Config) Delimiters() (history.Delimiters, error) {
	d := history.DefaultDelimiters()
	if c.HistoryEntry != "" {
		d.Entry, _ = utf8.DecodeRuneInString(c.HistoryEntry)
	}
	if c.HistoryPair != "" {
		d.Pair, _ = utf8.DecodeRuneInString(c.HistoryPair)
	}
	if err := d.Validate(); err != nil {
		return history.Delimiters{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return d, nil
}
