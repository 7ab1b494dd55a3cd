// Package config provides Viper-based configuration loading for the simulator.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/simfell/internal/game/character"
	"github.com/cory-johannsen/simfell/internal/rotation"
)

// SimulationConfig holds encounter and batch settings.
type SimulationConfig struct {
	// Duration is the nominal encounter length in seconds.
	Duration float64 `mapstructure:"duration"`
	// Enemies is the number of targets area abilities can hit.
	Enemies int `mapstructure:"enemies"`
	// Iterations is the number of independent runs in a batch.
	Iterations int `mapstructure:"iterations"`
	// Seed is the seed of run 0; run i uses Seed+i.
	Seed uint64 `mapstructure:"seed"`
	// Deterministic selects seeded random sources.
	Deterministic bool `mapstructure:"deterministic"`
	// Concurrency bounds parallel runs; 0 uses GOMAXPROCS.
	Concurrency int `mapstructure:"concurrency"`
	// Verbose traces every clock step.
	Verbose bool `mapstructure:"verbose"`
}

// CharacterConfig is the build snapshot every run starts from.
type CharacterConfig struct {
	Archetype string   `mapstructure:"archetype"`
	MainStat  float64  `mapstructure:"main_stat"`
	Crit      float64  `mapstructure:"crit"`
	Expertise float64  `mapstructure:"expertise"`
	Haste     float64  `mapstructure:"haste"`
	Spirit    float64  `mapstructure:"spirit"`
	Talents   []string `mapstructure:"talents"`
}

// Build converts c into a character build. The talent slice is copied.
func (c CharacterConfig) Build() character.Build {
	return character.Build{
		Archetype: c.Archetype,
		MainStat:  c.MainStat,
		Crit:      c.Crit,
		Expertise: c.Expertise,
		Haste:     c.Haste,
		Spirit:    c.Spirit,
		Talents:   append([]string(nil), c.Talents...),
	}
}

// RotationConfig selects the action-priority list, either inline or from a
// rotation file.
type RotationConfig struct {
	// File is a rotation YAML path, resolved relative to the config file.
	File    string            `mapstructure:"file"`
	Actions []rotation.Action `mapstructure:"actions"`
}

// List returns the configured actions, loading File when set.
//
// Postcondition: the returned list passes Validate.
func (r RotationConfig) List() (rotation.List, error) {
	if r.File == "" {
		l := rotation.List(r.Actions)
		return l, l.Validate()
	}
	f, err := rotation.LoadFile(r.File)
	if err != nil {
		return nil, err
	}
	return f.Actions, nil
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled stores every batch result when set.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// PingTimeout bounds every reachability check against the database.
	PingTimeout time.Duration `mapstructure:"ping_timeout"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ScriptingConfig bounds condition evaluation.
type ScriptingConfig struct {
	// InstructionLimit caps the Lua instructions one condition may execute.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Character  CharacterConfig  `mapstructure:"character"`
	Rotation   RotationConfig   `mapstructure:"rotation"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCharacter(c.Character); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRotation(c.Rotation); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 1 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 1, got %d", c.Scripting.InstructionLimit))
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.Duration <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.duration must be > 0, got %v", s.Duration))
	}
	if s.Enemies < 1 {
		errs = append(errs, fmt.Sprintf("simulation.enemies must be >= 1, got %d", s.Enemies))
	}
	if s.Iterations < 1 {
		errs = append(errs, fmt.Sprintf("simulation.iterations must be >= 1, got %d", s.Iterations))
	}
	if s.Concurrency < 0 {
		errs = append(errs, fmt.Sprintf("simulation.concurrency must be >= 0, got %d", s.Concurrency))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCharacter(c CharacterConfig) error {
	var errs []string
	if c.Archetype == "" {
		errs = append(errs, "character.archetype must not be empty")
	}
	for name, v := range map[string]float64{
		"main_stat": c.MainStat, "crit": c.Crit, "expertise": c.Expertise,
		"haste": c.Haste, "spirit": c.Spirit,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("character.%s must be >= 0, got %v", name, v))
		}
	}
	if len(errs) > 0 {
		// Map iteration order is random.
		sort.Strings(errs)
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRotation(r RotationConfig) error {
	switch {
	case r.File == "" && len(r.Actions) == 0:
		return errors.New("rotation must set file or actions")
	case r.File != "" && len(r.Actions) > 0:
		return errors.New("rotation must set only one of file or actions")
	case r.File == "":
		if err := rotation.List(r.Actions).Validate(); err != nil {
			return fmt.Errorf("rotation.actions: %w", err)
		}
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if d.PingTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("database.ping_timeout must be > 0, got %s", d.PingTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. A relative rotation.file is resolved
// against the directory holding path.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SIMFELL_ prefix
	v.SetEnvPrefix("SIMFELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := LoadFromViper(v)
	if err != nil {
		return Config{}, err
	}
	if f := cfg.Rotation.File; f != "" && !filepath.IsAbs(f) {
		cfg.Rotation.File = filepath.Join(filepath.Dir(path), f)
	}
	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults registers the default value of every key. Every key needs a
// default for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("simulation.duration", 300)
	v.SetDefault("simulation.enemies", 1)
	v.SetDefault("simulation.iterations", 1)
	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.deterministic", false)
	v.SetDefault("simulation.concurrency", 0)
	v.SetDefault("simulation.verbose", false)

	v.SetDefault("character.archetype", "rime")
	v.SetDefault("character.main_stat", 1000)
	v.SetDefault("character.crit", 0)
	v.SetDefault("character.expertise", 0)
	v.SetDefault("character.haste", 0)
	v.SetDefault("character.spirit", 0)
	v.SetDefault("character.talents", []string{})

	v.SetDefault("rotation.file", "")

	v.SetDefault("scripting.instruction_limit", 10_000)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "simfell")
	v.SetDefault("database.password", "simfell")
	v.SetDefault("database.name", "simfell")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.ping_timeout", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
