// Package config provides Viper-based configuration loading for the casino server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	// Timezones validate without a system zoneinfo database.
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
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

// StorageConfig selects the profile store backend.
type StorageConfig struct {
	// Driver is "memory" or "postgres".
	Driver string `mapstructure:"driver"`
}

// HTTPConfig holds the Mini App JSON API listener settings.
type HTTPConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// Addr returns the "host:port" listen address.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// GRPCConfig holds the gRPC listener settings.
type GRPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
func (g GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EconomyConfig holds the starting profile and level curve.
type EconomyConfig struct {
	StartingBalance  decimal.Decimal `mapstructure:"starting_balance"`
	StartingGems     int64           `mapstructure:"starting_gems"`
	ExperienceBase   int64           `mapstructure:"experience_base"`
	ExperienceGrowth float64         `mapstructure:"experience_growth"`
	LevelUpBonus     decimal.Decimal `mapstructure:"level_up_bonus"`
}

// GamesConfig holds tunables shared by the mini-game engines.
type GamesConfig struct {
	// UpgradeMaxChance is the upgrade success ceiling in percent.
	UpgradeMaxChance float64 `mapstructure:"upgrade_max_chance"`
	// MinerBombs is the default bomb count for a miner round.
	MinerBombs int `mapstructure:"miner_bombs"`
	// MaxCaseQuantity caps the units opened by a single openCase intent.
	MaxCaseQuantity int `mapstructure:"max_case_quantity"`
	// CrashTick is the interval between crash multiplier updates.
	CrashTick time.Duration `mapstructure:"crash_tick"`
	// CrashCooldown is the pause between a crash and the next round.
	CrashCooldown time.Duration `mapstructure:"crash_cooldown"`
}

// ContentConfig locates the YAML catalog.
type ContentConfig struct {
	Dir string `mapstructure:"dir"`
}

// JobsConfig holds scheduled job settings.
type JobsConfig struct {
	// DailyReset is a five-field cron expression.
	DailyReset string `mapstructure:"daily_reset"`
	// Timezone is an IANA location name used by the scheduler.
	Timezone string `mapstructure:"timezone"`
	// Flush is the cron spec for saving every loaded profile.
	Flush string `mapstructure:"flush"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Economy  EconomyConfig  `mapstructure:"economy"`
	Games    GamesConfig    `mapstructure:"games"`
	Content  ContentConfig  `mapstructure:"content"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Driver == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateListener("http", c.HTTP.Host, c.HTTP.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateListener("grpc", c.GRPC.Host, c.GRPC.Port); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEconomy(c.Economy); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGames(c.Games); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Content.Dir == "" {
		errs = append(errs, "content.dir must not be empty")
	}
	if err := validateJobs(c.Jobs); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	validDrivers := map[string]bool{"memory": true, "postgres": true}
	if !validDrivers[s.Driver] {
		return fmt.Errorf("storage.driver must be one of [memory, postgres], got %q", s.Driver)
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
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateListener(section, host string, port int) error {
	var errs []string
	if host == "" {
		errs = append(errs, fmt.Sprintf("%s.host must not be empty", section))
	}
	if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("%s.port must be 1-65535, got %d", section, port))
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

func validateEconomy(e EconomyConfig) error {
	var errs []string
	if e.StartingBalance.IsNegative() {
		errs = append(errs, "economy.starting_balance must not be negative")
	}
	if e.StartingGems < 0 {
		errs = append(errs, "economy.starting_gems must not be negative")
	}
	if e.ExperienceBase < 1 {
		errs = append(errs, fmt.Sprintf("economy.experience_base must be >= 1, got %d", e.ExperienceBase))
	}
	if e.ExperienceGrowth < 1 {
		errs = append(errs, fmt.Sprintf("economy.experience_growth must be >= 1, got %g", e.ExperienceGrowth))
	}
	if e.LevelUpBonus.IsNegative() {
		errs = append(errs, "economy.level_up_bonus must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGames(g GamesConfig) error {
	var errs []string
	if g.UpgradeMaxChance <= 0 || g.UpgradeMaxChance > 100 {
		errs = append(errs, fmt.Sprintf("games.upgrade_max_chance must be in (0, 100], got %g", g.UpgradeMaxChance))
	}
	if g.MinerBombs < 1 || g.MinerBombs > 11 {
		errs = append(errs, fmt.Sprintf("games.miner_bombs must be 1-11, got %d", g.MinerBombs))
	}
	if g.MaxCaseQuantity < 1 {
		errs = append(errs, fmt.Sprintf("games.max_case_quantity must be >= 1, got %d", g.MaxCaseQuantity))
	}
	if g.CrashTick <= 0 {
		errs = append(errs, "games.crash_tick must be positive")
	}
	if g.CrashCooldown < 0 {
		errs = append(errs, "games.crash_cooldown must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateJobs(j JobsConfig) error {
	if _, err := cron.ParseStandard(j.DailyReset); err != nil {
		return fmt.Errorf("jobs.daily_reset is not a valid cron expression: %w", err)
	}
	if _, err := cron.ParseStandard(j.Flush); err != nil {
		return fmt.Errorf("jobs.flush is not a valid cron expression: %w", err)
	}
	if _, err := time.LoadLocation(j.Timezone); err != nil {
		return fmt.Errorf("jobs.timezone %q: %w", j.Timezone, err)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("STARCASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	if v == nil {
		return Config{}, errors.New("viper instance must not be nil")
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decimalHook())); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance populated with every default value.
//
// Postcondition: LoadFromViper(Defaults()) succeeds.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "starcase")
	v.SetDefault("database.password", "starcase")
	v.SetDefault("database.name", "starcase")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("storage.driver", "memory")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "0s")
	v.SetDefault("http.allowed_origins", []string{"https://web.telegram.org"})

	v.SetDefault("grpc.host", "127.0.0.1")
	v.SetDefault("grpc.port", 50061)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("economy.starting_balance", "1250")
	v.SetDefault("economy.starting_gems", 0)
	v.SetDefault("economy.experience_base", 1000)
	v.SetDefault("economy.experience_growth", 1.5)
	v.SetDefault("economy.level_up_bonus", "100")

	v.SetDefault("games.upgrade_max_chance", 95.0)
	v.SetDefault("games.miner_bombs", 6)
	v.SetDefault("games.max_case_quantity", 10)
	v.SetDefault("games.crash_tick", "100ms")
	v.SetDefault("games.crash_cooldown", "3s")

	v.SetDefault("content.dir", "content")

	v.SetDefault("jobs.daily_reset", "0 0 * * *")
	v.SetDefault("jobs.timezone", "UTC")
	v.SetDefault("jobs.flush", "@every 1m")
}
