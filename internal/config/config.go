// Package config defines the data structures related to configuration and
// includes functions for loading the config and turning accounts into sessions.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/consistency-planner/internal/fxrate"
	"github.com/iwvelando/consistency-planner/internal/roadmap"
	"github.com/iwvelando/consistency-planner/internal/rules"
	"github.com/iwvelando/consistency-planner/internal/session"
	"github.com/iwvelando/consistency-planner/internal/store"
	"github.com/iwvelando/consistency-planner/internal/tradelog"
	"github.com/iwvelando/consistency-planner/pkg/constants"
	"github.com/iwvelando/consistency-planner/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for consistency-planner.
type Configuration struct {
	Common   Common
	Accounts []Account
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
	Currency CurrencyConfig `yaml:"currency,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// CurrencyConfig controls the optional local currency conversion.
type CurrencyConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Code         string        `yaml:"code,omitempty"`
	Locale       string        `yaml:"locale,omitempty"`
	RateURL      string        `yaml:"rateURL,omitempty"`
	FallbackRate float64       `yaml:"fallbackRate,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

// RateOptions converts the currency section into rate lookup options.
func (c CurrencyConfig) RateOptions() fxrate.Options {
	return fxrate.Options{
		URL:      c.RateURL,
		Code:     c.Code,
		Fallback: c.FallbackRate,
		Timeout:  c.Timeout,
	}
}

// StoreConfig selects where snapshots are persisted.
type StoreConfig struct {
	Backend       string `yaml:"backend,omitempty"` // file, sqlite, redis
	Path          string `yaml:"path,omitempty"`
	DSN           string `yaml:"dsn,omitempty"`
	RedisAddr     string `yaml:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       int    `yaml:"redisDB,omitempty"`
	KeyPrefix     string `yaml:"keyPrefix,omitempty"`
}

// Options converts the store section into store options.
func (s StoreConfig) Options() store.Options {
	return store.Options{
		Backend:       s.Backend,
		Path:          s.Path,
		DSN:           s.DSN,
		RedisAddr:     s.RedisAddr,
		RedisPassword: s.RedisPassword,
		RedisDB:       s.RedisDB,
		KeyPrefix:     s.KeyPrefix,
	}
}

// Common holds the goals shared by every account unless overridden.
type Common struct {
	TargetPayout float64
	PlannedDays  int
}

// Account is one funded account with its daily results. Days are kept as
// raw text so entries that are not numbers can be reported and counted as 0.
type Account struct {
	Name         string
	Active       bool
	Program      string
	AccountSize  float64
	TargetPayout float64
	PlannedDays  int
	Days         []string
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults make the keys known to viper so environment overrides apply.
	v.SetDefault("common.targetPayout", constants.DefaultTargetPayout)
	v.SetDefault("common.plannedDays", constants.DefaultPlannedDays)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("currency.enabled", false)
	v.SetDefault("currency.code", constants.DefaultCurrencyCode)
	v.SetDefault("currency.locale", constants.DefaultCurrencyLocale)
	v.SetDefault("currency.rateURL", constants.DefaultRateURL)
	v.SetDefault("currency.fallbackRate", constants.DefaultExchangeRate)
	v.SetDefault("currency.timeout", time.Duration(constants.DefaultRateTimeoutSeconds)*time.Second)
	v.SetDefault("store.backend", constants.StoreBackendFile)
	v.SetDefault("store.path", constants.DefaultStorePath)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.redisAddr", "")
	v.SetDefault("store.redisPassword", "")
	v.SetDefault("store.redisDB", 0)
	v.SetDefault("store.keyPrefix", constants.DefaultStoreKeyPrefix)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	configuration.applyDefaults()
	return &configuration, nil
}

// applyDefaults fills values that were explicitly set to zero.
func (c *Configuration) applyDefaults() {
	if c.Common.TargetPayout <= 0 {
		c.Common.TargetPayout = constants.DefaultTargetPayout
	}
	if c.Common.PlannedDays == 0 {
		c.Common.PlannedDays = constants.DefaultPlannedDays
	}
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	if c.Currency.FallbackRate <= 0 {
		c.Currency.FallbackRate = constants.DefaultExchangeRate
	}
	if c.Currency.Timeout <= 0 {
		c.Currency.Timeout = time.Duration(constants.DefaultRateTimeoutSeconds) * time.Second
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
}

// Goals resolves the account's goals, falling back to the common ones.
func (a Account) Goals(common Common) roadmap.Goals {
	goals := roadmap.Goals{
		TargetPayout: common.TargetPayout,
		PlannedDays:  common.PlannedDays,
	}
	if a.TargetPayout > 0 {
		goals.TargetPayout = a.TargetPayout
	}
	if a.PlannedDays != 0 {
		goals.PlannedDays = a.PlannedDays
	}
	return goals
}

// Session builds the evaluation input of the account.
func (a Account) Session(common Common) (session.Session, error) {
	program, err := rules.ParseProgram(a.Program)
	if err != nil {
		return session.Session{}, fmt.Errorf("account %q: %w", a.Name, err)
	}
	profile, err := rules.Lookup(program, a.AccountSize)
	if err != nil {
		return session.Session{}, fmt.Errorf("account %q: %w", a.Name, err)
	}

	log := tradelog.Parse(a.Days)
	if len(log) == 0 {
		log = tradelog.Reset()
	}

	return session.New(a.Name).
		WithProfile(profile).
		WithLog(log).
		WithGoals(a.Goals(common)), nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	accounts := make([]validation.AccountConfig, 0, len(c.Accounts))
	for _, account := range c.Accounts {
		accounts = append(accounts, validation.AccountConfig{
			Name:         account.Name,
			Active:       account.Active,
			Program:      account.Program,
			AccountSize:  account.AccountSize,
			TargetPayout: account.TargetPayout,
			PlannedDays:  account.PlannedDays,
			Days:         account.Days,
		})
	}

	validator := &validation.ConfigValidator{Accounts: accounts}
	warnings := validator.ValidateAll()

	if err := validation.ValidateStoreBackend(c.Store.Backend); err != nil {
		warnings = append(warnings, err.Error())
	}
	if c.Currency.Enabled && strings.TrimSpace(c.Currency.Code) == "" {
		warnings = append(warnings, "Currency conversion is enabled without a currency code")
	}
	return warnings
}
