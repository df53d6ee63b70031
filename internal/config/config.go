package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix  = "DP"
	configName = "config"
	configType = "toml"
	configDir  = ".donation-portal"

	KeyEnv             = "env"
	KeyStore           = "store"
	KeyLedgerPath      = "ledger.path"
	KeyLedgerCooldown  = "ledger.cooldown"
	KeyJournalPath     = "treasury.journal_path"
	KeyDatabaseURL     = "database.url"
	KeyHTTPAddr        = "http.addr"
	KeyHTTPRead        = "http.read_timeout"
	KeyHTTPWrite       = "http.write_timeout"
	KeyHTTPIdle        = "http.idle_timeout"
	KeyAuthTokenSecret = "auth.token_secret"
	KeyAuthTokenTTL    = "auth.token_ttl"
	KeyAmountUnit      = "display.unit"
	KeyLogLevel        = "log.level"
)

const (
	StoreTOML     = "toml"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

var ErrUnknownStore = errors.New("unknown store")

type HTTP struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type Auth struct {
	TokenSecret string
	TokenTTL    time.Duration
}

type Config struct {
	Env         string
	Store       string
	Cooldown    time.Duration
	DatabaseURL string
	AmountUnit  string
	LogLevel    string
	HTTP        HTTP
	Auth        Auth

	v *viper.Viper
}

// Load reads ~/.donation-portal/config.toml (or path when set), then applies
// DP_* environment overrides. A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, configDir)

	v.SetDefault(KeyEnv, "production")
	v.SetDefault(KeyStore, StoreTOML)
	v.SetDefault(KeyLedgerPath, filepath.Join(baseDir, "ledger.toml"))
	v.SetDefault(KeyLedgerCooldown, "15m")
	v.SetDefault(KeyJournalPath, filepath.Join(baseDir, "payouts.toml"))
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyHTTPRead, "10s")
	v.SetDefault(KeyHTTPWrite, "10s")
	v.SetDefault(KeyHTTPIdle, "60s")
	v.SetDefault(KeyAuthTokenTTL, "24h")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(KeyAuthTokenSecret, "DP_AUTH_TOKEN_SECRET", "DP_TOKEN_SECRET"); err != nil {
		return nil, fmt.Errorf("bind token secret env: %w", err)
	}
	if err := v.BindEnv(KeyDatabaseURL, "DP_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind database url env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(baseDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Env:         v.GetString(KeyEnv),
		Store:       strings.ToLower(strings.TrimSpace(v.GetString(KeyStore))),
		Cooldown:    v.GetDuration(KeyLedgerCooldown),
		DatabaseURL: v.GetString(KeyDatabaseURL),
		AmountUnit:  v.GetString(KeyAmountUnit),
		LogLevel:    v.GetString(KeyLogLevel),
		HTTP: HTTP{
			Addr:         v.GetString(KeyHTTPAddr),
			ReadTimeout:  v.GetDuration(KeyHTTPRead),
			WriteTimeout: v.GetDuration(KeyHTTPWrite),
			IdleTimeout:  v.GetDuration(KeyHTTPIdle),
		},
		Auth: Auth{
			TokenSecret: v.GetString(KeyAuthTokenSecret),
			TokenTTL:    v.GetDuration(KeyAuthTokenTTL),
		},
		v: v,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreTOML, StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("store %q needs %s", StorePostgres, KeyDatabaseURL)
		}
	default:
		return fmt.Errorf("%w %q (want %s, %s or %s)", ErrUnknownStore, c.Store, StoreTOML, StorePostgres, StoreMemory)
	}

	if c.Cooldown < 0 {
		return fmt.Errorf("%s must not be negative", KeyLedgerCooldown)
	}

	return nil
}

// Viper exposes the underlying settings to adapters that resolve their own
// keys, such as the TOML repository paths.
func (c *Config) Viper() *viper.Viper {
	return c.v
}

func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}
