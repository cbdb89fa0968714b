package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FeeModeNetwork = "network"
	FeeModeFixed   = "fixed"

	DefaultTestnetURL = "https://s.altnet.rippletest.net:51234"
)

// Config is the typed configuration object handed to every component.
type Config struct {
	Env              string        `mapstructure:"env"`
	RPCURL           string        `mapstructure:"rpc_url"`
	RPCTimeout       time.Duration `mapstructure:"rpc_timeout"`
	RPCRateLimit     float64       `mapstructure:"rpc_rate_limit"` // requests per second, 0 disables
	WalletDBPath     string        `mapstructure:"wallet_db_path"`
	WalletPassphrase string        `mapstructure:"wallet_passphrase"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFile          string        `mapstructure:"log_file"`
	Fee              FeeConfig     `mapstructure:"fee"`
	Build            BuildConfig   `mapstructure:"build"`
	Submit           SubmitConfig  `mapstructure:"submit"`
}

type FeeConfig struct {
	Mode       string  `mapstructure:"mode"`
	FixedDrops uint64  `mapstructure:"fixed_drops"`
	MaxDrops   uint64  `mapstructure:"max_drops"`
	Multiplier float64 `mapstructure:"multiplier"`
}

type BuildConfig struct {
	LedgerHorizon uint32 `mapstructure:"ledger_horizon"`
}

type SubmitConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BackoffInitial time.Duration `mapstructure:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
}

// LoadConfig loads config.json and .env from dir, creating a default config
// file when none exists. Environment variables prefixed with XRPL_ override
// file values.
func LoadConfig(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; create a default one
		if err := createDefaultConfig(v, dir); err != nil {
			return nil, err
		}
	}

	// Env bindings come after the default file is written so secrets from
	// the environment never end up on disk.
	v.SetEnvPrefix("XRPL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("rpc_url", "XRPL_RPC_URL", "TESTNET_URL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults sets default configuration values based on the environment
func setDefaults(v *viper.Viper) {
	env := os.Getenv("XRPL_ENV")
	if env == "" {
		env = "development"
	}
	v.SetDefault("env", env)

	if env == "production" {
		v.SetDefault("wallet_db_path", "/var/lib/xrpl-wallet/wallets.db")
		v.SetDefault("log_level", "info")
		v.SetDefault("log_file", "/var/log/xrpl-wallet/wallet.log")
	} else {
		v.SetDefault("wallet_db_path", "./wallets.db")
		v.SetDefault("log_level", "debug")
		v.SetDefault("log_file", "")
	}

	// Common defaults for both environments
	v.SetDefault("rpc_url", DefaultTestnetURL)
	v.SetDefault("rpc_timeout", "20s")
	v.SetDefault("rpc_rate_limit", 10.0)
	v.SetDefault("wallet_passphrase", "")

	v.SetDefault("fee.mode", FeeModeNetwork)
	v.SetDefault("fee.fixed_drops", 12) // in drops
	v.SetDefault("fee.max_drops", 2000) // in drops
	v.SetDefault("fee.multiplier", 1.0)

	v.SetDefault("build.ledger_horizon", 20)

	v.SetDefault("submit.max_attempts", 5)
	v.SetDefault("submit.backoff_initial", "500ms")
	v.SetDefault("submit.backoff_max", "8s")
	v.SetDefault("submit.poll_interval", "4s")
	v.SetDefault("submit.confirm_timeout", "2m")
}

// createDefaultConfig writes the defaults to dir/config.json
func createDefaultConfig(v *viper.Viper, dir string) error {
	path := filepath.Join(dir, "config.json")
	if err := v.SafeWriteConfigAs(path); err != nil {
		if _, ok := err.(viper.ConfigFileAlreadyExistsError); ok {
			return nil
		}
		return fmt.Errorf("error creating config file: %w", err)
	}
	return nil
}

// Validate rejects configurations the engine cannot run with
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url must be set")
	}
	if c.WalletDBPath == "" {
		return fmt.Errorf("wallet_db_path must be set")
	}
	switch c.Fee.Mode {
	case FeeModeNetwork:
		if c.Fee.Multiplier <= 0 {
			return fmt.Errorf("fee.multiplier must be positive")
		}
	case FeeModeFixed:
		if c.Fee.FixedDrops == 0 {
			return fmt.Errorf("fee.fixed_drops must be positive")
		}
	default:
		return fmt.Errorf("unknown fee.mode %q", c.Fee.Mode)
	}
	if c.Build.LedgerHorizon == 0 {
		return fmt.Errorf("build.ledger_horizon must be positive")
	}
	if c.Submit.MaxAttempts < 1 {
		return fmt.Errorf("submit.max_attempts must be at least 1")
	}
	if c.Submit.PollInterval <= 0 || c.Submit.ConfirmTimeout <= 0 {
		return fmt.Errorf("submit.poll_interval and submit.confirm_timeout must be positive")
	}
	return nil
}
