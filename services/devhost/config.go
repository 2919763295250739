package devhost

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
)

// Config is the development host configuration
type Config struct {
	Listen          string         `yaml:"listen"`
	ContractAccount string         `yaml:"contract_account"`
	LogLevel        string         `yaml:"log_level"`
	Contract        ContractConfig `yaml:"contract"`
	Store           StoreConfig    `yaml:"store"`
}

type ContractConfig struct {
	TokenA string `yaml:"token_a"`
	TokenB string `yaml:"token_b"`
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
	// Dust is "refund" or "reject".
	Dust string `yaml:"dust"`
}

type StoreConfig struct {
	// Driver is "memory" or "redis".
	Driver string      `yaml:"driver"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

func DefaultConfig() Config {
	return Config{
		Listen:          ":8081",
		ContractAccount: DefaultContractAccount,
		LogLevel:        "info",
		Contract: ContractConfig{
			TokenA: string(swap.DefaultConfig.TokenA),
			TokenB: string(swap.DefaultConfig.TokenB),
			Name:   swap.DefaultConfig.Name,
			Symbol: swap.DefaultConfig.Symbol,
			Dust:   swap.DefaultConfig.Dust.String(),
		},
		Store: StoreConfig{
			Driver: "memory",
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "fixedswap"},
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults, then applies a
// .env file and FIXEDSWAP_* environment overrides. An empty path skips the
// file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"FIXEDSWAP_LISTEN":           &c.Listen,
		"FIXEDSWAP_CONTRACT_ACCOUNT": &c.ContractAccount,
		"FIXEDSWAP_LOG_LEVEL":        &c.LogLevel,
		"FIXEDSWAP_TOKEN_A":          &c.Contract.TokenA,
		"FIXEDSWAP_TOKEN_B":          &c.Contract.TokenB,
		"FIXEDSWAP_DUST":             &c.Contract.Dust,
		"FIXEDSWAP_STORE":            &c.Store.Driver,
		"FIXEDSWAP_REDIS_ADDR":       &c.Store.Redis.Addr,
		"FIXEDSWAP_REDIS_PASSWORD":   &c.Store.Redis.Password,
		"FIXEDSWAP_REDIS_PREFIX":     &c.Store.Redis.Prefix,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("FIXEDSWAP_REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FIXEDSWAP_REDIS_DB: %w", err)
		}
		c.Store.Redis.DB = db
	}
	return nil
}

func (c Config) Validate() error {
	if _, err := c.SwapConfig(); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// SwapConfig builds the contract configuration.
func (c Config) SwapConfig() (swap.Config, error) {
	policy, err := swap.ParseDustPolicy(c.Contract.Dust)
	if err != nil {
		return swap.Config{}, err
	}
	cfg := swap.Config{
		TokenA: swap.TokenID(c.Contract.TokenA),
		TokenB: swap.TokenID(c.Contract.TokenB),
		Name:   c.Contract.Name,
		Symbol: c.Contract.Symbol,
		Dust:   policy,
	}
	return cfg, cfg.Validate()
}

// NewLogger returns a logrus logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// OpenStore connects the configured store.
func (c Config) OpenStore(ctx context.Context) (Store, error) {
	switch c.Store.Driver {
	case "redis":
		return NewRedisStore(ctx, RedisOptions{
			Addr:     c.Store.Redis.Addr,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
			Prefix:   c.Store.Redis.Prefix,
		})
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
}
