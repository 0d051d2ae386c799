package config

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config application configuration
type Config struct {
	App    AppConfig     `yaml:"app"`
	Server ServerConfig  `yaml:"server"`
	Redis  RedisConfig   `yaml:"redis"`
	Router RouterConfig  `yaml:"router"`
	Tokens []TokenConfig `yaml:"tokens"`
	Pools  []PoolConfig  `yaml:"pools"`
}

// AppConfig application basic configuration
type AppConfig struct {
	Name string `yaml:"name"`
}

// ServerConfig HTTP server configuration
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// RedisConfig quote cache configuration. An empty Addr selects the
// in-memory cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RouterConfig swap router configuration
type RouterConfig struct {
	Address       string `yaml:"address"`
	FactoryAddr   string `yaml:"factoryAddress"`
	WrappedNative string `yaml:"wrappedNative"`
	RefundWrapped bool   `yaml:"refundWrapped"` // refund leftovers as wrapped tokens instead of native
}

// TokenConfig registered token configuration
type TokenConfig struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}

// PoolConfig seeded pool configuration
type PoolConfig struct {
	TokenA   string `yaml:"tokenA"`
	TokenB   string `yaml:"tokenB"`
	Fee      uint32 `yaml:"fee"`      // hundredths of a bip
	ReserveA string `yaml:"reserveA"` // decimal integer, base units
	ReserveB string `yaml:"reserveB"`
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// SetDefaults sets default values
func (c *Config) SetDefaults() {
	if c.App.Name == "" {
		c.App.Name = "swap-router"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Router.Address == "" {
		c.Router.Address = "0x0000000000000000000000000000000000000E42"
	}
	if c.Router.FactoryAddr == "" {
		c.Router.FactoryAddr = "0x0000000000000000000000000000000000000FAC"
	}
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.Router.WrappedNative == "" {
		return fmt.Errorf("router.wrappedNative is required")
	}
	if !common.IsHexAddress(c.Router.WrappedNative) {
		return fmt.Errorf("router.wrappedNative is not a valid address")
	}
	if !common.IsHexAddress(c.Router.Address) {
		return fmt.Errorf("router.address is not a valid address")
	}
	if !common.IsHexAddress(c.Router.FactoryAddr) {
		return fmt.Errorf("router.factoryAddress is not a valid address")
	}
	for i, tok := range c.Tokens {
		if !common.IsHexAddress(tok.Address) {
			return fmt.Errorf("tokens[%d].address is not a valid address", i)
		}
	}
	for i, p := range c.Pools {
		if !common.IsHexAddress(p.TokenA) {
			return fmt.Errorf("pools[%d].tokenA is not a valid address", i)
		}
		if !common.IsHexAddress(p.TokenB) {
			return fmt.Errorf("pools[%d].tokenB is not a valid address", i)
		}
		if p.Fee == 0 {
			return fmt.Errorf("pools[%d].fee is required", i)
		}
		if _, err := p.Reserves(); err != nil {
			return fmt.Errorf("pools[%d]: %w", i, err)
		}
	}
	return nil
}

// Reserves parses the configured reserves into integers
func (p *PoolConfig) Reserves() ([2]*big.Int, error) {
	var out [2]*big.Int
	a, ok := new(big.Int).SetString(p.ReserveA, 10)
	if !ok || a.Sign() <= 0 {
		return out, fmt.Errorf("reserveA must be a positive integer")
	}
	b, ok := new(big.Int).SetString(p.ReserveB, 10)
	if !ok || b.Sign() <= 0 {
		return out, fmt.Errorf("reserveB must be a positive integer")
	}
	out[0], out[1] = a, b
	return out, nil
}
