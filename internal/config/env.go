package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/network"
)

const (
	NetworkPublic  = "public"
	NetworkTestnet = "testnet"

	publicHorizonURL  = "https://horizon.stellar.org"
	testnetHorizonURL = "https://horizon-testnet.stellar.org"
)

// Config contains all configuration parameters for the application.
// Note: Passwords are never read from the environment - see TerminalPasswords.
type Config struct {
	Network               string        `envconfig:"STELLAR_NETWORK" default:"public"`
	HorizonURL            string        `envconfig:"HORIZON_URL"`
	BaseFee               int64         `envconfig:"BASE_FEE" default:"5000"`
	DefaultTimeoutSeconds int64         `envconfig:"DEFAULT_TIMEOUT_SECONDS" default:"3600"`
	HTTPTimeout           time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	HardwareBridgeURL     string        `envconfig:"HARDWARE_BRIDGE_URL" default:"http://127.0.0.1:21325"`
	HardwarePath          string        `envconfig:"HARDWARE_DERIVATION_PATH" default:"m/44'/148'/0'"`
	LogLevel              string        `envconfig:"LOG_LEVEL" default:"warn"`
}

// NetworkSettings identifies the ledger network a command talks to.
type NetworkSettings struct {
	Passphrase string
	HorizonURL string
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load processes environment variables into a new Config and validates it.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if c.Network != NetworkPublic && c.Network != NetworkTestnet {
		return nil, fmt.Errorf("STELLAR_NETWORK must be %q or %q", NetworkPublic, NetworkTestnet)
	}
	if c.BaseFee <= 0 {
		return nil, fmt.Errorf("BASE_FEE must be positive")
	}
	if c.DefaultTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("DEFAULT_TIMEOUT_SECONDS must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return c, nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// Settings returns the network passphrase and gateway URL.
// testMode forces the test network regardless of STELLAR_NETWORK.
func (c *Config) Settings(testMode bool) NetworkSettings {
	s := NetworkSettings{
		Passphrase: network.PublicNetworkPassphrase,
		HorizonURL: publicHorizonURL,
	}
	if testMode || c.Network == NetworkTestnet {
		s = NetworkSettings{
			Passphrase: network.TestNetworkPassphrase,
			HorizonURL: testnetHorizonURL,
		}
	}
	if c.HorizonURL != "" {
		s.HorizonURL = c.HorizonURL
	}
	return s
}

// NewLogger builds the process logger at the configured level, writing to stderr.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}
