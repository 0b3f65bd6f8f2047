package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophlock/internal/configstore"
)

// Config holds runtime settings of the lock.
//
// BiometricHint is tri-state: "" lets the store decide, "true"/"false" are
// trusted as given by the caller that launched the lock.
type Config struct {
	StoreDriver    string
	StoreDSN       string
	StoreProfile   string
	RelyingPartyID string
	BridgeAddr     string
	BridgeSecret   string
	AssertTimeout  time.Duration
	BiometricHint  string
	Language       string
	Avatar         string
	Plain          bool
	LogLevel       string
	LogFormat      string
	LogFile        string
	OTLPEndpoint   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StoreDriver = configstore.DriverSQLite
	c.StoreDSN = "gophlock.db"
	c.StoreProfile = configstore.DefaultProfile
	c.RelyingPartyID = "localhost"
	c.AssertTimeout = 60 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig builds a Config from defaults, then JSON, environment and flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// Hint decodes BiometricHint. nil means no hint.
func (c *Config) Hint() (*bool, error) {
	if c.BiometricHint == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(c.BiometricHint)
	if err != nil {
		return nil, fmt.Errorf("biometric hint %q: %w", c.BiometricHint, err)
	}
	return &v, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case configstore.DriverSQLite, configstore.DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.StoreDSN == "" {
		return fmt.Errorf("store dsn is empty")
	}
	if c.BridgeAddr != "" && c.BridgeSecret == "" {
		return fmt.Errorf("bridge address set without a bridge secret")
	}
	if c.AssertTimeout < 0 {
		return fmt.Errorf("negative assert timeout %s", c.AssertTimeout)
	}
	if _, err := c.Hint(); err != nil {
		return err
	}
	return validateLogging(c.LogFormat)
}

func validateLogging(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
}
