package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophlock/internal/flagx"
)

// BridgeConfig holds runtime settings of the biometric bridge server.
type BridgeConfig struct {
	Address      string
	Secret       string
	Platform     string
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
}

func (c *BridgeConfig) LoadDefaults() {
	c.Address = "127.0.0.1:50561"
	c.Platform = "console"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadBridgeConfig builds a BridgeConfig from defaults, JSON, BIOBRIDGE_*
// variables and flags.
func LoadBridgeConfig() *BridgeConfig {
	cfg := &BridgeConfig{}
	cfg.LoadDefaults()
	parseBridgeJson(cfg)
	parseBridgeEnv(cfg)
	parseBridgeFlags(cfg)
	return cfg
}

func (c *BridgeConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("bridge address is empty")
	}
	if c.Secret == "" {
		return fmt.Errorf("bridge secret is empty")
	}
	return validateLogging(c.LogFormat)
}

type BridgeJsonConfig struct {
	Address      *string `json:"address"`
	Secret       *string `json:"secret"`
	Platform     *string `json:"platform"`
	LogLevel     *string `json:"log_level"`
	LogFormat    *string `json:"log_format"`
	OTLPEndpoint *string `json:"otlp_endpoint"`
}

func parseBridgeJson(cfg *BridgeConfig) {
	var jc BridgeJsonConfig
	if !readJson(&jc) {
		return
	}
	setString(&cfg.Address, jc.Address)
	setString(&cfg.Secret, jc.Secret)
	setString(&cfg.Platform, jc.Platform)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.OTLPEndpoint, jc.OTLPEndpoint)
}

const BridgeEnvPrefix = "BIOBRIDGE_"

type BridgeEnvConfig struct {
	Address      *string `env:"ADDRESS"`
	Secret       *string `env:"SECRET"`
	Platform     *string `env:"PLATFORM"`
	LogLevel     *string `env:"LOG_LEVEL"`
	LogFormat    *string `env:"LOG_FORMAT"`
	OTLPEndpoint *string `env:"OTLP_ENDPOINT"`
}

func parseBridgeEnv(cfg *BridgeConfig) {
	var ec BridgeEnvConfig
	parseEnvInto(&ec, BridgeEnvPrefix)

	setString(&cfg.Address, ec.Address)
	setString(&cfg.Secret, ec.Secret)
	setString(&cfg.Platform, ec.Platform)
	setString(&cfg.LogLevel, ec.LogLevel)
	setString(&cfg.LogFormat, ec.LogFormat)
	setString(&cfg.OTLPEndpoint, ec.OTLPEndpoint)
}

// parseBridgeFlags populates BridgeConfig fields from command-line flags.
//
//	-a string          listen address
//	-k string          shared secret
//	-platform string   allow, deny or console
//	-log-level string  debug, info, warn, error
//	-log-format string text or json
//	-otlp string       OTLP/HTTP trace endpoint
func parseBridgeFlags(cfg *BridgeConfig) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-platform", "-log-level", "-log-format", "-otlp"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Address, "a", cfg.Address, "listen address")
	fs.StringVar(&cfg.Secret, "k", cfg.Secret, "shared secret")
	fs.StringVar(&cfg.Platform, "platform", cfg.Platform, "platform mode (allow, deny, console)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text, json)")
	fs.StringVar(&cfg.OTLPEndpoint, "otlp", cfg.OTLPEndpoint, "OTLP/HTTP trace endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
