package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig mirrors Config for environment overrides. Unset variables leave
// the pointers nil.
type EnvConfig struct {
	StoreDriver    *string        `env:"STORE_DRIVER"`
	StoreDSN       *string        `env:"STORE_DSN"`
	StoreProfile   *string        `env:"STORE_PROFILE"`
	RelyingPartyID *string        `env:"RP_ID"`
	BridgeAddr     *string        `env:"BRIDGE_ADDR"`
	BridgeSecret   *string        `env:"BRIDGE_SECRET"`
	AssertTimeout  *time.Duration `env:"ASSERT_TIMEOUT"`
	BiometricHint  *string        `env:"BIOMETRIC"`
	Language       *string        `env:"LANG"`
	Avatar         *string        `env:"AVATAR"`
	Plain          *bool          `env:"PLAIN"`
	LogLevel       *string        `env:"LOG_LEVEL"`
	LogFormat      *string        `env:"LOG_FORMAT"`
	LogFile        *string        `env:"LOG_FILE"`
	OTLPEndpoint   *string        `env:"OTLP_ENDPOINT"`
}

// EnvPrefix prefixes every lock variable, e.g. GOPHLOCK_STORE_DSN.
const EnvPrefix = "GOPHLOCK_"

func parseEnvInto(target any, prefix string) {
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		panic(err)
	}
}

// parseEnv overlays cfg with the GOPHLOCK_* variables that are set.
func parseEnv(cfg *Config) {
	var ec EnvConfig
	parseEnvInto(&ec, EnvPrefix)

	setString(&cfg.StoreDriver, ec.StoreDriver)
	setString(&cfg.StoreDSN, ec.StoreDSN)
	setString(&cfg.StoreProfile, ec.StoreProfile)
	setString(&cfg.RelyingPartyID, ec.RelyingPartyID)
	setString(&cfg.BridgeAddr, ec.BridgeAddr)
	setString(&cfg.BridgeSecret, ec.BridgeSecret)
	if ec.AssertTimeout != nil {
		cfg.AssertTimeout = *ec.AssertTimeout
	}
	setString(&cfg.BiometricHint, ec.BiometricHint)
	setString(&cfg.Language, ec.Language)
	setString(&cfg.Avatar, ec.Avatar)
	if ec.Plain != nil {
		cfg.Plain = *ec.Plain
	}
	setString(&cfg.LogLevel, ec.LogLevel)
	setString(&cfg.LogFormat, ec.LogFormat)
	setString(&cfg.LogFile, ec.LogFile)
	setString(&cfg.OTLPEndpoint, ec.OTLPEndpoint)
}
