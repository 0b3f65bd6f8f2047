package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophlock/internal/flagx"
	"github.com/dmitrijs2005/gophlock/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer fields
// tell an absent key from a zero value.
type JsonConfig struct {
	StoreDriver    *string         `json:"store_driver"`
	StoreDSN       *string         `json:"store_dsn"`
	StoreProfile   *string         `json:"store_profile"`
	RelyingPartyID *string         `json:"relying_party_id"`
	BridgeAddr     *string         `json:"bridge_addr"`
	BridgeSecret   *string         `json:"bridge_secret"`
	AssertTimeout  *timex.Duration `json:"assert_timeout"`
	BiometricHint  *string         `json:"biometric"`
	Language       *string         `json:"language"`
	Avatar         *string         `json:"avatar"`
	Plain          *bool           `json:"plain"`
	LogLevel       *string         `json:"log_level"`
	LogFormat      *string         `json:"log_format"`
	LogFile        *string         `json:"log_file"`
	OTLPEndpoint   *string         `json:"otlp_endpoint"`
}

// readJson unmarshals the file named by -c/-config into dst. It reports
// false when no file is configured and panics on read or decode errors.
func readJson(dst any) bool {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return false
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		panic(err)
	}
	return true
}

// parseJson overlays cfg with the keys present in the JSON file.
func parseJson(cfg *Config) {
	var jc JsonConfig
	if !readJson(&jc) {
		return
	}

	setString(&cfg.StoreDriver, jc.StoreDriver)
	setString(&cfg.StoreDSN, jc.StoreDSN)
	setString(&cfg.StoreProfile, jc.StoreProfile)
	setString(&cfg.RelyingPartyID, jc.RelyingPartyID)
	setString(&cfg.BridgeAddr, jc.BridgeAddr)
	setString(&cfg.BridgeSecret, jc.BridgeSecret)
	if jc.AssertTimeout != nil {
		cfg.AssertTimeout = jc.AssertTimeout.Duration
	}
	setString(&cfg.BiometricHint, jc.BiometricHint)
	setString(&cfg.Language, jc.Language)
	setString(&cfg.Avatar, jc.Avatar)
	if jc.Plain != nil {
		cfg.Plain = *jc.Plain
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.OTLPEndpoint, jc.OTLPEndpoint)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
