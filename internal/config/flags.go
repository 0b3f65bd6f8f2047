package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gophlock/internal/flagx"
)

var lockFlags = []string{
	"-d", "-dsn", "-profile", "-rp", "-b", "-k", "-t", "-biometric",
	"-lang", "-avatar", "-plain", "-log-level", "-log-format", "-log-file",
	"-otlp",
}

// parseFlags populates Config fields from command-line flags.
//
//	-d string          store driver (sqlite, postgres)
//	-dsn string        store data source name
//	-profile string    lock_settings profile (postgres)
//	-rp string         relying party id
//	-b string          biometric bridge address
//	-k string          biometric bridge secret
//	-t duration        assertion timeout handed to the platform
//	-biometric string  upstream biometric hint: true, false or empty
//	-lang string       preferred language
//	-avatar string     avatar shown on the lock screen
//	-plain             use the line prompt instead of the full-screen view
//	-log-level string  debug, info, warn, error
//	-log-format string text or json
//	-log-file string   write logs to this file instead of stderr
//	-otlp string       OTLP/HTTP trace endpoint
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], lockFlags, "-plain")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.StoreDriver, "d", cfg.StoreDriver, "store driver (sqlite, postgres)")
	fs.StringVar(&cfg.StoreDSN, "dsn", cfg.StoreDSN, "store data source name")
	fs.StringVar(&cfg.StoreProfile, "profile", cfg.StoreProfile, "lock_settings profile")
	fs.StringVar(&cfg.RelyingPartyID, "rp", cfg.RelyingPartyID, "relying party id")
	fs.StringVar(&cfg.BridgeAddr, "b", cfg.BridgeAddr, "biometric bridge address")
	fs.StringVar(&cfg.BridgeSecret, "k", cfg.BridgeSecret, "biometric bridge secret")
	fs.DurationVar(&cfg.AssertTimeout, "t", cfg.AssertTimeout, "assertion timeout")
	fs.StringVar(&cfg.BiometricHint, "biometric", cfg.BiometricHint, "biometric hint (true, false or empty)")
	fs.StringVar(&cfg.Language, "lang", cfg.Language, "preferred language")
	fs.StringVar(&cfg.Avatar, "avatar", cfg.Avatar, "avatar shown on the lock screen")
	fs.BoolVar(&cfg.Plain, "plain", cfg.Plain, "line prompt instead of full-screen view")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text, json)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file")
	fs.StringVar(&cfg.OTLPEndpoint, "otlp", cfg.OTLPEndpoint, "OTLP/HTTP trace endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
