// Package config loads runtime configuration for gophlock and biobridge.
//
// Sources & precedence
//
//  1. Built-in defaults (see LoadDefaults).
//  2. Optional JSON file selected via -c / -config, or $GOPHLOCK_CONFIG.
//  3. Environment variables prefixed GOPHLOCK_ (BIOBRIDGE_ for the bridge).
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
// Durations are timex.Duration values, either strings like "30s" or integer
// nanoseconds:
//
//	{
//	  "store_driver": "sqlite",
//	  "store_dsn": "gophlock.db",
//	  "relying_party_id": "localhost",
//	  "bridge_addr": "127.0.0.1:50561",
//	  "assert_timeout": "60s",
//	  "biometric": "true",
//	  "language": "de"
//	}
//
// Malformed input panics, as the loaders run once at process start.
package config
