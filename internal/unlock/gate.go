package unlock

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/dmitrijs2005/gophlock/internal/logging"
)

// Store is the external config collaborator.
//
// PasswordHash returns the stored secret digest, hex encoded.
type Store interface {
	UseBiometric(ctx context.Context) (bool, error)
	PasswordHash(ctx context.Context) (string, error)
}

// Gate reads the two settings the lock depends on.
type Gate struct {
	store  Store
	logger logging.Logger
}

func NewGate(store Store, logger logging.Logger) *Gate {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Gate{store: store, logger: logger.With("module", "config_gate")}
}

// ShouldUseBiometric returns *hint when the caller already knows the answer,
// otherwise it asks the store. Failures count as false and are only logged.
func (g *Gate) ShouldUseBiometric(ctx context.Context, hint *bool) bool {
	if hint != nil {
		return *hint
	}
	if g.store == nil {
		return false
	}

	use, err := g.store.UseBiometric(ctx)
	if err != nil {
		g.logger.Warn(ctx, "biometric flag unavailable, treating as disabled", "error", err)
		return false
	}
	return use
}

// SecretHash returns the stored secret digest. Every failure is a *ConfigError.
func (g *Gate) SecretHash(ctx context.Context) ([]byte, error) {
	const op = "read secret hash"

	if g.store == nil {
		return nil, &ConfigError{Op: op, Err: ErrNoStore}
	}

	raw, err := g.store.PasswordHash(ctx)
	if err != nil {
		return nil, &ConfigError{Op: op, Err: err}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ConfigError{Op: op, Err: ErrNoSecret}
	}

	hash, err := hex.DecodeString(raw)
	if err != nil {
		return nil, &ConfigError{Op: "decode secret hash", Err: err}
	}
	return hash, nil
}
