package configstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DefaultProfile is the lock_settings row used when none is configured.
const DefaultProfile = "default"

// PostgresStore reads the lock settings of one profile from lock_settings.
type PostgresStore struct {
	db      DBTX
	profile string
}

func NewPostgresStore(db DBTX, profile string) *PostgresStore {
	if profile == "" {
		profile = DefaultProfile
	}
	return &PostgresStore{db: db, profile: profile}
}

// UseBiometric reports the profile's flag. A missing profile means disabled.
func (s *PostgresStore) UseBiometric(ctx context.Context) (bool, error) {
	query :=
		`SELECT use_biometric FROM lock_settings
		 WHERE profile = $1
		 `

	var use bool
	err := s.db.QueryRowContext(ctx, query, s.profile).Scan(&use)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return use, nil
}

// PasswordHash returns the profile's hex digest, empty when the profile is
// missing.
func (s *PostgresStore) PasswordHash(ctx context.Context) (string, error) {
	query :=
		`SELECT password_hash FROM lock_settings
		 WHERE profile = $1
		 `

	var hash string
	err := s.db.QueryRowContext(ctx, query, s.profile).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return hash, nil
}

func (s *PostgresStore) SetUseBiometric(ctx context.Context, use bool) error {
	query :=
		`INSERT INTO lock_settings (profile, use_biometric) VALUES ($1, $2)
		 ON CONFLICT (profile) DO UPDATE SET use_biometric = EXCLUDED.use_biometric, updated_at = now()
		 `

	if _, err := s.db.ExecContext(ctx, query, s.profile, use); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetPasswordHash(ctx context.Context, hash string) error {
	query :=
		`INSERT INTO lock_settings (profile, password_hash) VALUES ($1, $2)
		 ON CONFLICT (profile) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = now()
		 `

	if _, err := s.db.ExecContext(ctx, query, s.profile, hash); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
