package configstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Metadata keys read by the lock.
const (
	KeyUseBiometric = "auth_use_biometric"
	KeyPassword     = "auth_password"
)

// SQLiteStore reads the lock settings from the metadata table.
type SQLiteStore struct {
	db DBTX
}

func NewSQLiteStore(db DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// UseBiometric reports the stored flag. A missing row means disabled.
func (s *SQLiteStore) UseBiometric(ctx context.Context) (bool, error) {
	v, err := s.get(ctx, KeyUseBiometric)
	if err != nil || v == nil {
		return false, err
	}

	use, err := strconv.ParseBool(string(v))
	if err != nil {
		return false, fmt.Errorf("%w: metadata[%s]=%q", ErrInvalidValue, KeyUseBiometric, v)
	}
	return use, nil
}

// PasswordHash returns the stored hex digest, empty when none is set.
func (s *SQLiteStore) PasswordHash(ctx context.Context) (string, error) {
	v, err := s.get(ctx, KeyPassword)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *SQLiteStore) SetUseBiometric(ctx context.Context, use bool) error {
	return s.set(ctx, KeyUseBiometric, []byte(strconv.FormatBool(use)))
}

func (s *SQLiteStore) SetPasswordHash(ctx context.Context, hash string) error {
	return s.set(ctx, KeyPassword, []byte(hash))
}

func (s *SQLiteStore) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}
