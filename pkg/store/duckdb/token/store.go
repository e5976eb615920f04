package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/de-tools/governance-atlas/pkg/store/duckdb"
)

// Store persists one sealed token per credentials profile.
type Store interface {
	Save(ctx context.Context, record store.TokenRecord) error
	Load(ctx context.Context, profile string) (*store.TokenRecord, error)
	Delete(ctx context.Context, profile string) error
}

type tokenStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &tokenStore{
		db: db,
	}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *tokenStore) conn(ctx context.Context) execer {
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		return tx
	}
	return s.db
}

// Save replaces the token of record.Profile.
func (s *tokenStore) Save(ctx context.Context, record store.TokenRecord) error {
	if record.Profile == "" {
		return fmt.Errorf("token profile is required")
	}
	query := `
		INSERT INTO auth_tokens (profile, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?)`

	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		if _, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM auth_tokens WHERE profile = ?`, record.Profile); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		_, err := s.conn(ctx).ExecContext(ctx, query,
			record.Profile,
			record.Payload,
			record.CreatedAt,
			record.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		return nil
	})
}

func (s *tokenStore) Load(ctx context.Context, profile string) (*store.TokenRecord, error) {
	query := `
		SELECT profile, payload, created_at, updated_at
		FROM auth_tokens
		WHERE profile = ?`

	var record store.TokenRecord
	err := s.conn(ctx).QueryRowContext(ctx, query, profile).Scan(
		&record.Profile,
		&record.Payload,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	return &record, nil
}

func (s *tokenStore) Delete(ctx context.Context, profile string) error {
	_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM auth_tokens WHERE profile = ?`, profile)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
