package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"civicportal/internal/session/models"
	"civicportal/pkg/platform/sentinel"
)

// PostgresStore persists partner accounts in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE partner_accounts (
//	    email         TEXT PRIMARY KEY,
//	    password_hash TEXT NOT NULL,
//	    display_name  TEXT NOT NULL DEFAULT '',
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acct models.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT email, password_hash, display_name, created_at
		FROM partner_accounts
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).Scan(
		&acct.Email, &acct.PasswordHash, &acct.DisplayName, &acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &acct, nil
}

func (s *PostgresStore) Create(ctx context.Context, acct *models.Account) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO partner_accounts (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
	`, strings.ToLower(strings.TrimSpace(acct.Email)), acct.PasswordHash, acct.DisplayName)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}
