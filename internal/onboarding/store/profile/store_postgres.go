package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"civicportal/internal/onboarding/models"
	"civicportal/pkg/platform/sentinel"
)

// PostgresStore persists partner profiles in PostgreSQL. Progress arithmetic
// happens in SQL so concurrent writers cannot skip steps.
//
// Schema:
//
//	CREATE TABLE partner_profiles (
//	    email         TEXT PRIMARY KEY,
//	    business_name TEXT NOT NULL DEFAULT '',
//	    display_name  TEXT NOT NULL DEFAULT '',
//	    progress      INT  NOT NULL DEFAULT 1 CHECK (progress BETWEEN 1 AND 7),
//	    is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
//	    license_ref   TEXT NOT NULL DEFAULT '',
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `email, business_name, display_name, progress, is_verified, license_ref, created_at`

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.PartnerProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM partner_profiles
		WHERE email = $1
	`, normalize(email))
	return scanProfile(row, "find profile")
}

func (s *PostgresStore) Create(ctx context.Context, profile *models.PartnerProfile) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO partner_profiles (email, business_name, display_name, progress)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
	`, normalize(profile.Email), profile.BusinessName, profile.DisplayName, profile.Progress)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// AdvanceProgress is a single conditional UPDATE: it only fires below step 6
// and returns the row it produced, so the caller always sees the server's
// count rather than its own arithmetic.
func (s *PostgresStore) AdvanceProgress(ctx context.Context, email string) (*models.PartnerProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE partner_profiles
		SET progress = progress + 1
		WHERE email = $1 AND progress < $2
		RETURNING `+profileColumns+`
	`, normalize(email), models.TotalSteps-1)

	profile, err := scanProfile(row, "advance progress")
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.classifyMiss(ctx, email)
		}
		return nil, err
	}
	return profile, nil
}

func (s *PostgresStore) MarkVerified(ctx context.Context, email, licenseRef string) (*models.PartnerProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE partner_profiles
		SET progress = $2, is_verified = TRUE, license_ref = $3
		WHERE email = $1 AND is_verified = FALSE
		RETURNING `+profileColumns+`
	`, normalize(email), models.TotalSteps, licenseRef)

	profile, err := scanProfile(row, "mark verified")
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.classifyMiss(ctx, email)
		}
		return nil, err
	}
	return profile, nil
}

func (s *PostgresStore) ListVerified(ctx context.Context) ([]models.PartnerProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM partner_profiles
		WHERE is_verified
		ORDER BY business_name, email
	`)
	if err != nil {
		return nil, fmt.Errorf("list verified profiles: %w", err)
	}
	defer rows.Close()

	var out []models.PartnerProfile
	for rows.Next() {
		var p models.PartnerProfile
		if err := rows.Scan(&p.Email, &p.BusinessName, &p.DisplayName, &p.Progress, &p.Verified, &p.LicenseRef, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("list verified profiles: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list verified profiles: %w", err)
	}
	return out, nil
}

// classifyMiss separates "no such profile" from "profile exists but the
// conditional update refused to fire".
func (s *PostgresStore) classifyMiss(ctx context.Context, email string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM partner_profiles WHERE email = $1)
	`, normalize(email)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("classify update miss: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner, op string) (*models.PartnerProfile, error) {
	var p models.PartnerProfile
	err := row.Scan(&p.Email, &p.BusinessName, &p.DisplayName, &p.Progress, &p.Verified, &p.LicenseRef, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}
