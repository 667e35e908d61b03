package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"civicportal/internal/moderation/models"
	"civicportal/pkg/platform/sentinel"
)

// PostgresStore persists featured-listing applications in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE applications (
//	    id            TEXT PRIMARY KEY,
//	    name          TEXT NOT NULL,
//	    email         TEXT NOT NULL UNIQUE,
//	    phone         TEXT NOT NULL DEFAULT '',
//	    business_name TEXT NOT NULL,
//	    category      TEXT NOT NULL,
//	    address       TEXT NOT NULL DEFAULT '',
//	    website       TEXT NOT NULL DEFAULT '',
//	    description   TEXT NOT NULL DEFAULT '',
//	    variant       TEXT NOT NULL,
//	    opening_hours TEXT NOT NULL DEFAULT '',
//	    product_types TEXT NOT NULL DEFAULT '',
//	    document_ref  TEXT NOT NULL DEFAULT '',
//	    status        TEXT NOT NULL DEFAULT 'pending',
//	    submitted_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const applicationColumns = `id, name, email, phone, business_name, category, address,
	website, description, variant, opening_hours, product_types, document_ref, status, submitted_at`

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (id, name, email, phone, business_name, category, address,
			website, description, variant, opening_hours, product_types, document_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT DO NOTHING
	`, app.ID, app.Name, strings.ToLower(strings.TrimSpace(app.Email)), app.Phone,
		app.BusinessName, app.Category, app.Address, app.Website, app.Description,
		app.Variant, app.OpeningHours, app.ProductTypes, app.DocumentRef, app.Status)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, statuses ...models.Status) ([]models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications`
	var args []any
	if len(statuses) > 0 {
		filter := make([]string, 0, len(statuses))
		for _, status := range statuses {
			filter = append(filter, string(status))
		}
		query += ` WHERE status = ANY($1)`
		args = append(args, pq.Array(filter))
	}
	query += ` ORDER BY submitted_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		out = append(out, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindByKey(ctx context.Context, key string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE id = $1 OR email = lower($1)
		LIMIT 1
	`, strings.TrimSpace(key))

	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, id string, status models.Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET status = $2
		WHERE id = $1 AND status = 'pending'
	`, id, status)
	if err != nil {
		return fmt.Errorf("set application status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set application status: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("set application status: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var app models.Application
	err := row.Scan(
		&app.ID, &app.Name, &app.Email, &app.Phone, &app.BusinessName, &app.Category,
		&app.Address, &app.Website, &app.Description, &app.Variant, &app.OpeningHours,
		&app.ProductTypes, &app.DocumentRef, &app.Status, &app.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}
