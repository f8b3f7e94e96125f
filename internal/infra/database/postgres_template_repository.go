package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anniversary_notifier/internal/infra/email"
)

var ErrTemplateNotFound = errors.New("email template not found")

type PostgresTemplateRepository struct {
	db *sql.DB
}

func NewPostgresTemplateRepository(db *sql.DB) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{db: db}
}

func (r *PostgresTemplateRepository) GetTemplate(ctx context.Context, ref string) (*email.Template, error) {
	tpl := &email.Template{}
	err := r.db.QueryRowContext(ctx, `SELECT ref, subject, body FROM email_templates WHERE ref = $1`, ref).
		Scan(&tpl.Ref, &tpl.Subject, &tpl.Body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, ref)
		}
		return nil, fmt.Errorf("error getting email template: %w", err)
	}
	return tpl, nil
}
