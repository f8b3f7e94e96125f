package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"anniversary_notifier/internal/domain/anniversary"
	"anniversary_notifier/internal/domain/contact"

	"github.com/lib/pq"
)

type PostgresContactRepository struct {
	db *sql.DB
}

func NewPostgresContactRepository(db *sql.DB) *PostgresContactRepository {
	return &PostgresContactRepository{db: db}
}

const contactColumns = `id, display_name, birthdate, email, phone`

// FindByDayOfYear runs one query with a BETWEEN predicate per range.
func (r *PostgresContactRepository) FindByDayOfYear(ctx context.Context, ranges []anniversary.DayRange) ([]*contact.Contact, error) {
	if len(ranges) == 0 {
		return []*contact.Contact{}, nil
	}
	query, args := dayOfYearQuery(ranges)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying contacts by day of year: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

func dayOfYearQuery(ranges []anniversary.DayRange) (string, []any) {
	clauses := make([]string, 0, len(ranges))
	args := make([]any, 0, len(ranges)*2)
	for i, rg := range ranges {
		clauses = append(clauses, fmt.Sprintf("EXTRACT(DOY FROM birthdate) BETWEEN $%d AND $%d", i*2+1, i*2+2))
		args = append(args, rg.Start, rg.End)
	}
	query := `SELECT ` + contactColumns + `
               FROM contacts
               WHERE birthdate IS NOT NULL AND (` + strings.Join(clauses, " OR ") + `)
               ORDER BY id`
	return query, args
}

func (r *PostgresContactRepository) GetByIDs(ctx context.Context, ids []int64) ([]*contact.Contact, error) {
	if len(ids) == 0 {
		return []*contact.Contact{}, nil
	}
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error getting contacts by IDs: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

func scanContacts(rows *sql.Rows) ([]*contact.Contact, error) {
	contacts := make([]*contact.Contact, 0)
	for rows.Next() {
		c := &contact.Contact{}
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.Birthdate, &c.Email, &c.Phone); err != nil {
			return nil, fmt.Errorf("error scanning contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact rows: %w", err)
	}
	return contacts, nil
}
