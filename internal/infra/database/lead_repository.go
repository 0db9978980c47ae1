package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

const (
	pgInvalidTextRepresentation = "22P02"
	pgCheckViolation            = "23514"
)

const leadColumns = `id::text, user_id, name, email, phone, deal_value::float8, stage, notes, created_at, updated_at`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(s rowScanner) (*entity.Lead, error) {
	var (
		l                   entity.Lead
		stage               string
		email, phone, notes sql.NullString
	)
	err := s.Scan(&l.ID, &l.OwnerID, &l.Name, &email, &phone, &l.DealValue, &stage, &notes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Stage = entity.Stage(stage)
	l.Email = fromNull(email)
	l.Phone = fromNull(phone)
	l.Notes = fromNull(notes)
	return &l, nil
}

// FindByOwner returns the owner's leads newest-created first.
func (r *LeadRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE user_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	leads := []*entity.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) Create(ctx context.Context, draft entity.LeadDraft) (*entity.Lead, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO leads (user_id, name, email, phone, deal_value, stage, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + leadColumns

	l, err := scanLead(r.DB.QueryRowContext(ctx, query, insertArgs(draft)...))
	if err != nil {
		return nil, mapPgError(err)
	}
	return l, nil
}

// CreateMany inserts every draft in one transaction: all rows or none.
func (r *LeadRepository) CreateMany(ctx context.Context, drafts []entity.LeadDraft) (int, error) {
	if len(drafts) == 0 {
		return 0, nil
	}
	for i := range drafts {
		drafts[i].Normalize()
		if err := drafts[i].Validate(); err != nil {
			return 0, fmt.Errorf("draft %d: %w", i, err)
		}
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO leads (user_id, name, email, phone, deal_value, stage, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range drafts {
		if _, err := stmt.ExecContext(ctx, insertArgs(d)...); err != nil {
			return 0, mapPgError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(drafts), nil
}

// Update writes only the fields set on the patch and refreshes updated_at.
func (r *LeadRepository) Update(ctx context.Context, ownerID, id string, patch entity.LeadPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	query, args := buildLeadUpdate(ownerID, id, patch)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return mapPgError(err)
	}
	return requireOneRow(res)
}

// buildLeadUpdate numbers placeholders in column order; id and owner always
// take the last two.
func buildLeadUpdate(ownerID, id string, patch entity.LeadPatch) (string, []any) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Name != nil {
		add("name", strings.TrimSpace(*patch.Name))
	}
	switch {
	case patch.ClearEmail:
		add("email", nil)
	case patch.Email != nil:
		add("email", entity.OptionalString(*patch.Email))
	}
	switch {
	case patch.ClearPhone:
		add("phone", nil)
	case patch.Phone != nil:
		add("phone", entity.OptionalString(*patch.Phone))
	}
	switch {
	case patch.ClearNotes:
		add("notes", nil)
	case patch.Notes != nil:
		add("notes", entity.OptionalString(*patch.Notes))
	}
	if patch.DealValue != nil {
		add("deal_value", *patch.DealValue)
	}
	if patch.Stage != nil {
		add("stage", string(*patch.Stage))
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`UPDATE leads SET %s WHERE id = $%d AND user_id = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))
	return query, args
}

func (r *LeadRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return mapPgError(err)
	}
	return requireOneRow(res)
}

// ListOwners returns every user id that owns at least one lead.
func (r *LeadRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT user_id FROM leads ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

func insertArgs(d entity.LeadDraft) []any {
	return []any{d.OwnerID, d.Name, toNull(d.Email), toNull(d.Phone), d.DealValue, string(d.Stage), toNull(d.Notes)}
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

// mapPgError turns the Postgres errors callers can act on into entity errors.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgInvalidTextRepresentation:
			// A malformed uuid can never match a row.
			return entity.ErrLeadNotFound
		case pgCheckViolation:
			return fmt.Errorf("%w: %s", entity.ErrInvalidLead, pgErr.ConstraintName)
		}
	}
	return err
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
