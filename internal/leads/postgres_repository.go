package leads

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q pgxQuerier) *PostgresRepository {
	if q == nil {
		panic("leads: querier required")
	}
	return &PostgresRepository{pool: q}
}

const leadColumns = `id, name, email, COALESCE(project, ''), COALESCE(message, ''), source,
	COALESCE(medium, ''), COALESCE(campaign, ''), COALESCE(referrer, ''), COALESCE(landing_page, ''),
	COALESCE(user_agent, ''), COALESCE(ip, ''), status, COALESCE(notify_status, ''), notified_at,
	created_at, updated_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead := newLead(uuid.New().String(), req, time.Time{})
	query := `
		INSERT INTO leads (id, name, email, project, message, source, medium, campaign,
			referrer, landing_page, user_agent, ip, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		nullable(lead.Project),
		nullable(lead.Message),
		lead.Source,
		nullable(lead.Medium),
		nullable(lead.Campaign),
		nullable(lead.Referrer),
		nullable(lead.LandingPage),
		nullable(lead.UserAgent),
		nullable(lead.IP),
		string(lead.Status),
	).Scan(&lead.CreatedAt, &lead.UpdatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return lead, nil
}

// Update applies a partial update and returns the stored row.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch LeadPatch) (*Lead, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	sets := []string{}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.NotifyStatus != nil {
		add("notify_status", *patch.NotifyStatus)
	}
	if patch.NotifiedAt != nil {
		add("notified_at", *patch.NotifiedAt)
	}
	sets = append(sets, "updated_at = now()")

	query := "UPDATE leads SET " + strings.Join(sets, ", ") + " WHERE id = $1 RETURNING " + leadColumns
	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}
	return lead, nil
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	query := "SELECT " + leadColumns + " FROM leads WHERE id = $1"
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// List returns leads newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	filter = filter.normalized()

	query := "SELECT " + leadColumns + " FROM leads"
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += " WHERE status = $1"
	}
	args = append(args, filter.Limit, filter.Offset)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*Lead, error) {
	var lead Lead
	var status string
	var notifiedAt *time.Time
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Project,
		&lead.Message,
		&lead.Source,
		&lead.Medium,
		&lead.Campaign,
		&lead.Referrer,
		&lead.LandingPage,
		&lead.UserAgent,
		&lead.IP,
		&status,
		&lead.NotifyStatus,
		&notifiedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	lead.Status = Status(status)
	lead.NotifiedAt = notifiedAt
	return &lead, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
