package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskops/ticket-desk/internal/domain"
)

// ActivityFilter narrows a journal listing.
type ActivityFilter struct {
	TicketID    *domain.TicketID
	Kinds       []domain.ActivityKind
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ActivityRepository stores journal entries.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityEntry) error
	ListWithFilter(ctx context.Context, filter ActivityFilter) ([]domain.ActivityEntry, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, entry *domain.ActivityEntry) error {
	const query = `
        INSERT INTO ticket_activity (ticket_id, kind, view_id, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID.String(),
		entry.Kind,
		entry.ViewID,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityRepository) ListWithFilter(ctx context.Context, filter ActivityFilter) ([]domain.ActivityEntry, error) {
	query, args := buildActivityQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivity(rows)
}

func buildActivityQuery(filter ActivityFilter) (string, []any) {
	base := `SELECT id, ticket_id, kind, view_id, old_value, new_value, created_at
             FROM ticket_activity`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TicketID != nil {
		args = append(args, filter.TicketID.String())
		clauses = append(clauses, fmt.Sprintf("ticket_id=$%d", len(args)))
	}
	if len(filter.Kinds) > 0 {
		placeholders := make([]string, len(filter.Kinds))
		for i, kind := range filter.Kinds {
			args = append(args, kind)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("kind IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)
	return query, args
}

func scanActivity(rows pgx.Rows) ([]domain.ActivityEntry, error) {
	result := []domain.ActivityEntry{}
	for rows.Next() {
		var entry domain.ActivityEntry
		var ticketID string
		if err := rows.Scan(
			&entry.ID,
			&ticketID,
			&entry.Kind,
			&entry.ViewID,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.TicketID = domain.TicketID(ticketID)
		result = append(result, entry)
	}
	return result, rows.Err()
}
