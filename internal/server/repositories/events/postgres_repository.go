package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/dbx"
	"github.com/bridgeclub/clubhouse/internal/server/models"
)

const eventColumns = `e.id, e.group_id, e.created_by, e.kind, e.title, e.description, e.location,
		e.starts_at, e.ends_at, e.created_at`

const visibleTo = `(e.group_id IS NULL OR e.group_id IN (SELECT group_id FROM group_members WHERE user_id = $1))`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {

	query :=
		`INSERT INTO events (group_id, created_by, kind, title, description, location, starts_at, ends_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		nullable(event.GroupID), event.CreatedBy, string(event.Kind), event.Title,
		event.Description, event.Location, event.StartsAt, event.EndsAt,
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return event, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// ListVisible returns the events overlapping [from, to) that userID may see,
// ordered by start time.
func (r *PostgresRepository) ListVisible(ctx context.Context, userID string, from, to time.Time) ([]models.Event, error) {

	query :=
		`SELECT ` + eventColumns + `
		 FROM events e
		 WHERE ` + visibleTo + `
		   AND e.starts_at < $3 AND e.ends_at >= $2
		 ORDER BY e.starts_at, e.id
		 `

	return r.list(ctx, query, userID, from, to)
}

// Upcoming returns at most limit visible events starting at or after from.
func (r *PostgresRepository) Upcoming(ctx context.Context, userID string, from time.Time, limit int) ([]models.Event, error) {

	query :=
		`SELECT ` + eventColumns + `
		 FROM events e
		 WHERE ` + visibleTo + `
		   AND e.starts_at >= $2
		 ORDER BY e.starts_at, e.id
		 LIMIT $3
		 `

	return r.list(ctx, query, userID, from, limit)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*models.Event, error) {
	var (
		e       models.Event
		groupID sql.NullString
		kind    string
	)
	if err := s.Scan(&e.ID, &groupID, &e.CreatedBy, &kind, &e.Title, &e.Description, &e.Location,
		&e.StartsAt, &e.EndsAt, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.GroupID = groupID.String
	e.Kind = models.EventKind(kind)
	return &e, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
