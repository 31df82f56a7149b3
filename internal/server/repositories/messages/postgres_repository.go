package messages

import (
	"context"
	"fmt"

	"github.com/bridgeclub/clubhouse/internal/dbx"
	"github.com/bridgeclub/clubhouse/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {

	query :=
		`INSERT INTO messages (group_id, user_id, body)
		 VALUES ($1, $2, $3)
		 RETURNING seq, id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, msg.GroupID, msg.UserID, msg.Body).
		Scan(&msg.Seq, &msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

func (r *PostgresRepository) ListBefore(ctx context.Context, groupID string, beforeSeq int64, limit int) ([]models.Message, error) {

	query :=
		`SELECT seq, id, group_id, user_id, body, created_at
		 FROM messages
		 WHERE group_id = $1 AND ($2::bigint <= 0 OR seq < $2::bigint)
		 ORDER BY seq DESC
		 LIMIT $3
		 `

	rows, err := r.db.QueryContext(ctx, query, groupID, beforeSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Message, 0, limit)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.Seq, &m.ID, &m.GroupID, &m.UserID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}
