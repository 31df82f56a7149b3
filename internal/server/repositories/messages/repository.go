package messages

import (
	"context"

	"github.com/bridgeclub/clubhouse/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	// ListBefore returns up to limit messages of a group with seq < beforeSeq,
	// newest first. beforeSeq <= 0 starts from the latest message.
	ListBefore(ctx context.Context, groupID string, beforeSeq int64, limit int) ([]models.Message, error)
}
