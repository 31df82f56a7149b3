package events

import (
	"context"
	"time"

	"github.com/bridgeclub/clubhouse/internal/server/models"
)

// Repository stores calendar events. Visibility queries return events that
// have no group or whose group the user belongs to.
type Repository interface {
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ListVisible(ctx context.Context, userID string, from, to time.Time) ([]models.Event, error)
	Upcoming(ctx context.Context, userID string, from time.Time, limit int) ([]models.Event, error)
	Delete(ctx context.Context, id string) error
}
