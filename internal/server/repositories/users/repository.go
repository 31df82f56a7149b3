package users

import (
	"context"

	"github.com/bridgeclub/clubhouse/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateNames(ctx context.Context, id, name, nickname string) error
	SaveProfile(ctx context.Context, id string, profile *models.Profile) error
}
