package groups

import (
	"context"

	"github.com/bridgeclub/clubhouse/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, group *models.Group) (*models.Group, error)
	GetByID(ctx context.Context, id string) (*models.Group, error)
	GetByInviteCode(ctx context.Context, code string) (*models.Group, error)
	ListForUser(ctx context.Context, userID string) ([]models.Group, error)
	UpdateAdminID(ctx context.Context, groupID, userID string) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, groupID, userID string, role models.Role) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	SetRole(ctx context.Context, groupID, userID string, role models.Role) error
	Members(ctx context.Context, groupID string) ([]models.Member, error)
	MemberRole(ctx context.Context, groupID, userID string) (models.Role, error)
	MemberGroupIDs(ctx context.Context, userID string) ([]string, error)
	CountMembers(ctx context.Context, groupID string) (members int, admins int, err error)
}
