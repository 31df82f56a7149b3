package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/dbx"
	"github.com/bridgeclub/clubhouse/internal/logging"
	"github.com/bridgeclub/clubhouse/internal/server/access"
	"github.com/bridgeclub/clubhouse/internal/server/models"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/repomanager"
)

const (
	maxGroupNameLength = 80
	inviteCodeAttempts = 5
)

// GroupDetails is a group together with its member list.
type GroupDetails struct {
	models.Group
	Members []models.Member `json:"members"`
}

type GroupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewGroupService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *GroupService {
	return &GroupService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "groups"),
	}
}

// Create makes a group with userID as its admin and first member. The
// invite code is regenerated when it collides with an existing one.
func (s *GroupService) Create(ctx context.Context, userID, name, imageURL string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxGroupNameLength {
		return nil, fmt.Errorf("%w: group name must be 1..%d characters", common.ErrorValidation, maxGroupNameLength)
	}

	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := common.MakeInviteCode()
		if err != nil {
			return nil, fmt.Errorf("error generating invite code: %w", err)
		}

		var group *models.Group
		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Groups(tx)
			g, err := repo.Create(ctx, &models.Group{
				Name:       name,
				AdminID:    userID,
				ImageURL:   strings.TrimSpace(imageURL),
				InviteCode: code,
			})
			if err != nil {
				return err
			}
			if err := repo.AddMember(ctx, g.ID, userID, models.RoleAdmin); err != nil {
				return err
			}
			group = g
			return nil
		})
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Debug(ctx, "invite code collision", "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error creating group: %w", err)
		}

		s.logger.Info(ctx, "group created", "group_id", group.ID, "admin_id", userID)
		return group, nil
	}

	return nil, fmt.Errorf("%w: no free invite code after %d attempts", common.ErrorInternal, inviteCodeAttempts)
}

// JoinByCode adds userID to the group owning code. Joining a group the user
// already belongs to is not an error.
func (s *GroupService) JoinByCode(ctx context.Context, userID, code string) (*models.Group, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !common.IsInviteCode(code) {
		return nil, common.ErrInvalidInviteCode
	}

	repo := s.repomanager.Groups(s.db)
	g, err := repo.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}

	err = repo.AddMember(ctx, g.ID, userID, models.RoleMember)
	if err != nil && !errors.Is(err, common.ErrorAlreadyExists) {
		return nil, fmt.Errorf("error joining group: %w", err)
	}
	if err == nil {
		s.logger.Info(ctx, "member joined", "group_id", g.ID, "user_id", userID)
	}
	return g, nil
}

// Leave removes userID from the group. The last member leaving deletes the
// group; the last admin cannot leave while other members remain.
func (s *GroupService) Leave(ctx context.Context, groupID, userID string) error {
	if !validID(groupID) {
		return common.ErrorNotFound
	}

	deleted := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Groups(tx)

		role, err := repo.MemberRole(ctx, groupID, userID)
		if err != nil {
			return err
		}
		members, admins, err := repo.CountMembers(ctx, groupID)
		if err != nil {
			return err
		}

		if members <= 1 {
			deleted = true
			return repo.Delete(ctx, groupID)
		}
		if role == models.RoleAdmin && admins <= 1 {
			return common.ErrLastAdmin
		}
		if err := repo.RemoveMember(ctx, groupID, userID); err != nil {
			return err
		}

		g, err := repo.GetByID(ctx, groupID)
		if err != nil {
			return err
		}
		if g.AdminID != userID {
			return nil
		}
		// The primary admin left; hand the title to the longest-standing admin.
		rest, err := repo.Members(ctx, groupID)
		if err != nil {
			return err
		}
		for _, m := range rest {
			if m.Role == models.RoleAdmin {
				return repo.UpdateAdminID(ctx, groupID, m.UserID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if deleted {
		s.logger.Info(ctx, "group deleted", "group_id", groupID, "last_member", userID)
	} else {
		s.logger.Info(ctx, "member left", "group_id", groupID, "user_id", userID)
	}
	return nil
}

// PromoteAdmin gives targetID the admin role. Only admins may promote.
func (s *GroupService) PromoteAdmin(ctx context.Context, groupID, actorID, targetID string) error {
	if !validID(groupID) || !validID(targetID) {
		return common.ErrorNotFound
	}

	repo := s.repomanager.Groups(s.db)
	role, err := repo.MemberRole(ctx, groupID, actorID)
	if errors.Is(err, common.ErrorNotFound) || (err == nil && role != models.RoleAdmin) {
		return common.ErrorForbidden
	}
	if err != nil {
		return err
	}

	if _, err := repo.MemberRole(ctx, groupID, targetID); err != nil {
		return err
	}
	if err := repo.SetRole(ctx, groupID, targetID, models.RoleAdmin); err != nil {
		return err
	}

	s.logger.Info(ctx, "admin promoted", "group_id", groupID, "user_id", targetID, "by", actorID)
	return nil
}

func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	return s.repomanager.Groups(s.db).ListForUser(ctx, userID)
}

// Get returns a group and its members. Non-members get common.ErrorForbidden.
func (s *GroupService) Get(ctx context.Context, groupID, userID string) (*GroupDetails, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Groups(s.db)
	g, err := repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := repo.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &GroupDetails{Group: *g, Members: members}, nil
}

func (s *GroupService) Members(ctx context.Context, groupID, userID string) ([]models.Member, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Groups(s.db).Members(ctx, groupID)
}

// MembershipIDs lists the ids of the groups userID belongs to.
func (s *GroupService) MembershipIDs(ctx context.Context, userID string) ([]string, error) {
	return s.repomanager.Groups(s.db).MemberGroupIDs(ctx, userID)
}

// CheckGroupAccess reports whether userID may reach resources scoped to
// groupID. Unscoped resources (empty groupID) are open to every user.
func (s *GroupService) CheckGroupAccess(ctx context.Context, groupID, userID string) (bool, error) {
	if groupID == "" {
		return true, nil
	}
	ids, err := s.MembershipIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	return access.CanAccess(groupID, ids), nil
}

func (s *GroupService) requireMember(ctx context.Context, groupID, userID string) error {
	if !validID(groupID) {
		return common.ErrorNotFound
	}
	ok, err := s.CheckGroupAccess(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorForbidden
	}
	return nil
}
