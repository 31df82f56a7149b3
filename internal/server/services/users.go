package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/logging"
	"github.com/bridgeclub/clubhouse/internal/server/auth"
	"github.com/bridgeclub/clubhouse/internal/server/models"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/repomanager"
)

const (
	maxNameLength     = 80
	maxNicknameLength = 40
	minBirthYear      = 1900
)

// UserService handles accounts: registration, login, profile edits and the
// one-time onboarding form.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "users"),
		now:         time.Now,
	}
}

// Register creates an account. The email is normalised to lower case; a
// taken email yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email, err := normaliseEmail(email)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name must be 1..%d characters", common.ErrorValidation, maxNameLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{Email: email, PasswordHash: hash, Name: name})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// dummyHash is compared against when the email is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("not-a-real-password")
	return h
})

// Login checks credentials. Unknown emails and wrong passwords both yield
// common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normaliseEmail(email)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CheckPassword(dummyHash(), password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		s.logger.Warn(ctx, "login failed", "user_id", u.ID)
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// UpdateProfile changes the display name and nickname.
func (s *UserService) UpdateProfile(ctx context.Context, id, name, nickname string) (*models.User, error) {
	name = strings.TrimSpace(name)
	nickname = strings.TrimSpace(nickname)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name must be 1..%d characters", common.ErrorValidation, maxNameLength)
	}
	if utf8.RuneCountInString(nickname) > maxNicknameLength {
		return nil, fmt.Errorf("%w: nickname longer than %d characters", common.ErrorValidation, maxNicknameLength)
	}
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	if err := s.repomanager.Users(s.db).UpdateNames(ctx, id, name, nickname); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// CompleteOnboarding stores the player profile. It may be submitted again
// to edit the profile; the first completion time is kept.
func (s *UserService) CompleteOnboarding(ctx context.Context, id string, p models.Profile) (*models.User, error) {
	now := s.now()

	p.Academy = strings.TrimSpace(p.Academy)
	p.TrainingGroup = strings.TrimSpace(p.TrainingGroup)
	p.BBOUsername = strings.TrimSpace(p.BBOUsername)
	p.FederationID = strings.TrimSpace(p.FederationID)

	switch {
	case p.Academy == "":
		return nil, fmt.Errorf("%w: academy is required", common.ErrorValidation)
	case p.BirthYear < minBirthYear || p.BirthYear > now.Year():
		return nil, fmt.Errorf("%w: birth year must be between %d and %d", common.ErrorValidation, minBirthYear, now.Year())
	case p.StartedPlayingOn.IsZero():
		return nil, fmt.Errorf("%w: start date is required", common.ErrorValidation)
	case p.StartedPlayingOn.After(now):
		return nil, fmt.Errorf("%w: start date is in the future", common.ErrorValidation)
	}
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	p.CompletedAt = now
	if err := s.repomanager.Users(s.db).SaveProfile(ctx, id, &p); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "onboarding completed", "user_id", id)
	return s.Get(ctx, id)
}

func normaliseEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	return email, nil
}
