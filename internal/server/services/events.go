package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/logging"
	"github.com/bridgeclub/clubhouse/internal/server/models"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/repomanager"
)

const (
	maxEventTitleLength = 120
	maxEventRange       = 366 * 24 * time.Hour
)

// EventInput is what a user submits when scheduling an event.
type EventInput struct {
	GroupID     string    `json:"groupId"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
}

// EventService manages the club calendar. Events without a group are
// visible to everyone; group events only to the group's members.
type EventService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	groups      GroupAccess
	logger      logging.Logger
}

func NewEventService(db *sql.DB, m repomanager.RepositoryManager, groups GroupAccess, logger logging.Logger) *EventService {
	return &EventService{
		db:          db,
		repomanager: m,
		groups:      groups,
		logger:      logger.With("module", "events"),
	}
}

func (s *EventService) Create(ctx context.Context, userID string, in EventInput) (*models.Event, error) {
	kind, err := models.ParseEventKind(in.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > maxEventTitleLength {
		return nil, fmt.Errorf("%w: title must be 1..%d characters", common.ErrorValidation, maxEventTitleLength)
	}
	if in.StartsAt.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", common.ErrorValidation)
	}
	if in.EndsAt.IsZero() {
		in.EndsAt = in.StartsAt
	}
	if in.EndsAt.Before(in.StartsAt) {
		return nil, fmt.Errorf("%w: event ends before it starts", common.ErrorValidation)
	}

	ok, err := s.groups.CheckGroupAccess(ctx, in.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorForbidden
	}

	e, err := s.repomanager.Events(s.db).Create(ctx, &models.Event{
		GroupID:     in.GroupID,
		CreatedBy:   userID,
		Kind:        kind,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		StartsAt:    in.StartsAt.UTC(),
		EndsAt:      in.EndsAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating event: %w", err)
	}

	s.logger.Info(ctx, "event created", "event_id", e.ID, "group_id", e.GroupID, "kind", string(kind))
	return e, nil
}

// ListRange returns the events visible to userID that overlap [from, to).
func (s *EventService) ListRange(ctx context.Context, userID string, from, to time.Time) ([]models.Event, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: range end must be after its start", common.ErrorValidation)
	}
	if to.Sub(from) > maxEventRange {
		return nil, fmt.Errorf("%w: range longer than %s", common.ErrorValidation, maxEventRange)
	}
	return s.repomanager.Events(s.db).ListVisible(ctx, userID, from.UTC(), to.UTC())
}

// Upcoming returns the next limit events visible to userID.
func (s *EventService) Upcoming(ctx context.Context, userID string, from time.Time, limit int) ([]models.Event, error) {
	return s.repomanager.Events(s.db).Upcoming(ctx, userID, from.UTC(), limit)
}

// Delete removes an event. Its creator may always delete it; for group
// events the group's admins may too.
func (s *EventService) Delete(ctx context.Context, userID, eventID string) error {
	if !validID(eventID) {
		return common.ErrorNotFound
	}

	repo := s.repomanager.Events(s.db)
	e, err := repo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	if e.CreatedBy != userID {
		if e.GroupID == "" {
			return common.ErrorForbidden
		}
		role, err := s.repomanager.Groups(s.db).MemberRole(ctx, e.GroupID, userID)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorForbidden
		}
		if err != nil {
			return err
		}
		if role != models.RoleAdmin {
			return common.ErrorForbidden
		}
	}

	if err := repo.Delete(ctx, eventID); err != nil {
		return err
	}

	s.logger.Info(ctx, "event deleted", "event_id", eventID, "by", userID)
	return nil
}
