package services

import (
	"context"
	"time"

	"github.com/bridgeclub/clubhouse/internal/server/models"
)

// DashboardEvents is how many upcoming events the dashboard shows.
const DashboardEvents = 5

// Dashboard is the landing page payload of a signed-in user.
type Dashboard struct {
	User            *models.User   `json:"user"`
	NeedsOnboarding bool           `json:"needsOnboarding"`
	Groups          []models.Group `json:"groups"`
	UpcomingEvents  []models.Event `json:"upcomingEvents"`
}

type DashboardService struct {
	users  *UserService
	groups *GroupService
	events *EventService
	now    func() time.Time
}

func NewDashboardService(users *UserService, groups *GroupService, events *EventService) *DashboardService {
	return &DashboardService{users: users, groups: groups, events: events, now: time.Now}
}

func (s *DashboardService) Load(ctx context.Context, userID string) (*Dashboard, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.Upcoming(ctx, userID, s.now(), DashboardEvents)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		User:            u,
		NeedsOnboarding: !u.Onboarded(),
		Groups:          groups,
		UpcomingEvents:  events,
	}, nil
}
