// Package httpserver exposes the club services over HTTP. Every request
// passes through the access guard before reaching a handler.
package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bridgeclub/clubhouse/internal/logging"
	"github.com/bridgeclub/clubhouse/internal/server/access"
	"github.com/bridgeclub/clubhouse/internal/server/auth"
	"github.com/bridgeclub/clubhouse/internal/server/models"
	"github.com/bridgeclub/clubhouse/internal/server/objectstore"
	"github.com/bridgeclub/clubhouse/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type Users interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, name, nickname string) (*models.User, error)
	CompleteOnboarding(ctx context.Context, id string, p models.Profile) (*models.User, error)
}

type Groups interface {
	Create(ctx context.Context, userID, name, imageURL string) (*models.Group, error)
	JoinByCode(ctx context.Context, userID, code string) (*models.Group, error)
	Leave(ctx context.Context, groupID, userID string) error
	PromoteAdmin(ctx context.Context, groupID, actorID, targetID string) error
	ListForUser(ctx context.Context, userID string) ([]models.Group, error)
	Get(ctx context.Context, groupID, userID string) (*services.GroupDetails, error)
}

type Files interface {
	Authorize(ctx context.Context, userID, groupID string) error
	Upload(ctx context.Context, userID, groupID, name string, size int64, body io.ReadSeeker) (string, error)
	ResolveDownload(ctx context.Context, userID, key string) (string, error)
	List(ctx context.Context, userID, groupID, cursor string) (objectstore.Page, error)
}

type Events interface {
	Create(ctx context.Context, userID string, in services.EventInput) (*models.Event, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]models.Event, error)
	Delete(ctx context.Context, userID, eventID string) error
}

type Messages interface {
	Post(ctx context.Context, groupID, userID, body string) (*models.Message, error)
	List(ctx context.Context, groupID, userID, before string, limit int) (*services.MessagePage, error)
}

type Dashboard interface {
	Load(ctx context.Context, userID string) (*services.Dashboard, error)
}

// Pinger reports database reachability for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators of the HTTP layer. Routes defaults to
// access.DefaultRoutes.
type Deps struct {
	Sessions  *auth.Codec
	Users     Users
	Groups    Groups
	Files     Files
	Events    Events
	Messages  Messages
	Dashboard Dashboard
	DB        Pinger
	Routes    []access.Route
}

type Server struct {
	address string
	deps    Deps
	logger  logging.Logger
}

func New(address string, logger logging.Logger, deps Deps) *Server {
	if deps.Routes == nil {
		deps.Routes = access.DefaultRoutes
	}
	return &Server{
		address: address,
		deps:    deps,
		logger:  logger.With("module", "http_server"),
	}
}

// Handler returns the full middleware chain: request logging, then the
// access guard, then the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	mux.HandleFunc("GET /api/me", s.handleMe)
	mux.HandleFunc("PATCH /api/me", s.handleUpdateMe)
	mux.HandleFunc("PUT /api/me/onboarding", s.handleOnboarding)

	mux.HandleFunc("GET /api/groups", s.handleListGroups)
	mux.HandleFunc("POST /api/groups", s.handleCreateGroup)
	mux.HandleFunc("POST /api/groups/join", s.handleJoinGroup)
	mux.HandleFunc("GET /api/groups/{id}", s.handleGetGroup)
	mux.HandleFunc("POST /api/groups/{id}/leave", s.handleLeaveGroup)
	mux.HandleFunc("POST /api/groups/{id}/admins", s.handlePromoteAdmin)
	mux.HandleFunc("GET /api/groups/{id}/messages", s.handleListMessages)
	mux.HandleFunc("POST /api/groups/{id}/messages", s.handlePostMessage)

	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	mux.HandleFunc("GET /api/files", s.handleListFiles)
	mux.HandleFunc("POST /api/files/upload", s.handleUpload)
	mux.HandleFunc("GET /api/files/shared/{path...}", s.handleDownload)

	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /onboarding", s.handleOnboardingPage)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("GET /register", s.handleRegisterPage)

	guard := access.NewGuard(s.deps.Routes, s.deps.Sessions)
	return s.logRequests(guard.Middleware(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
