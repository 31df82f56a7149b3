package httpserver

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/logging"
	"github.com/bridgeclub/clubhouse/internal/server/auth"
	"github.com/bridgeclub/clubhouse/internal/server/models"
	"github.com/bridgeclub/clubhouse/internal/server/objectstore"
	"github.com/bridgeclub/clubhouse/internal/server/services"
	"github.com/stretchr/testify/require"
)

const (
	testUser  = "6f1c2a9e-4b7d-4c1e-9a55-0d9e3b2f7a10"
	memberOf  = "0b8e2c44-5d1f-4a6b-8c3e-2f7d9a1b4c60"
	foreignID = "9d3a7f21-8e4c-4b2a-b6d0-5c1e8f3a2b90"
)

type fakeUsers struct {
	users    map[string]*models.User
	password string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users: map[string]*models.User{
			testUser: {ID: testUser, Email: "ana@club.test", Name: "Ana"},
		},
		password: "correct horse",
	}
}

func (f *fakeUsers) Register(_ context.Context, email, password, name string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u := &models.User{ID: "7a2b9c10-3d4e-4f5a-8b6c-7d8e9f0a1b2c", Email: email, Name: name}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsers) Login(_ context.Context, email, password string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email && password == f.password {
			return u, nil
		}
	}
	return nil, common.ErrorUnauthorized
}

func (f *fakeUsers) Get(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, id, name, nickname string) (*models.User, error) {
	u, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Name, u.Nickname = name, nickname
	return u, nil
}

func (f *fakeUsers) CompleteOnboarding(ctx context.Context, id string, p models.Profile) (*models.User, error) {
	u, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Academy == "" {
		return nil, common.ErrorValidation
	}
	p.CompletedAt = time.Now()
	u.Profile = &p
	return u, nil
}

type fakeGroups struct {
	groups []models.Group
}

func (f *fakeGroups) Create(_ context.Context, userID, name, imageURL string) (*models.Group, error) {
	g := models.Group{ID: memberOf, Name: name, AdminID: userID, ImageURL: imageURL}
	f.groups = append(f.groups, g)
	return &g, nil
}

func (f *fakeGroups) JoinByCode(context.Context, string, string) (*models.Group, error) {
	return nil, common.ErrInvalidInviteCode
}

func (f *fakeGroups) Leave(context.Context, string, string) error { return common.ErrLastAdmin }

func (f *fakeGroups) PromoteAdmin(context.Context, string, string, string) error {
	return common.ErrorForbidden
}

func (f *fakeGroups) ListForUser(context.Context, string) ([]models.Group, error) {
	return f.groups, nil
}

func (f *fakeGroups) Get(_ context.Context, groupID, _ string) (*services.GroupDetails, error) {
	for _, g := range f.groups {
		if g.ID == groupID {
			return &services.GroupDetails{Group: g}, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeEvents struct {
	from, to time.Time
}

func (f *fakeEvents) Create(_ context.Context, userID string, in services.EventInput) (*models.Event, error) {
	return &models.Event{ID: "e1", CreatedBy: userID, Title: in.Title}, nil
}

func (f *fakeEvents) ListRange(_ context.Context, _ string, from, to time.Time) ([]models.Event, error) {
	f.from, f.to = from, to
	return []models.Event{}, nil
}

func (f *fakeEvents) Delete(context.Context, string, string) error { return common.ErrorForbidden }

type fakeMessages struct {
	before string
	limit  int
}

func (f *fakeMessages) Post(_ context.Context, groupID, userID, body string) (*models.Message, error) {
	if body == "" {
		return nil, common.ErrorValidation
	}
	return &models.Message{GroupID: groupID, UserID: userID, Body: body}, nil
}

func (f *fakeMessages) List(_ context.Context, _, _ string, before string, limit int) (*services.MessagePage, error) {
	f.before, f.limit = before, limit
	return &services.MessagePage{}, nil
}

type fakeDashboard struct{}

func (fakeDashboard) Load(_ context.Context, userID string) (*services.Dashboard, error) {
	return &services.Dashboard{User: &models.User{ID: userID}, NeedsOnboarding: true}, nil
}

// fakeAccess grants unscoped resources and the groups in member.
type fakeAccess struct {
	member map[string]bool
}

func (f fakeAccess) CheckGroupAccess(_ context.Context, groupID, _ string) (bool, error) {
	return groupID == "" || f.member[groupID], nil
}

type fakeStore struct {
	objects map[string][]byte
}

func (f *fakeStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStore) List(_ context.Context, prefix, _ string, _ int) (objectstore.Page, error) {
	var page objectstore.Page
	for k, v := range f.objects {
		if strings.HasPrefix(k, prefix) {
			page.Objects = append(page.Objects, objectstore.Object{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(page.Objects, func(i, j int) bool { return page.Objects[i].Key < page.Objects[j].Key })
	return page, nil
}

func (f *fakeStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://objects.test/" + key + "?X-Amz-Expires=" + ttl.String(), nil
}

type testEnv struct {
	handler  http.Handler
	sessions *auth.Codec
	users    *fakeUsers
	events   *fakeEvents
	messages *fakeMessages
	store    *fakeStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		sessions: auth.NewCodec("test-secret", time.Hour, false, logging.Nop{}),
		users:    newFakeUsers(),
		events:   &fakeEvents{},
		messages: &fakeMessages{},
		store:    &fakeStore{objects: map[string][]byte{}},
	}
	files := services.NewFileService(fakeAccess{member: map[string]bool{memberOf: true}}, env.store, logging.Nop{})
	srv := New(":0", logging.Nop{}, Deps{
		Sessions:  env.sessions,
		Users:     env.users,
		Groups:    &fakeGroups{},
		Files:     files,
		Events:    env.events,
		Messages:  env.messages,
		Dashboard: fakeDashboard{},
	})
	env.handler = srv.Handler()
	return env
}

// do sends a request, signed in as testUser when signedIn is set.
func (e *testEnv) do(t *testing.T, r *http.Request, signedIn bool) *httptest.ResponseRecorder {
	t.Helper()
	if signedIn {
		token, _, err := e.sessions.Issue(testUser)
		require.NoError(t, err)
		r.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}
