package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/dbx"
	"github.com/bridgeclub/clubhouse/internal/server/models"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/events"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/groups"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/messages"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// memStore is an in-memory stand-in for the Postgres schema. It does not
// roll back on transaction failure; tests only rely on that where the
// failing call is the first write.
type memStore struct {
	users    map[string]*models.User
	groups   map[string]*models.Group
	members  map[string]map[string]*models.Member
	events   map[string]*models.Event
	messages []models.Message
	seq      int64
	tick     int

	// codeCollisions makes the next n group inserts fail as duplicates.
	codeCollisions int
	failMembership error
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]*models.User{},
		groups:  map[string]*models.Group{},
		members: map[string]map[string]*models.Member{},
		events:  map[string]*models.Event{},
	}
}

func (st *memStore) next() time.Time {
	st.tick++
	return epoch.Add(time.Duration(st.tick) * time.Second)
}

// addUser inserts a user directly and returns its id.
func (st *memStore) addUser(name string) string {
	id := uuid.NewString()
	st.users[id] = &models.User{ID: id, Email: name + "@club.test", Name: name, CreatedAt: st.next()}
	return id
}

// addGroup inserts a group with the given admin and plain members.
func (st *memStore) addGroup(name, adminID string, memberIDs ...string) string {
	id := uuid.NewString()
	code, _ := common.MakeInviteCode()
	st.groups[id] = &models.Group{ID: id, Name: name, AdminID: adminID, InviteCode: code, CreatedAt: st.next()}
	st.members[id] = map[string]*models.Member{}
	st.join(id, adminID, models.RoleAdmin)
	for _, m := range memberIDs {
		st.join(id, m, models.RoleMember)
	}
	return id
}

func (st *memStore) join(groupID, userID string, role models.Role) {
	u := st.users[userID]
	m := &models.Member{UserID: userID, Role: role, JoinedAt: st.next()}
	if u != nil {
		m.Name, m.Nickname = u.Name, u.Nickname
	}
	st.members[groupID][userID] = m
}

type fakeRepoManager struct{ st *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return &memUsers{m.st} }
func (m *fakeRepoManager) Groups(dbx.DBTX) groups.Repository            { return &memGroups{m.st} }
func (m *fakeRepoManager) Events(dbx.DBTX) events.Repository            { return &memEvents{m.st} }
func (m *fakeRepoManager) Messages(dbx.DBTX) messages.Repository        { return &memMessages{m.st} }

// --- users ---

type memUsers struct{ st *memStore }

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	for _, existing := range r.st.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = r.st.next()
	cp := *u
	r.st.users[u.ID] = &cp
	return u, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.st.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) UpdateNames(_ context.Context, id, name, nickname string) error {
	u, ok := r.st.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Name, u.Nickname = name, nickname
	return nil
}

func (r *memUsers) SaveProfile(_ context.Context, id string, p *models.Profile) error {
	u, ok := r.st.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	cp := *p
	if u.Profile != nil && !u.Profile.CompletedAt.IsZero() {
		cp.CompletedAt = u.Profile.CompletedAt
	}
	u.Profile = &cp
	return nil
}

// --- groups ---

type memGroups struct{ st *memStore }

func (r *memGroups) Create(_ context.Context, g *models.Group) (*models.Group, error) {
	if r.st.codeCollisions > 0 {
		r.st.codeCollisions--
		return nil, common.ErrorAlreadyExists
	}
	for _, existing := range r.st.groups {
		if existing.InviteCode == g.InviteCode {
			return nil, common.ErrorAlreadyExists
		}
	}
	g.ID = uuid.NewString()
	g.CreatedAt = r.st.next()
	cp := *g
	r.st.groups[g.ID] = &cp
	r.st.members[g.ID] = map[string]*models.Member{}
	return g, nil
}

func (r *memGroups) GetByID(_ context.Context, id string) (*models.Group, error) {
	g, ok := r.st.groups[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *memGroups) GetByInviteCode(_ context.Context, code string) (*models.Group, error) {
	for _, g := range r.st.groups {
		if g.InviteCode == code {
			cp := *g
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memGroups) ListForUser(_ context.Context, userID string) ([]models.Group, error) {
	out := make([]models.Group, 0)
	for id, ms := range r.st.members {
		if _, ok := ms[userID]; ok {
			out = append(out, *r.st.groups[id])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memGroups) UpdateAdminID(_ context.Context, groupID, userID string) error {
	g, ok := r.st.groups[groupID]
	if !ok {
		return common.ErrorNotFound
	}
	g.AdminID = userID
	return nil
}

func (r *memGroups) Delete(_ context.Context, id string) error {
	if _, ok := r.st.groups[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.st.groups, id)
	delete(r.st.members, id)
	return nil
}

func (r *memGroups) AddMember(_ context.Context, groupID, userID string, role models.Role) error {
	ms, ok := r.st.members[groupID]
	if !ok {
		return common.ErrorNotFound
	}
	if _, ok := ms[userID]; ok {
		return common.ErrorAlreadyExists
	}
	r.st.join(groupID, userID, role)
	return nil
}

func (r *memGroups) RemoveMember(_ context.Context, groupID, userID string) error {
	if _, ok := r.st.members[groupID][userID]; !ok {
		return common.ErrorNotFound
	}
	delete(r.st.members[groupID], userID)
	return nil
}

func (r *memGroups) SetRole(_ context.Context, groupID, userID string, role models.Role) error {
	m, ok := r.st.members[groupID][userID]
	if !ok {
		return common.ErrorNotFound
	}
	m.Role = role
	return nil
}

func (r *memGroups) Members(_ context.Context, groupID string) ([]models.Member, error) {
	out := make([]models.Member, 0)
	for _, m := range r.st.members[groupID] {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r *memGroups) MemberRole(_ context.Context, groupID, userID string) (models.Role, error) {
	m, ok := r.st.members[groupID][userID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return m.Role, nil
}

func (r *memGroups) MemberGroupIDs(_ context.Context, userID string) ([]string, error) {
	if r.st.failMembership != nil {
		return nil, r.st.failMembership
	}
	ids := make([]string, 0)
	for id, ms := range r.st.members {
		if _, ok := ms[userID]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memGroups) CountMembers(_ context.Context, groupID string) (int, int, error) {
	members, admins := 0, 0
	for _, m := range r.st.members[groupID] {
		members++
		if m.Role == models.RoleAdmin {
			admins++
		}
	}
	return members, admins, nil
}

// --- events ---

type memEvents struct{ st *memStore }

func (r *memEvents) Create(_ context.Context, e *models.Event) (*models.Event, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = r.st.next()
	cp := *e
	r.st.events[e.ID] = &cp
	return e, nil
}

func (r *memEvents) GetByID(_ context.Context, id string) (*models.Event, error) {
	e, ok := r.st.events[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memEvents) visible(userID string, e *models.Event) bool {
	if e.GroupID == "" {
		return true
	}
	_, ok := r.st.members[e.GroupID][userID]
	return ok
}

func (r *memEvents) sorted(keep func(*models.Event) bool) []models.Event {
	out := make([]models.Event, 0)
	for _, e := range r.st.events {
		if keep(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

func (r *memEvents) ListVisible(_ context.Context, userID string, from, to time.Time) ([]models.Event, error) {
	return r.sorted(func(e *models.Event) bool {
		return r.visible(userID, e) && e.StartsAt.Before(to) && !e.EndsAt.Before(from)
	}), nil
}

func (r *memEvents) Upcoming(_ context.Context, userID string, from time.Time, limit int) ([]models.Event, error) {
	out := r.sorted(func(e *models.Event) bool {
		return r.visible(userID, e) && !e.StartsAt.Before(from)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memEvents) Delete(_ context.Context, id string) error {
	if _, ok := r.st.events[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.st.events, id)
	return nil
}

// --- messages ---

type memMessages struct{ st *memStore }

func (r *memMessages) Create(_ context.Context, m *models.Message) (*models.Message, error) {
	r.st.seq++
	m.Seq = r.st.seq
	m.ID = uuid.NewString()
	m.CreatedAt = r.st.next()
	r.st.messages = append(r.st.messages, *m)
	return m, nil
}

func (r *memMessages) ListBefore(_ context.Context, groupID string, beforeSeq int64, limit int) ([]models.Message, error) {
	out := make([]models.Message, 0)
	for i := len(r.st.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.st.messages[i]
		if m.GroupID != groupID || (beforeSeq > 0 && m.Seq >= beforeSeq) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
