package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userCols = []string{
	"id", "email", "password_hash", "name", "nickname", "academy", "birth_year",
	"started_playing_on", "training_group", "is_referee", "bbo_username", "federation_id",
	"onboarded_at", "created_at",
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*password_hash,\s*name,\s*nickname\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("ana@club.test", "hash", "Ana", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", created))

	got, err := repo.Create(context.Background(), &models.User{Email: "ana@club.test", PasswordHash: "hash", Name: "Ana"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("ana@club.test", "hash", "Ana", "").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{Email: "ana@club.test", PasswordHash: "hash", Name: "Ana"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a", PasswordHash: "h", Name: "n"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_NotOnboarded(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now().UTC()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("ana@club.test").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(
			"u-1", "ana@club.test", "hash", "Ana", "", "", 0,
			nil, "", false, "", "", nil, created))

	got, err := repo.GetByEmail(context.Background(), "ana@club.test")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.Profile != nil {
		t.Fatalf("profile must be nil before onboarding, got %+v", got.Profile)
	}
}

func TestGetByID_Onboarded(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	started := time.Date(2015, 9, 1, 0, 0, 0, 0, time.UTC)
	onboarded := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(
			"u-1", "ana@club.test", "hash", "Ana", "Annie", "North Academy", 1990,
			started, "Tuesday advanced", true, "ana_bbo", "FED-1", onboarded, onboarded))

	got, err := repo.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Profile == nil {
		t.Fatal("expected profile")
	}
	if got.Profile.Academy != "North Academy" || got.Profile.BirthYear != 1990 || !got.Profile.IsReferee {
		t.Fatalf("unexpected profile: %+v", got.Profile)
	}
	if !got.Profile.StartedPlayingOn.Equal(started) || !got.Profile.CompletedAt.Equal(onboarded) {
		t.Fatalf("unexpected dates: %+v", got.Profile)
	}
	if !got.Onboarded() {
		t.Fatal("user should be onboarded")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+WHERE\s+id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdateNames(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+name\s*=\s*\$2,\s*nickname\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1$`

	mock.ExpectExec(q).WithArgs("u-1", "Ana", "Annie").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.UpdateNames(context.Background(), "u-1", "Ana", "Annie"); err != nil {
		t.Fatalf("UpdateNames error: %v", err)
	}

	mock.ExpectExec(q).WithArgs("ghost", "X", "").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.UpdateNames(context.Background(), "ghost", "X", ""); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestSaveProfile(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := &models.Profile{
		Academy:          "North Academy",
		BirthYear:        1990,
		StartedPlayingOn: time.Date(2015, 9, 1, 0, 0, 0, 0, time.UTC),
		IsReferee:        true,
		CompletedAt:      time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET.*onboarded_at\s*=\s*COALESCE\(onboarded_at,\s*\$9\).*WHERE\s+id\s*=\s*\$1`).
		WithArgs("u-1", p.Academy, p.BirthYear, p.StartedPlayingOn, "", true, "", "", p.CompletedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveProfile(context.Background(), "u-1", p); err != nil {
		t.Fatalf("SaveProfile error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
