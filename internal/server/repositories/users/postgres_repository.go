package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/dbx"
	"github.com/bridgeclub/clubhouse/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, name, nickname, academy, birth_year,
		started_playing_on, training_group, is_referee, bbo_username, federation_id,
		onboarded_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, password_hash, name, nickname)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Name, user.Nickname).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user        models.User
		profile     models.Profile
		startedOn   sql.NullTime
		onboardedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Nickname,
		&profile.Academy, &profile.BirthYear, &startedOn, &profile.TrainingGroup,
		&profile.IsReferee, &profile.BBOUsername, &profile.FederationID,
		&onboardedAt, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if onboardedAt.Valid {
		profile.CompletedAt = onboardedAt.Time
		if startedOn.Valid {
			profile.StartedPlayingOn = startedOn.Time
		}
		user.Profile = &profile
	}

	return &user, nil
}

func (r *PostgresRepository) UpdateNames(ctx context.Context, id, name, nickname string) error {
	query := `UPDATE users SET name = $2, nickname = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, name, nickname)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) SaveProfile(ctx context.Context, id string, p *models.Profile) error {
	query :=
		`UPDATE users SET
			academy = $2,
			birth_year = $3,
			started_playing_on = $4,
			training_group = $5,
			is_referee = $6,
			bbo_username = $7,
			federation_id = $8,
			onboarded_at = COALESCE(onboarded_at, $9)
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id,
		p.Academy, p.BirthYear, p.StartedPlayingOn, p.TrainingGroup,
		p.IsReferee, p.BBOUsername, p.FederationID, p.CompletedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
