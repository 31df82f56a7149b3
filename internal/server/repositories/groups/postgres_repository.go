package groups

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

const groupColumns = `g.id, g.name, g.admin_id, g.image_url, g.invite_code, g.created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the group row only; the creator's membership is added
// separately with AddMember. A clashing invite code yields
// common.ErrorAlreadyExists so callers can retry with a fresh code.
func (r *PostgresRepository) Create(ctx context.Context, group *models.Group) (*models.Group, error) {

	query :=
		`INSERT INTO groups (name, admin_id, image_url, invite_code)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		group.Name, group.AdminID, group.ImageURL, group.InviteCode).Scan(&group.ID, &group.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return group, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g WHERE g.id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g WHERE g.invite_code = $1`
	return r.getOne(ctx, query, code)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Group, error) {
	var g models.Group

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&g.ID, &g.Name, &g.AdminID, &g.ImageURL, &g.InviteCode, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &g, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {

	query :=
		`SELECT ` + groupColumns + `
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = $1
		 ORDER BY g.name, g.id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Group, 0)
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.AdminID, &g.ImageURL, &g.InviteCode, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) UpdateAdminID(ctx context.Context, groupID, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET admin_id = $2 WHERE id = $1`, groupID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// Delete removes the group; memberships, events and messages cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// AddMember returns common.ErrorAlreadyExists when the user is already in
// the group.
func (r *PostgresRepository) AddMember(ctx context.Context, groupID, userID string, role models.Role) error {

	query :=
		`INSERT INTO group_members (group_id, user_id, role)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (group_id, user_id) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, groupID, userID, string(role))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

func (r *PostgresRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) SetRole(ctx context.Context, groupID, userID string, role models.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE group_members SET role = $3 WHERE group_id = $1 AND user_id = $2`, groupID, userID, string(role))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Members(ctx context.Context, groupID string) ([]models.Member, error) {

	query :=
		`SELECT m.user_id, u.name, u.nickname, m.role, m.joined_at
		 FROM group_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.group_id = $1
		 ORDER BY m.joined_at, m.user_id
		 `

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Member, 0)
	for rows.Next() {
		var (
			m    models.Member
			role string
		)
		if err := rows.Scan(&m.UserID, &m.Name, &m.Nickname, &role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		m.Role = models.Role(role)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

// MemberRole returns common.ErrorNotFound when the user is not a member.
func (r *PostgresRepository) MemberRole(ctx context.Context, groupID, userID string) (models.Role, error) {
	var role string

	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return models.Role(role), nil
}

func (r *PostgresRepository) MemberGroupIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_id FROM group_members WHERE user_id = $1 ORDER BY group_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return ids, nil
}

func (r *PostgresRepository) CountMembers(ctx context.Context, groupID string) (int, int, error) {

	query :=
		`SELECT count(*), count(*) FILTER (WHERE role = 'admin')
		 FROM group_members
		 WHERE group_id = $1
		 `

	var members, admins int
	if err := r.db.QueryRowContext(ctx, query, groupID).Scan(&members, &admins); err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}

	return members, admins, nil
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
