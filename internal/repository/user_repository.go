package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campus-core/registrar-api/internal/models"
)

const userColumns = `user_id, name, email, program, password_h, state, account_status`

// UserRepository handles persistence of accounts and login history.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new account and returns the generated id. Duplicate
// emails surface as unique violations.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	const query = `INSERT INTO users (name, email, program, password_h, state, account_status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING user_id`
	var id int64
	err := r.db.GetContext(ctx, &id, query,
		user.Name, user.Email, user.Program, user.PasswordHash, user.Role, user.AccountStatus)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	return id, nil
}

// FindByID returns a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail returns a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByLogin resolves a login identifier that may be a numeric user id or
// an email address.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	if id, err := strconv.ParseInt(strings.TrimSpace(login), 10, 64); err == nil {
		return r.FindByID(ctx, id)
	}
	return r.FindByEmail(ctx, strings.TrimSpace(login))
}

// List returns all users ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY user_id`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update changes only the provided fields. Returns false when the user
// does not exist.
func (r *UserRepository) Update(ctx context.Context, id int64, name, email *string, program *models.Program, status *models.AccountStatus) (bool, error) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if name != nil {
		add("name", *name)
	}
	if email != nil {
		add("email", *email)
	}
	if program != nil {
		add("program", *program)
	}
	if status != nil {
		add("account_status", *status)
	}
	if len(sets) == 0 {
		return false, nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE user_id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update user rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a user. Returns false when nothing matched.
func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user rows: %w", err)
	}
	return affected > 0, nil
}

// ListInactive returns accounts pending approval.
func (r *UserRepository) ListInactive(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE account_status = $1 ORDER BY user_id`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, models.AccountInactive); err != nil {
		return nil, fmt.Errorf("list inactive users: %w", err)
	}
	return users, nil
}

// ApproveAllInactive activates every pending account and returns how many
// were affected.
func (r *UserRepository) ApproveAllInactive(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET account_status = $1 WHERE account_status = $2`,
		models.AccountActive, models.AccountInactive)
	if err != nil {
		return 0, fmt.Errorf("approve inactive users: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("approve inactive users rows: %w", err)
	}
	return int(affected), nil
}

// DeleteAllInactive removes every pending account and returns how many
// were removed.
func (r *UserRepository) DeleteAllInactive(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE account_status = $1`, models.AccountInactive)
	if err != nil {
		return 0, fmt.Errorf("delete inactive users: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete inactive users rows: %w", err)
	}
	return int(affected), nil
}

// GetLastLogin returns the most recent login timestamp for the user, or
// nil when none is recorded.
func (r *UserRepository) GetLastLogin(ctx context.Context, userID int64) (*time.Time, error) {
	const query = `SELECT last_login FROM login WHERE user_id = $1 ORDER BY last_login DESC LIMIT 1`
	var ts time.Time
	if err := r.db.GetContext(ctx, &ts, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last login: %w", err)
	}
	return &ts, nil
}

// TouchLastLogin records a login timestamp for the user.
func (r *UserRepository) TouchLastLogin(ctx context.Context, userID int64, ts time.Time) error {
	const query = `INSERT INTO login (user_id, last_login) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, userID, ts); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}
