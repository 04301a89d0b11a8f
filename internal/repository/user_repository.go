package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/rab-api/internal/models"
)

const userColumns = `id, email, password_hash, name, phone_number, position, role, deleted_at, created_at, updated_at`

// UserRepository provides database access for users and the audit trail.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns an active user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns an active user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// CountExisting counts active users among ids in a single round trip.
func (r *UserRepository) CountExisting(ctx context.Context, ids []int64) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM users WHERE id = ANY($1) AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &count, query, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// FindRefs returns the public identity of users in ids, including removed accounts
// so historical documents keep their signatories.
func (r *UserRepository) FindRefs(ctx context.Context, ids []int64) ([]models.UserRef, error) {
	refs := make([]models.UserRef, 0, len(ids))
	const query = `SELECT id, name, position FROM users WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &refs, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find user refs: %w", err)
	}
	return refs, nil
}

// HasActiveAdmin reports whether at least one non-deleted administrator exists.
func (r *UserRepository) HasActiveAdmin(ctx context.Context) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE role = $1 AND deleted_at IS NULL)`
	if err := r.db.GetContext(ctx, &exists, query, models.RoleAdmin); err != nil {
		return false, fmt.Errorf("check admin user: %w", err)
	}
	return exists, nil
}

// Create inserts a new user and fills in its id.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (email, password_hash, name, phone_number, position, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		user.Email, user.PasswordHash, user.Name, user.PhoneNumber, user.Position, user.Role, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns active regular users ordered by name together with the total
// number of matches.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	where := `role = $1 AND deleted_at IS NULL`
	args := []interface{}{models.RoleUser}
	if name := strings.TrimSpace(filter.Name); name != "" {
		args = append(args, "%"+name+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	page, size := filter.Page, filter.PageSize
	args = append(args, size, (page-1)*size)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY name ASC LIMIT $%d OFFSET $%d`, userColumns, where, len(args)-1, len(args))

	users := make([]models.User, 0, size)
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// ExistsByPhone reports whether any user already owns the phone number.
func (r *UserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE phone_number = $1)`, phone); err != nil {
		return false, fmt.Errorf("check user phone: %w", err)
	}
	return exists, nil
}

// SoftDelete marks a user as removed. It returns sql.ErrNoRows when the user is
// missing or already removed.
func (r *UserRepository) SoftDelete(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `UPDATE users SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, now)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(result, "delete user")
}

// Update stores the profile fields of an active user. It returns sql.ErrNoRows
// when the user is missing or removed.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET name = $2, email = $3, phone_number = $4, position = $5, updated_at = $6 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.PhoneNumber, user.Position, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(result, "update user")
}

// UpdatePassword replaces the password hash of an active user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return requireAffected(result, "update user password")
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
