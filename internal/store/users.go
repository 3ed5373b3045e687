package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/wnusair/miami-MTI/pkg/logging"
	"github.com/wnusair/miami-MTI/pkg/models"
)

var (
	// ErrNotFound is returned when a user or role does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when creating a user with an existing name.
	ErrUsernameTaken = errors.New("username already exists")
)

const uniqueViolation = "23505"

// UserStore persists accounts, roles and the role permission matrix.
type UserStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewUserStore creates a user store over an open connection.
func NewUserStore(db *sql.DB, logger logging.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

// GetByUsername fetches an account by its unique username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.password_hash, u.role_id, r.name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.RoleID, &u.RoleName)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// GetByID fetches an account by ID.
func (s *UserStore) GetByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.password_hash, u.role_id, r.name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
	`, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.RoleID, &u.RoleName)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// List returns every account with its role name.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.role_id, r.name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		ORDER BY u.username
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.RoleID, &u.RoleName); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts a new account with a pre-hashed password.
func (s *UserStore) Create(ctx context.Context, username, passwordHash string, roleID int64) (models.User, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, role_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, username, passwordHash, roleID).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes an account.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRoles returns every role.
func (s *UserStore) ListRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// GetPermissions returns the stored capability row for a role. The boolean
// reports whether a row exists; callers fall back to static defaults when it
// does not.
func (s *UserStore) GetPermissions(ctx context.Context, role string) (models.Permissions, bool, error) {
	var p models.Permissions
	err := s.db.QueryRowContext(ctx, `
		SELECT rp.can_view_panel_1, rp.can_view_panel_2, rp.can_view_panel_3, rp.can_view_panel_4,
		       rp.can_export_data, rp.can_edit_data, rp.can_manage_users, rp.can_view_access_logs
		FROM role_permissions rp
		JOIN roles r ON r.id = rp.role_id
		WHERE r.name = $1
	`, role).Scan(
		&p.CanViewPanel1, &p.CanViewPanel2, &p.CanViewPanel3, &p.CanViewPanel4,
		&p.CanExportData, &p.CanEditData, &p.CanManageUsers, &p.CanViewAccessLogs,
	)
	if err == sql.ErrNoRows {
		return models.Permissions{}, false, nil
	}
	if err != nil {
		return models.Permissions{}, false, fmt.Errorf("get permissions for role %s: %w", role, err)
	}
	return p, true, nil
}

// UpdatePermissions upserts the capability row for a role.
func (s *UserStore) UpdatePermissions(ctx context.Context, role string, p models.Permissions) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE role_permissions SET
			can_view_panel_1 = $2, can_view_panel_2 = $3, can_view_panel_3 = $4, can_view_panel_4 = $5,
			can_export_data = $6, can_edit_data = $7, can_manage_users = $8, can_view_access_logs = $9
		WHERE role_id = (SELECT id FROM roles WHERE name = $1)
	`, role,
		p.CanViewPanel1, p.CanViewPanel2, p.CanViewPanel3, p.CanViewPanel4,
		p.CanExportData, p.CanEditData, p.CanManageUsers, p.CanViewAccessLogs,
	)
	if err != nil {
		return fmt.Errorf("update permissions for role %s: %w", role, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update permissions rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
