package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wnusair/miami-MTI/internal/permissions"
	"github.com/wnusair/miami-MTI/pkg/logging"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sensor_data (
		id          BIGSERIAL PRIMARY KEY,
		timestamp   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		sensor_name VARCHAR(64) NOT NULL,
		value       DOUBLE PRECISION NOT NULL,
		unit        VARCHAR(20) NOT NULL DEFAULT '',
		status      VARCHAR(20) NOT NULL DEFAULT 'OK'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_data_timestamp ON sensor_data (timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_data_sensor_name ON sensor_data (sensor_name, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id   BIGSERIAL PRIMARY KEY,
		name VARCHAR(50) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(64) NOT NULL UNIQUE,
		password_hash VARCHAR(128) NOT NULL,
		role_id       BIGINT NOT NULL REFERENCES roles(id)
	)`,
	`CREATE TABLE IF NOT EXISTS role_permissions (
		id                   BIGSERIAL PRIMARY KEY,
		role_id              BIGINT NOT NULL UNIQUE REFERENCES roles(id),
		can_view_panel_1     BOOLEAN NOT NULL DEFAULT TRUE,
		can_view_panel_2     BOOLEAN NOT NULL DEFAULT TRUE,
		can_view_panel_3     BOOLEAN NOT NULL DEFAULT FALSE,
		can_view_panel_4     BOOLEAN NOT NULL DEFAULT FALSE,
		can_export_data      BOOLEAN NOT NULL DEFAULT FALSE,
		can_edit_data        BOOLEAN NOT NULL DEFAULT FALSE,
		can_manage_users     BOOLEAN NOT NULL DEFAULT FALSE,
		can_view_access_logs BOOLEAN NOT NULL DEFAULT FALSE
	)`,
}

// Migrate creates the schema and seeds the built-in roles with their default
// permission rows. It is idempotent and safe to run on every boot.
func Migrate(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}

	defaults := permissions.Defaults()
	for _, role := range permissions.DefaultRoles() {
		var roleID int64
		err := db.QueryRowContext(ctx, `
			INSERT INTO roles (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, role).Scan(&roleID)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}

		p := defaults[role]
		_, err = db.ExecContext(ctx, `
			INSERT INTO role_permissions (
				role_id,
				can_view_panel_1, can_view_panel_2, can_view_panel_3, can_view_panel_4,
				can_export_data, can_edit_data, can_manage_users, can_view_access_logs
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (role_id) DO NOTHING
		`, roleID,
			p.CanViewPanel1, p.CanViewPanel2, p.CanViewPanel3, p.CanViewPanel4,
			p.CanExportData, p.CanEditData, p.CanManageUsers, p.CanViewAccessLogs,
		)
		if err != nil {
			return fmt.Errorf("seed permissions for %s: %w", role, err)
		}
	}

	logger.Info("Database schema migrated")
	return nil
}

// SeedAdmin ensures a Manager account exists with the given credentials.
// Used on first boot; an existing username is left untouched.
func SeedAdmin(ctx context.Context, db *sql.DB, username, passwordHash string, logger logging.Logger) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role_id)
		SELECT $1, $2, id FROM roles WHERE name = $3
		ON CONFLICT (username) DO NOTHING
	`, username, passwordHash, permissions.RoleManager)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	logger.WithField("username", username).Info("Admin account ensured")
	return nil
}
