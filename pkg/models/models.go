package models

import "time"

// Reading statuses. Readings are classified at ingest time and immutable
// afterwards.
const (
	StatusOK      = "OK"
	StatusWarning = "WARNING"
	StatusError   = "ERROR"
)

// Reading is one stored sensor telemetry sample
type Reading struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	SensorName string    `json:"sensor_name"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Status     string    `json:"status"`
}

// IngestReading is the ingest request body for a single sample. Timestamp
// and Status are optional; the server fills them in.
type IngestReading struct {
	SensorName string     `json:"sensor_name"`
	Value      *float64   `json:"value"`
	Unit       string     `json:"unit"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Status     string     `json:"status,omitempty"`
}

// IngestResponse reports what a POST /api/ingest call stored
type IngestResponse struct {
	Created int       `json:"created"`
	Data    []Reading `json:"data"`
}

// SensorStats summarizes a time window for the KPI panel
type SensorStats struct {
	TotalReadings int            `json:"total_readings"`
	SensorCount   int            `json:"sensor_count"`
	AvgValue      float64        `json:"avg_value"`
	StatusSummary map[string]int `json:"status_summary"`
}

// Role is a named authorization role
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is a dashboard account
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	RoleID       int64  `json:"role_id"`
	RoleName     string `json:"role"`
}

// Permissions is the capability set attached to a role
type Permissions struct {
	CanViewPanel1     bool `json:"can_view_panel_1"`
	CanViewPanel2     bool `json:"can_view_panel_2"`
	CanViewPanel3     bool `json:"can_view_panel_3"`
	CanViewPanel4     bool `json:"can_view_panel_4"`
	CanExportData     bool `json:"can_export_data"`
	CanEditData       bool `json:"can_edit_data"`
	CanManageUsers    bool `json:"can_manage_users"`
	CanViewAccessLogs bool `json:"can_view_access_logs"`
}

// LoginRequest is the credentials body for POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token and the caller's identity
type LoginResponse struct {
	Token    string      `json:"token"`
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     string      `json:"role"`
	Perms    Permissions `json:"permissions"`
}

// CreateUserRequest is the admin body for creating an account
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	RoleID   int64  `json:"role_id" binding:"required"`
}
