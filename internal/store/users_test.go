package store

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/wnusair/miami-MTI/pkg/logging"
	"github.com/wnusair/miami-MTI/pkg/models"
)

func newMockUserStore(t *testing.T) (*UserStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	logger := logging.NewLogger()
	logger.SetOutput(io.Discard)
	return NewUserStore(db, logger), mock, func() { db.Close() }
}

func userRow(u models.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "password_hash", "role_id", "name"}).
		AddRow(u.ID, u.Username, u.PasswordHash, u.RoleID, u.RoleName)
}

func TestGetByUsername(t *testing.T) {
	s, mock, done := newMockUserStore(t)
	defer done()

	mock.ExpectQuery("WHERE u.username = ").
		WithArgs("kwolek").
		WillReturnRows(userRow(models.User{ID: 3, Username: "kwolek", PasswordHash: "$2a$10$x", RoleID: 2, RoleName: "Engineer"}))

	u, err := s.GetByUsername(context.Background(), "kwolek")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u.ID != 3 || u.RoleName != "Engineer" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetByUsernameNotFound(t *testing.T) {
	s, mock, done := newMockUserStore(t)
	defer done()

	mock.ExpectQuery("WHERE u.username = ").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role_id", "name"}))

	if _, err := s.GetByUsername(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserUniqueViolation(t *testing.T) {
	s, mock, done := newMockUserStore(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("duplicate", "$2a$10$x", int64(2)).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	_, err := s.Create(context.Background(), "duplicate", "$2a$10$x", 2)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestCreateUserReturnsStoredRow(t *testing.T) {
	s, mock, done := newMockUserStore(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("newops", "$2a$10$y", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectQuery("WHERE u.id = ").
		WithArgs(int64(9)).
		WillReturnRows(userRow(models.User{ID: 9, Username: "newops", PasswordHash: "$2a$10$y", RoleID: 3, RoleName: "Operator"}))

	u, err := s.Create(context.Background(), "newops", "$2a$10$y", 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID != 9 || u.RoleName != "Operator" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	s, mock, done := newMockUserStore(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Delete(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPermissionsMissingRow(t *testing.T) {
	s, mock, done := newMockUserStore(t)
	defer done()

	mock.ExpectQuery("FROM role_permissions").
		WithArgs("Contractor").
		WillReturnRows(sqlmock.NewRows([]string{
			"can_view_panel_1", "can_view_panel_2", "can_view_panel_3", "can_view_panel_4",
			"can_export_data", "can_edit_data", "can_manage_users", "can_view_access_logs",
		}))

	_, found, err := s.GetPermissions(context.Background(), "Contractor")
	if err != nil {
		t.Fatalf("GetPermissions: %v", err)
	}
	if found {
		t.Fatal("expected no stored row for unknown role")
	}
}

func TestGetPermissionsStoredRow(t *testing.T) {
	s, mock, done := newMockUserStore(t)
	defer done()

	mock.ExpectQuery("FROM role_permissions").
		WithArgs("Investor").
		WillReturnRows(sqlmock.NewRows([]string{
			"can_view_panel_1", "can_view_panel_2", "can_view_panel_3", "can_view_panel_4",
			"can_export_data", "can_edit_data", "can_manage_users", "can_view_access_logs",
		}).AddRow(true, false, false, false, false, false, false, false))

	p, found, err := s.GetPermissions(context.Background(), "Investor")
	if err != nil {
		t.Fatalf("GetPermissions: %v", err)
	}
	if !found {
		t.Fatal("expected stored row")
	}
	if !p.CanViewPanel1 || p.CanViewPanel2 {
		t.Fatalf("unexpected permissions: %+v", p)
	}
}

func TestUpdatePermissionsUnknownRole(t *testing.T) {
	s, mock, done := newMockUserStore(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE role_permissions SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdatePermissions(context.Background(), "Contractor", models.Permissions{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
