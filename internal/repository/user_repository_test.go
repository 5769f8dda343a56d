package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

var testBirthDate = time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "handle", "email", "password_hash", "role",
		"avatar_url", "avatar_ref", "birth_date", "current_refresh_hash",
		"created_at", "updated_at",
	})
}

func TestCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "Alice", "alice_ab12cd34", "a@x.com",
			sqlmock.AnyArg(), "regular", "", "", testBirthDate).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepo(db)
	id, err := repo.Create(context.Background(), "Alice", "alice_ab12cd34", " A@X.com ",
		"secret-pw", testBirthDate, "", "", 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{
			Number:  1062,
			Message: "Duplicate entry 'a@x.com' for key 'users.uq_users_email'",
		})

	repo := NewUserRepo(db)
	_, err = repo.Create(context.Background(), "Alice", "alice_ab12cd34", "a@x.com",
		"secret-pw", testBirthDate, "", "", 4)
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestCreateUserDuplicateHandle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{
			Number:  1062,
			Message: "Duplicate entry 'alice' for key 'users.uq_users_handle'",
		})

	repo := NewUserRepo(db)
	_, err = repo.Create(context.Background(), "Alice", "alice", "a@x.com",
		"secret-pw", testBirthDate, "", "", 4)
	if !errors.Is(err, ErrHandleExists) {
		t.Fatalf("err = %v, want ErrHandleExists", err)
	}
}

func TestGetByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM users WHERE email=").
		WithArgs("missing@x.com").
		WillReturnRows(userRows())

	repo := NewUserRepo(db)
	if _, err := repo.GetByEmail(context.Background(), "missing@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetByIDScansRefreshHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .* FROM users WHERE id=").
		WithArgs("u1").
		WillReturnRows(userRows().AddRow(
			"u1", "Alice", "alice", "a@x.com", "$2a$04$hash", "artist",
			"http://img", "ref", testBirthDate, "deadbeef", now, now))

	repo := NewUserRepo(db)
	u, err := repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Role != "artist" {
		t.Errorf("role = %q, want artist", u.Role)
	}
	if u.CurrentRefreshHash == nil || *u.CurrentRefreshHash != "deadbeef" {
		t.Errorf("refresh hash not scanned: %v", u.CurrentRefreshHash)
	}
}

func TestGetByIDRejectsUnknownRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .* FROM users WHERE id=").
		WithArgs("u1").
		WillReturnRows(userRows().AddRow(
			"u1", "Alice", "alice", "a@x.com", "$2a$04$hash", "superuser",
			"", "", testBirthDate, nil, now, now))

	repo := NewUserRepo(db)
	if _, err := repo.GetByID(context.Background(), "u1"); err == nil {
		t.Fatal("a row with an out-of-set role must not load")
	}
}

func TestRotateRefreshHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewUserRepo(db)

	// Current token matches: exactly one row updated.
	mock.ExpectExec("UPDATE users SET current_refresh_hash=. WHERE id=. AND current_refresh_hash=").
		WithArgs("new-hash", "u1", "old-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.RotateRefreshHash(context.Background(), "u1", "old-hash", "new-hash")
	if err != nil || !ok {
		t.Fatalf("rotate = (%v, %v), want (true, nil)", ok, err)
	}

	// Superseded token: condition fails, zero rows.
	mock.ExpectExec("UPDATE users SET current_refresh_hash=. WHERE id=. AND current_refresh_hash=").
		WithArgs("new-hash-2", "u1", "stale-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.RotateRefreshHash(context.Background(), "u1", "stale-hash", "new-hash-2")
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if ok {
		t.Fatal("rotation with stale hash must not match")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClearRefreshHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE users SET current_refresh_hash=NULL WHERE id=").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepo(db)
	if err := repo.ClearRefreshHash(context.Background(), "u1"); err != nil {
		t.Fatalf("ClearRefreshHash: %v", err)
	}
}
