package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
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

var userColumns = []string{"id", "email", "username", "password_hash", "token_version", "created_at"}

const (
	insertQ      = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*username,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*token_version,\s*created_at\s*$`
	byIDQ        = `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	byEmailQ     = `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
	usernameQ    = `(?s)^UPDATE\s+users\s+SET\s+username\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+id,.*$`
	passwordQ    = `(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2,\s*token_version\s*=\s*token_version\s*\+\s*1\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+token_version\s*$`
	incVersionQ  = `(?s)^UPDATE\s+users\s+SET\s+token_version\s*=\s*token_version\s*\+\s*1\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+token_version\s*$`
	dbErrPattern = `db error: .*db down`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "alice", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "token_version", "created_at"}).AddRow(int64(42), int64(1), created))

	u := &models.User{Email: "alice@example.com", Username: "alice", PasswordHash: "hash"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || got.TokenVersion != 1 || !got.CreatedAt.Equal(created) {
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
		WithArgs("alice@example.com", "alice", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com", Username: "alice", PasswordHash: "hash"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a", Username: "a", PasswordHash: "h"})
	if err == nil || !regexp.MustCompile(dbErrPattern).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byIDQ).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(7), "bob@example.com", "bob", "h", int64(3), time.Now()))

	got, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.ID != 7 || got.Email != "bob@example.com" || got.TokenVersion != 3 {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byIDQ).WithArgs(int64(404)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestGetByEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmailQ).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(7), "bob@example.com", "bob", "h", int64(1), time.Now()))
	mock.ExpectQuery(byEmailQ).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(byEmailQ).
		WithArgs("x@example.com").
		WillReturnError(errors.New("db down"))

	got, err := repo.GetByEmail(context.Background(), "bob@example.com")
	if err != nil || got.ID != 7 {
		t.Fatalf("unexpected result: %+v, %v", got, err)
	}
	if _, err := repo.GetByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
	if _, err := repo.GetByEmail(context.Background(), "x@example.com"); err == nil || !regexp.MustCompile(dbErrPattern).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdateUsername(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(usernameQ).
		WithArgs(int64(7), "robert").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(7), "bob@example.com", "robert", "h", int64(1), time.Now()))

	got, err := repo.UpdateUsername(context.Background(), 7, "robert")
	if err != nil {
		t.Fatalf("UpdateUsername error: %v", err)
	}
	if got.Username != "robert" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUpdatePassword_BumpsVersion(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(passwordQ).
		WithArgs(int64(7), "newhash").
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(int64(5)))

	v, err := repo.UpdatePassword(context.Background(), 7, "newhash")
	if err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	if v != 5 {
		t.Fatalf("want version 5, got %d", v)
	}
}

func TestIncrementTokenVersion(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(incVersionQ).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(int64(2)))
	mock.ExpectQuery(incVersionQ).
		WithArgs(int64(8)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(incVersionQ).
		WithArgs(int64(9)).
		WillReturnError(errors.New("db down"))

	v, err := repo.IncrementTokenVersion(context.Background(), 7)
	if err != nil || v != 2 {
		t.Fatalf("unexpected result: %d, %v", v, err)
	}
	if _, err := repo.IncrementTokenVersion(context.Background(), 8); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
	if _, err := repo.IncrementTokenVersion(context.Background(), 9); err == nil || !regexp.MustCompile(dbErrPattern).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
