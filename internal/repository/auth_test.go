package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/BookKeeper/internal/models"
)

const (
	userExistsQuery   = `SELECT EXISTS(SELECT 1 FROM users WHERE sub = $1)`
	registerUserQuery = `INSERT INTO users (sub, name) VALUES ($1, $2) ON CONFLICT (sub) DO UPDATE SET name = EXCLUDED.name`
)

func setupAuthMock(t *testing.T) (*PostgresAuthRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresAuthRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestUserExists(t *testing.T) {
	tests := []struct {
		name    string
		sub     string
		rows    *sqlmock.Rows
		dbErr   error
		want    bool
		wantErr bool
	}{
		{"exists", "auth0|1", sqlmock.NewRows([]string{"exists"}).AddRow(true), nil, true, false},
		{"missing", "auth0|2", sqlmock.NewRows([]string{"exists"}).AddRow(false), nil, false, false},
		{"query error", "auth0|3", nil, errors.New("query failed"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupAuthMock(t)
			defer cleanup()

			exp := mock.ExpectQuery(regexp.QuoteMeta(userExistsQuery)).WithArgs(tt.sub)
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			got, err := repo.UserExists(context.Background(), tt.sub)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UserExists() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("UserExists() = %v, want %v", got, tt.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestRegisterUser_Success(t *testing.T) {
	repo, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(registerUserQuery)).
		WithArgs("auth0|1", "Ada").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.RegisterUser(context.Background(), models.User{Subject: "auth0|1", Name: "Ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRegisterUser_Error(t *testing.T) {
	repo, mock, cleanup := setupAuthMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(registerUserQuery)).
		WithArgs("auth0|1", "").
		WillReturnError(errors.New("insert failed"))

	if err := repo.RegisterUser(context.Background(), models.User{Subject: "auth0|1"}); err == nil {
		t.Errorf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
