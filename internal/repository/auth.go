// Package repository provides PostgreSQL persistence for catalog users and books.
package repository

import (
	"context"
	"database/sql"

	"github.com/atinyakov/BookKeeper/internal/models"
)

// PostgresAuthRepository stores the users known to the catalog.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists checks whether a user with the specified subject exists in the database.
// If an error occurs during the query, it is returned.
func (s *PostgresAuthRepository) UserExists(ctx context.Context, sub string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE sub = $1)`,
		sub,
	).Scan(&exists)
	return exists, err
}

// RegisterUser records u. A known subject keeps its row and only has its
// display name refreshed.
func (s *PostgresAuthRepository) RegisterUser(ctx context.Context, u models.User) error {
	_, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO users (sub, name) VALUES ($1, $2) ON CONFLICT (sub) DO UPDATE SET name = EXCLUDED.name`,
		u.Subject, u.Name,
	)
	return err
}
