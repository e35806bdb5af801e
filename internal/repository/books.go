package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/lib/pq"
)

const foreignKeyViolation = "23503"

// PostgresBookRepository stores catalog books. Deletes are soft: a deleted
// book keeps its row with deleted_at set until the cleaner purges it.
type PostgresBookRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresBookRepository creates a new PostgresBookRepository using the provided *sql.DB.
func NewPostgresBookRepository(db *sql.DB) *PostgresBookRepository {
	return &PostgresBookRepository{DB: db}
}

// ListBooks returns every live book ordered by id.
func (r *PostgresBookRepository) ListBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, description FROM books WHERE deleted_at IS NULL ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("ListBooks: %w", err)
	}
	defer rows.Close()

	books := make([]models.Book, 0)
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Description); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBooks: %w", err)
	}
	return books, nil
}

// GetBook returns the live book with the given id, or models.ErrBookNotFound.
func (r *PostgresBookRepository) GetBook(ctx context.Context, id int64) (models.Book, error) {
	var b models.Book
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, description FROM books WHERE id = $1 AND deleted_at IS NULL
	`, id).Scan(&b.ID, &b.Name, &b.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, models.ErrBookNotFound
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("GetBook: %w", err)
	}
	return b, nil
}

// CreateBook inserts a book owned by createdBy and returns it with its new id.
func (r *PostgresBookRepository) CreateBook(ctx context.Context, name, description, createdBy string) (models.Book, error) {
	b := models.Book{Name: name, Description: description}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO books (name, description, created_by) VALUES ($1, $2, $3) RETURNING id
	`, name, description, createdBy).Scan(&b.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return models.Book{}, fmt.Errorf("%w: %s", models.ErrUnknownUser, createdBy)
		}
		return models.Book{}, fmt.Errorf("CreateBook: %w", err)
	}
	return b, nil
}

// UpdateBook replaces the name and description of a live book.
func (r *PostgresBookRepository) UpdateBook(ctx context.Context, id int64, name, description string) (models.Book, error) {
	var b models.Book
	err := r.DB.QueryRowContext(ctx, `
		UPDATE books SET name = $2, description = $3, updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, name, description
	`, id, name, description).Scan(&b.ID, &b.Name, &b.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, models.ErrBookNotFound
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("UpdateBook: %w", err)
	}
	return b, nil
}

// DeleteBook soft-deletes a live book. It reports false when there was
// nothing to delete.
func (r *PostgresBookRepository) DeleteBook(ctx context.Context, id int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE books SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return false, fmt.Errorf("DeleteBook: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("DeleteBook: %w", err)
	}
	return n > 0, nil
}

// DeleteAllBooks soft-deletes every live book and returns how many there were.
func (r *PostgresBookRepository) DeleteAllBooks(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE books SET deleted_at = now() WHERE deleted_at IS NULL
	`)
	if err != nil {
		return 0, fmt.Errorf("DeleteAllBooks: %w", err)
	}
	return res.RowsAffected()
}

// RestoreBooks clears the soft-delete mark of the given books, provided the
// cleaner has not purged them yet. It returns the ids actually restored.
func (r *PostgresBookRepository) RestoreBooks(ctx context.Context, ids []int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `
		UPDATE books SET deleted_at = NULL, updated_at = now()
		 WHERE id = ANY($1) AND deleted_at IS NOT NULL
		RETURNING id
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("RestoreBooks: %w", err)
	}
	defer rows.Close()

	restored := make([]int64, 0, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		restored = append(restored, id)
	}
	return restored, rows.Err()
}
