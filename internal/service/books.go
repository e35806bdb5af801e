// Package service provides the catalog business logic, delegating persistence
// to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/atinyakov/BookKeeper/internal/models"
)

// ErrInvalidBook is wrapped by validation failures. The wrapping message is
// safe to show to users.
var ErrInvalidBook = errors.New("invalid book")

// BookRepository defines the persistence operations needed by the BookService.
type BookRepository interface {
	// ListBooks returns every live book ordered by id.
	ListBooks(ctx context.Context) ([]models.Book, error)
	// GetBook returns a live book or models.ErrBookNotFound.
	GetBook(ctx context.Context, id int64) (models.Book, error)
	// CreateBook inserts a book attributed to createdBy.
	CreateBook(ctx context.Context, name, description, createdBy string) (models.Book, error)
	// UpdateBook replaces a live book's fields or returns models.ErrBookNotFound.
	UpdateBook(ctx context.Context, id int64, name, description string) (models.Book, error)
	// DeleteBook soft-deletes a live book, reporting whether one was deleted.
	DeleteBook(ctx context.Context, id int64) (bool, error)
	// DeleteAllBooks soft-deletes every live book.
	DeleteAllBooks(ctx context.Context) (int64, error)
	// RestoreBooks undoes soft deletes that have not been purged yet.
	RestoreBooks(ctx context.Context, ids []int64) ([]int64, error)
}

// BookService implements the catalog operations.
type BookService struct {
	repo BookRepository
}

// NewBookService constructs a BookService with the provided BookRepository.
func NewBookService(repo BookRepository) *BookService {
	return &BookService{repo: repo}
}

// ValidateBook checks name and description lengths in characters.
func ValidateBook(name, description string) error {
	if n := utf8.RuneCountInString(name); n < models.NameMinLen || n > models.NameMaxLen {
		return fmt.Errorf("%w: Name must be between %d and %d characters",
			ErrInvalidBook, models.NameMinLen, models.NameMaxLen)
	}
	if n := utf8.RuneCountInString(description); n < models.DescriptionMinLen || n > models.DescriptionMaxLen {
		return fmt.Errorf("%w: Description must be between %d and %d characters",
			ErrInvalidBook, models.DescriptionMinLen, models.DescriptionMaxLen)
	}
	return nil
}

// List returns the whole catalog.
func (s *BookService) List(ctx context.Context) ([]models.Book, error) {
	return s.repo.ListBooks(ctx)
}

// Get returns one book.
func (s *BookService) Get(ctx context.Context, id int64) (models.Book, error) {
	return s.repo.GetBook(ctx, id)
}

// Create validates and stores a new book on behalf of user.
func (s *BookService) Create(ctx context.Context, user models.User, name, description string) (models.Book, error) {
	if err := ValidateBook(name, description); err != nil {
		return models.Book{}, err
	}
	return s.repo.CreateBook(ctx, name, description, user.Subject)
}

// Update validates and replaces the fields of an existing book.
func (s *BookService) Update(ctx context.Context, id int64, name, description string) (models.Book, error) {
	if err := ValidateBook(name, description); err != nil {
		return models.Book{}, err
	}
	return s.repo.UpdateBook(ctx, id, name, description)
}

// Delete soft-deletes one book. Deleting a missing book reports false.
func (s *BookService) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeleteBook(ctx, id)
}

// DeleteAll soft-deletes the whole catalog.
func (s *BookService) DeleteAll(ctx context.Context) error {
	_, err := s.repo.DeleteAllBooks(ctx)
	return err
}

// Restore brings back soft-deleted books and returns the ids restored.
func (s *BookService) Restore(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	return s.repo.RestoreBooks(ctx, ids)
}
