// Package http serves the catalog over HTTP: the GraphQL endpoint, a small
// REST surface for the caller's identity, and the router tying them to the
// authentication and logging middleware.
package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/atinyakov/BookKeeper/internal/middleware"
	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/atinyakov/BookKeeper/internal/service"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"go.uber.org/zap"
)

// Error codes reported in the "extensions.code" member of GraphQL errors.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// maxSafeID is the largest integer a Float id carries exactly.
const maxSafeID = 1 << 53

// BookService defines the catalog operations required by the GraphQL resolvers.
type BookService interface {
	List(ctx context.Context) ([]models.Book, error)
	Get(ctx context.Context, id int64) (models.Book, error)
	Create(ctx context.Context, user models.User, name, description string) (models.Book, error)
	Update(ctx context.Context, id int64, name, description string) (models.Book, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) error
	Restore(ctx context.Context, ids []int64) ([]int64, error)
}

// codedError is a resolver error carrying an extensions code.
type codedError struct {
	msg  string
	code string
}

func (e *codedError) Error() string { return e.msg }

// Extensions implements graphql-go's ResolverError.
func (e *codedError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

// Resolver is the GraphQL root resolver for both queries and mutations.
type Resolver struct {
	books BookService
	log   *zap.Logger
}

// NewGraphQLHandler parses the schema against a resolver over books and
// returns an http.Handler serving it.
func NewGraphQLHandler(books BookService, log *zap.Logger) http.Handler {
	s := graphql.MustParseSchema(schema, &Resolver{books: books, log: log},
		graphql.MaxDepth(8),
		graphql.Logger(panicLogger{log: log}),
	)
	return &relay.Handler{Schema: s}
}

type panicLogger struct{ log *zap.Logger }

func (l panicLogger) LogPanic(_ context.Context, value interface{}) {
	l.log.Error("graphql resolver panic", zap.Any("panic", value))
}

type bookResolver struct{ b models.Book }

func (r *bookResolver) ID() float64         { return float64(r.b.ID) }
func (r *bookResolver) Name() string        { return r.b.Name }
func (r *bookResolver) Description() string { return r.b.Description }

type bookInput struct {
	Name        string
	Description string
}

// FindAllBooks resolves Query.findAllBooks.
func (r *Resolver) FindAllBooks(ctx context.Context) ([]*bookResolver, error) {
	books, err := r.books.List(ctx)
	if err != nil {
		return nil, r.toGraphQLError("findAllBooks", err)
	}
	out := make([]*bookResolver, 0, len(books))
	for _, b := range books {
		out = append(out, &bookResolver{b: b})
	}
	return out, nil
}

// FindOneBook resolves Query.findOneBook.
func (r *Resolver) FindOneBook(ctx context.Context, args struct{ ID float64 }) (*bookResolver, error) {
	id, err := bookID(args.ID)
	if err != nil {
		return nil, err
	}
	b, err := r.books.Get(ctx, id)
	if err != nil {
		return nil, r.toGraphQLError("findOneBook", err)
	}
	return &bookResolver{b: b}, nil
}

// CreateBook resolves Mutation.createBook.
func (r *Resolver) CreateBook(ctx context.Context, args struct{ Data bookInput }) (*bookResolver, error) {
	u, ok := middleware.UserFromContext(ctx)
	if !ok {
		return nil, errUnauthenticated()
	}
	b, err := r.books.Create(ctx, u, args.Data.Name, args.Data.Description)
	if err != nil {
		return nil, r.toGraphQLError("createBook", err)
	}
	r.log.Info("book created", zap.Int64("id", b.ID), zap.String("user", u.Subject))
	return &bookResolver{b: b}, nil
}

// UpdateBook resolves Mutation.updateBook.
func (r *Resolver) UpdateBook(ctx context.Context, args struct {
	ID   float64
	Data bookInput
}) (*bookResolver, error) {
	if _, ok := middleware.UserFromContext(ctx); !ok {
		return nil, errUnauthenticated()
	}
	id, err := bookID(args.ID)
	if err != nil {
		return nil, err
	}
	b, err := r.books.Update(ctx, id, args.Data.Name, args.Data.Description)
	if err != nil {
		return nil, r.toGraphQLError("updateBook", err)
	}
	return &bookResolver{b: b}, nil
}

// DeleteBook resolves Mutation.deleteBook. Deleting a missing book is not an
// error; it reports false.
func (r *Resolver) DeleteBook(ctx context.Context, args struct{ ID float64 }) (bool, error) {
	if _, ok := middleware.UserFromContext(ctx); !ok {
		return false, errUnauthenticated()
	}
	id, err := bookID(args.ID)
	if err != nil {
		return false, err
	}
	deleted, err := r.books.Delete(ctx, id)
	if err != nil {
		return false, r.toGraphQLError("deleteBook", err)
	}
	return deleted, nil
}

// DeleteAllBooks resolves Mutation.deleteAllBooks.
func (r *Resolver) DeleteAllBooks(ctx context.Context) (bool, error) {
	u, ok := middleware.UserFromContext(ctx)
	if !ok {
		return false, errUnauthenticated()
	}
	if err := r.books.DeleteAll(ctx); err != nil {
		return false, r.toGraphQLError("deleteAllBooks", err)
	}
	r.log.Info("all books deleted", zap.String("user", u.Subject))
	return true, nil
}

// RestoreBooks resolves Mutation.restoreBooks.
func (r *Resolver) RestoreBooks(ctx context.Context, args struct{ IDs []float64 }) ([]float64, error) {
	if _, ok := middleware.UserFromContext(ctx); !ok {
		return nil, errUnauthenticated()
	}
	ids := make([]int64, 0, len(args.IDs))
	for _, f := range args.IDs {
		id, err := bookID(f)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	restored, err := r.books.Restore(ctx, ids)
	if err != nil {
		return nil, r.toGraphQLError("restoreBooks", err)
	}
	out := make([]float64, 0, len(restored))
	for _, id := range restored {
		out = append(out, float64(id))
	}
	return out, nil
}

func bookID(f float64) (int64, error) {
	if f != math.Trunc(f) || f < 1 || f > maxSafeID {
		return 0, &codedError{msg: "invalid book id", code: CodeBadUserInput}
	}
	return int64(f), nil
}

func errUnauthenticated() error {
	return &codedError{msg: "Unauthorized", code: CodeUnauthenticated}
}

// toGraphQLError maps service errors to coded GraphQL errors. Unexpected
// errors are logged and hidden from the caller.
func (r *Resolver) toGraphQLError(op string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidBook):
		msg := strings.TrimPrefix(err.Error(), service.ErrInvalidBook.Error()+": ")
		return &codedError{msg: msg, code: CodeBadUserInput}
	case errors.Is(err, models.ErrBookNotFound):
		return &codedError{msg: "Book not found", code: CodeNotFound}
	case errors.Is(err, models.ErrUnknownUser), errors.Is(err, models.ErrUnauthenticated):
		return errUnauthenticated()
	default:
		r.log.Error("graphql operation failed", zap.String("op", op), zap.Error(err))
		return &codedError{msg: "internal error", code: CodeInternal}
	}
}
