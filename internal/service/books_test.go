package service_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/atinyakov/BookKeeper/internal/service"
)

type mockRepo struct {
	ListBooksFunc      func(ctx context.Context) ([]models.Book, error)
	GetBookFunc        func(ctx context.Context, id int64) (models.Book, error)
	CreateBookFunc     func(ctx context.Context, name, description, createdBy string) (models.Book, error)
	UpdateBookFunc     func(ctx context.Context, id int64, name, description string) (models.Book, error)
	DeleteBookFunc     func(ctx context.Context, id int64) (bool, error)
	DeleteAllBooksFunc func(ctx context.Context) (int64, error)
	RestoreBooksFunc   func(ctx context.Context, ids []int64) ([]int64, error)
}

func (m *mockRepo) ListBooks(ctx context.Context) ([]models.Book, error) {
	return m.ListBooksFunc(ctx)
}
func (m *mockRepo) GetBook(ctx context.Context, id int64) (models.Book, error) {
	return m.GetBookFunc(ctx, id)
}
func (m *mockRepo) CreateBook(ctx context.Context, name, description, createdBy string) (models.Book, error) {
	return m.CreateBookFunc(ctx, name, description, createdBy)
}
func (m *mockRepo) UpdateBook(ctx context.Context, id int64, name, description string) (models.Book, error) {
	return m.UpdateBookFunc(ctx, id, name, description)
}
func (m *mockRepo) DeleteBook(ctx context.Context, id int64) (bool, error) {
	return m.DeleteBookFunc(ctx, id)
}
func (m *mockRepo) DeleteAllBooks(ctx context.Context) (int64, error) {
	return m.DeleteAllBooksFunc(ctx)
}
func (m *mockRepo) RestoreBooks(ctx context.Context, ids []int64) ([]int64, error) {
	return m.RestoreBooksFunc(ctx, ids)
}

func TestValidateBook(t *testing.T) {
	tests := []struct {
		name        string
		bookName    string
		description string
		wantMsg     string
	}{
		{"valid", "Emma", "Austen", ""},
		{"name too short", "Ab", "A fine book", "Name must be between 3 and 20 characters"},
		{"name too long", strings.Repeat("x", 21), "A fine book", "Name must be between 3 and 20 characters"},
		{"name counted in characters", "Żółw", "desc", ""},
		{"description too short", "Emma", "ok", "Description must be between 3 and 100 characters"},
		{"description too long", "Emma", strings.Repeat("d", 101), "Description must be between 3 and 100 characters"},
		{"bounds inclusive", strings.Repeat("n", 20), strings.Repeat("d", 100), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidateBook(tt.bookName, tt.description)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("ValidateBook() = %v; want nil", err)
				}
				return
			}
			if !errors.Is(err, service.ErrInvalidBook) {
				t.Fatalf("ValidateBook() = %v; want ErrInvalidBook", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("ValidateBook() = %q; want message %q", err, tt.wantMsg)
			}
		})
	}
}

func TestList(t *testing.T) {
	want := []models.Book{{ID: 1, Name: "Dune", Description: "Arrakis"}}
	svc := service.NewBookService(&mockRepo{
		ListBooksFunc: func(context.Context) ([]models.Book, error) { return want, nil },
	})

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %+v; want %+v", got, want)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := service.NewBookService(&mockRepo{
		GetBookFunc: func(context.Context, int64) (models.Book, error) {
			return models.Book{}, models.ErrBookNotFound
		},
	})

	_, err := svc.Get(context.Background(), 9)
	if !errors.Is(err, models.ErrBookNotFound) {
		t.Fatalf("Get error = %v; want ErrBookNotFound", err)
	}
}

func TestCreate(t *testing.T) {
	var gotCreator string
	svc := service.NewBookService(&mockRepo{
		CreateBookFunc: func(_ context.Context, name, description, createdBy string) (models.Book, error) {
			gotCreator = createdBy
			return models.Book{ID: 3, Name: name, Description: description}, nil
		},
	})

	b, err := svc.Create(context.Background(), models.User{Subject: "auth0|1"}, "Emma", "Austen")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if b.ID != 3 || gotCreator != "auth0|1" {
		t.Errorf("Create = %+v by %q", b, gotCreator)
	}
}

func TestCreate_InvalidSkipsRepository(t *testing.T) {
	svc := service.NewBookService(&mockRepo{
		CreateBookFunc: func(context.Context, string, string, string) (models.Book, error) {
			t.Fatal("repository must not be called for an invalid book")
			return models.Book{}, nil
		},
	})

	_, err := svc.Create(context.Background(), models.User{Subject: "s"}, "Ab", "A fine book")
	if !errors.Is(err, service.ErrInvalidBook) {
		t.Fatalf("Create error = %v; want ErrInvalidBook", err)
	}
}

func TestUpdate(t *testing.T) {
	t.Run("invalid", func(t *testing.T) {
		svc := service.NewBookService(&mockRepo{})
		_, err := svc.Update(context.Background(), 1, "Emma", "")
		if !errors.Is(err, service.ErrInvalidBook) {
			t.Fatalf("Update error = %v; want ErrInvalidBook", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := service.NewBookService(&mockRepo{
			UpdateBookFunc: func(context.Context, int64, string, string) (models.Book, error) {
				return models.Book{}, models.ErrBookNotFound
			},
		})
		_, err := svc.Update(context.Background(), 1, "Emma", "Austen")
		if !errors.Is(err, models.ErrBookNotFound) {
			t.Fatalf("Update error = %v; want ErrBookNotFound", err)
		}
	})
}

func TestDeleteAll_Error(t *testing.T) {
	wantErr := errors.New("db down")
	svc := service.NewBookService(&mockRepo{
		DeleteAllBooksFunc: func(context.Context) (int64, error) { return 0, wantErr },
	})

	if err := svc.DeleteAll(context.Background()); err != wantErr {
		t.Fatalf("DeleteAll error = %v; want %v", err, wantErr)
	}
}

func TestRestore(t *testing.T) {
	calls := 0
	svc := service.NewBookService(&mockRepo{
		RestoreBooksFunc: func(_ context.Context, ids []int64) ([]int64, error) {
			calls++
			return ids[:1], nil
		},
	})

	got, err := svc.Restore(context.Background(), nil)
	if err != nil || len(got) != 0 || calls != 0 {
		t.Fatalf("Restore(nil) = %v, %v after %d calls", got, err, calls)
	}

	got, err = svc.Restore(context.Background(), []int64{4, 5})
	if err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if !reflect.DeepEqual(got, []int64{4}) {
		t.Errorf("Restore = %v; want [4]", got)
	}
}
