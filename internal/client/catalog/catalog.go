package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/atinyakov/BookKeeper/internal/client/api"
	"github.com/atinyakov/BookKeeper/internal/models"
)

var (
	// ErrNotInCatalog is returned by RequestDelete for an id missing from the snapshot.
	ErrNotInCatalog = errors.New("book is not in the catalog")
	// ErrBusy is returned when the same kind of delete is already in flight.
	ErrBusy = errors.New("a delete is already in progress")
	// ErrAlreadyConfirmed is returned by a second Confirm on the same Confirmation.
	ErrAlreadyConfirmed = errors.New("confirmation already used")
)

// Gateway is the subset of the API the catalog issues.
type Gateway interface {
	ListRecords(ctx context.Context) ([]models.Book, error)
	DeleteRecord(ctx context.Context, id int64) error
	DeleteAllRecords(ctx context.Context) error
}

// Reporter receives failed operations.
type Reporter interface {
	Report(op string, err error) api.Class
}

// Catalog keeps State in step with the server. After any successful
// mutation, callers invoke Invalidate and the snapshot is refetched in full.
type Catalog struct {
	api      Gateway
	state    *State
	reporter Reporter

	deleting    atomic.Int32
	deletingAll atomic.Bool
}

// New returns a Catalog over state. reporter may be nil.
func New(gw Gateway, state *State, reporter Reporter) *Catalog {
	if state == nil {
		state = NewState()
	}
	return &Catalog{api: gw, state: state, reporter: reporter}
}

// State returns the underlying state.
func (c *Catalog) State() *State { return c.state }

// Refresh fetches the list and replaces the snapshot. On failure the error
// is reported and the snapshot is left as it was.
func (c *Catalog) Refresh(ctx context.Context) error {
	books, err := c.api.ListRecords(ctx)
	if err != nil {
		c.report(api.OpListRecords, err)
		return err
	}
	c.state.OnListResult(books)
	return nil
}

// Invalidate discards the current snapshot's authority and refetches it.
// It is called after every successful create, update, delete and delete-all.
func (c *Catalog) Invalidate(ctx context.Context) error {
	return c.Refresh(ctx)
}

// Deleting reports whether a single delete is in flight.
func (c *Catalog) Deleting() bool { return c.deleting.Load() > 0 }

// DeletingAll reports whether a delete-all is in flight.
func (c *Catalog) DeletingAll() bool { return c.deletingAll.Load() }

// Confirmation is a pending destructive operation. Dropping it without
// calling Confirm cancels the operation with no side effects.
type Confirmation struct {
	// Prompt is the question to put to the user.
	Prompt string

	once sync.Once
	run  func(ctx context.Context) error
}

// Confirm issues the pending operation. It may be called once. The error
// is the delete's own; a failed refetch afterwards is only reported.
func (c *Confirmation) Confirm(ctx context.Context) error {
	err := ErrAlreadyConfirmed
	c.once.Do(func() {
		err = c.run(ctx)
	})
	return err
}

// RequestDelete prepares the deletion of book id.
func (c *Catalog) RequestDelete(id int64) (*Confirmation, error) {
	if c.Deleting() {
		return nil, ErrBusy
	}
	book, ok := c.state.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotInCatalog, id)
	}
	return &Confirmation{
		Prompt: fmt.Sprintf("Are you sure you want to delete %s book ?", book.Name),
		run: func(ctx context.Context) error {
			c.deleting.Add(1)
			err := c.api.DeleteRecord(ctx, id)
			c.deleting.Add(-1)
			if err != nil {
				c.report(api.OpDeleteRecord, err)
				return err
			}
			_ = c.Invalidate(ctx)
			return nil
		},
	}, nil
}

// RequestDeleteAll prepares the deletion of every book.
func (c *Catalog) RequestDeleteAll() (*Confirmation, error) {
	if c.DeletingAll() {
		return nil, ErrBusy
	}
	return &Confirmation{
		Prompt: "Are you sure you want to delete all books?",
		run: func(ctx context.Context) error {
			if !c.deletingAll.CompareAndSwap(false, true) {
				return ErrBusy
			}
			err := c.api.DeleteAllRecords(ctx)
			c.deletingAll.Store(false)
			if err != nil {
				c.report(api.OpDeleteAllRecords, err)
				return err
			}
			_ = c.Invalidate(ctx)
			return nil
		},
	}, nil
}

func (c *Catalog) report(op string, err error) {
	if c.reporter != nil {
		c.reporter.Report(op, err)
	}
}
