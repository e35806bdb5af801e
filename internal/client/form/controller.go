package form

import (
	"context"

	"github.com/atinyakov/BookKeeper/internal/client/api"
	"github.com/atinyakov/BookKeeper/internal/models"
)

// Gateway is the subset of the API the form issues.
type Gateway interface {
	GetRecord(ctx context.Context, id int64) (models.Book, error)
	CreateRecord(ctx context.Context, name, description string) (models.Book, error)
	UpdateRecord(ctx context.Context, id int64, name, description string) (models.Book, error)
}

// Invalidator refetches the catalog after a successful mutation.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Reporter receives failed operations.
type Reporter interface {
	Report(op string, err error) api.Class
}

// Controller drives a Form against the API.
type Controller struct {
	form     *Form
	api      Gateway
	catalog  Invalidator
	reporter Reporter
}

// NewController returns a Controller. reporter may be nil.
func NewController(f *Form, gw Gateway, catalog Invalidator, reporter Reporter) *Controller {
	return &Controller{form: f, api: gw, catalog: catalog, reporter: reporter}
}

// Form returns the controlled form.
func (c *Controller) Form() *Form { return c.form }

// Submit creates or updates depending on the mode. On success the form is
// cleared and the catalog invalidated; on failure the input is kept and the
// error reported. ErrCannotSubmit is returned without issuing a request.
// The result describes the mutation only: a failed refetch afterwards goes
// to the reporter through the catalog and Submit still returns nil.
func (c *Controller) Submit(ctx context.Context) error {
	sub, err := c.form.BeginSubmit()
	if err != nil {
		return err
	}

	op := api.OpCreateRecord
	if id, editing := sub.Mode.Target(); editing {
		op = api.OpUpdateRecord
		_, err = c.api.UpdateRecord(ctx, id, sub.Name, sub.Description)
	} else {
		_, err = c.api.CreateRecord(ctx, sub.Name, sub.Description)
	}
	c.form.FinishSubmit(err)
	if err != nil {
		c.report(op, err)
		return err
	}
	_ = c.catalog.Invalidate(ctx)
	return nil
}

// EnableEdit switches the form to Edit(id) and loads the record.
func (c *Controller) EnableEdit(ctx context.Context, id int64) error {
	c.form.EnableEdit(id)
	return c.Load(ctx, id)
}

// Load fetches book id and populates the form if it is still editing id.
func (c *Controller) Load(ctx context.Context, id int64) error {
	b, err := c.api.GetRecord(ctx, id)
	if err != nil {
		c.report(api.OpGetRecord, err)
		return err
	}
	c.form.ApplyFetched(id, b)
	return nil
}

// Cancel discards the input and returns to Create mode.
func (c *Controller) Cancel() {
	c.form.Cancel()
}

func (c *Controller) report(op string, err error) {
	if c.reporter != nil {
		c.reporter.Report(op, err)
	}
}
