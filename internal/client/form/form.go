// Package form implements the single create/edit form bound to one book.
//
// The form is either in Create mode or in Edit mode for a target id. Each
// field is validated on every change, independently of the other and of the
// mode. Submission is allowed only when both fields are filled, neither has
// an error and no create or update is in flight.
package form

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/atinyakov/BookKeeper/internal/models"
)

// User-visible messages.
var (
	NameErrorMessage = fmt.Sprintf("Name must be between %d and %d characters",
		models.NameMinLen, models.NameMaxLen)
	DescriptionErrorMessage = fmt.Sprintf("Description must be between %d and %d characters",
		models.DescriptionMinLen, models.DescriptionMaxLen)
)

// SubmitFailedMessage is shown inline after a failed create or update.
const SubmitFailedMessage = "Something went wrong !"

// ErrCannotSubmit is returned by BeginSubmit when submission is blocked.
var ErrCannotSubmit = errors.New("form cannot be submitted")

// Mode is Create or Edit(id).
type Mode struct {
	editing bool
	id      int64
}

// CreateMode is the mode of a fresh form.
func CreateMode() Mode { return Mode{} }

// EditMode is the mode editing book id.
func EditMode(id int64) Mode { return Mode{editing: true, id: id} }

// Target returns the edited id and true in Edit mode.
func (m Mode) Target() (int64, bool) { return m.id, m.editing }

func (m Mode) String() string {
	if m.editing {
		return fmt.Sprintf("edit(%d)", m.id)
	}
	return "create"
}

// ValidateName returns the name error for v, or "".
func ValidateName(v string) string {
	return validateLen(v, models.NameMinLen, models.NameMaxLen, NameErrorMessage)
}

// ValidateDescription returns the description error for v, or "".
func ValidateDescription(v string) string {
	return validateLen(v, models.DescriptionMinLen, models.DescriptionMaxLen, DescriptionErrorMessage)
}

func validateLen(v string, lo, hi int, msg string) string {
	if n := utf8.RuneCountInString(v); n < lo || n > hi {
		return msg
	}
	return ""
}

// View is a consistent copy of the form for rendering.
type View struct {
	Mode             Mode
	Name             string
	Description      string
	NameError        string
	DescriptionError string
	InFlight         bool
	SubmitError      string
	CanSubmit        bool
}

// Submission is what BeginSubmit captured: the request to issue.
type Submission struct {
	Mode        Mode
	Name        string
	Description string
}

// Form holds the state of the single form instance.
type Form struct {
	mu               sync.Mutex
	mode             Mode
	name             string
	description      string
	nameError        string
	descriptionError string
	inFlight         bool
	submitError      string
}

// New returns an empty form in Create mode.
func New() *Form {
	return &Form{}
}

// SetName updates the name and revalidates it.
func (f *Form) SetName(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = v
	f.nameError = ValidateName(v)
}

// SetDescription updates the description and revalidates it.
func (f *Form) SetDescription(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.description = v
	f.descriptionError = ValidateDescription(v)
}

// EnableEdit switches to Edit(id). The fields keep their current values until
// ApplyFetched delivers the record.
func (f *Form) EnableEdit(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = EditMode(id)
	f.submitError = ""
}

// ApplyFetched populates the fields from b, the result of fetching id. The
// result is dropped, and false returned, if the form is no longer Edit(id).
func (f *Form) ApplyFetched(id int64, b models.Book) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode != EditMode(id) {
		return false
	}
	f.name, f.nameError = b.Name, ValidateName(b.Name)
	f.description, f.descriptionError = b.Description, ValidateDescription(b.Description)
	return true
}

// Cancel returns to Create mode and discards all input.
func (f *Form) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

// Mode returns the current mode.
func (f *Form) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// CanSubmit reports whether a submission may be issued now.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canSubmit()
}

// View returns a copy of the form.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View{
		Mode:             f.mode,
		Name:             f.name,
		Description:      f.description,
		NameError:        f.nameError,
		DescriptionError: f.descriptionError,
		InFlight:         f.inFlight,
		SubmitError:      f.submitError,
		CanSubmit:        f.canSubmit(),
	}
}

// BeginSubmit marks a create or update as in flight and returns what to send.
func (f *Form) BeginSubmit() (Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.canSubmit() {
		return Submission{}, ErrCannotSubmit
	}
	f.inFlight = true
	f.submitError = ""
	return Submission{Mode: f.mode, Name: f.name, Description: f.description}, nil
}

// FinishSubmit records the outcome of the submission started by BeginSubmit.
// Success returns the form to Create mode with every field and error cleared;
// failure keeps the input and sets SubmitFailedMessage.
func (f *Form) FinishSubmit(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if err != nil {
		f.submitError = SubmitFailedMessage
		return
	}
	f.reset()
}

func (f *Form) canSubmit() bool {
	return f.name != "" && f.description != "" &&
		f.nameError == "" && f.descriptionError == "" &&
		!f.inFlight
}

func (f *Form) reset() {
	f.mode = CreateMode()
	f.name, f.description = "", ""
	f.nameError, f.descriptionError = "", ""
	f.submitError = ""
}
