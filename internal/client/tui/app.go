// Package tui is the full-screen dashboard of the catalog client.
//
// It follows the bubbletea architecture: Update runs on one goroutine and
// every request runs as a tea.Cmd whose result returns as a message. The
// catalog, form and session it drives are safe to call from those commands.
package tui

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/atinyakov/BookKeeper/internal/client/auth"
	"github.com/atinyakov/BookKeeper/internal/client/catalog"
	"github.com/atinyakov/BookKeeper/internal/client/form"
	"github.com/atinyakov/BookKeeper/internal/client/notify"
	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// appState is the screen the dashboard shows.
type appState int

const (
	stateBrowse  appState = iota // form, search and table
	stateConfirm                 // delete confirmation modal
)

// focus is the widget receiving keystrokes in stateBrowse.
type focus int

const (
	focusTable focus = iota
	focusSearch
	focusName
	focusDescription
	focusCount
)

// Session is the part of the auth session the dashboard uses.
type Session interface {
	IsAuthenticated() bool
	CurrentUser() *auth.User
	Logout() string
}

// AppOption customizes App construction for tests.
type AppOption func(*App)

// WithTickInterval sets how often a visible notice is checked for expiry.
// Zero disables ticking.
func WithTickInterval(d time.Duration) AppOption {
	return func(a *App) { a.tickEvery = d }
}

// LoginFunc runs the whole browser login. showURL receives the provider URL
// when it could not be opened automatically.
type LoginFunc func(ctx context.Context, showURL func(url string)) error

// WithLogin enables the login key.
func WithLogin(login LoginFunc) AppOption {
	return func(a *App) { a.login = login }
}

// WithOpener sets how the provider logout page is opened. Without one, or
// when it fails, the logout URL is shown in the status line.
func WithOpener(open auth.Opener) AppOption {
	return func(a *App) { a.open = open }
}

// App is the dashboard model.
type App struct {
	ctx     context.Context
	catalog *catalog.Catalog
	form    *form.Controller
	session Session
	board   *notify.Board
	login   LoginFunc
	open    auth.Opener

	state   appState
	focus   focus
	confirm *catalog.Confirmation

	search  textinput.Model
	name    textinput.Model
	desc    textarea.Model
	table   table.Model
	visible []models.Book

	loading   bool
	loggingIn bool
	status    string

	width  int
	height int

	now       func() time.Time
	tickEvery time.Duration
	ticking   bool
}

// NewApp returns a dashboard over the given core. ctx bounds every request.
func NewApp(ctx context.Context, cat *catalog.Catalog, ctrl *form.Controller, session Session, board *notify.Board, opts ...AppOption) *App {
	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "book name"

	name := textinput.New()
	name.Prompt = ""
	name.Placeholder = "Name"

	desc := textarea.New()
	desc.Placeholder = "Description"
	desc.ShowLineNumbers = false
	desc.CharLimit = 0
	desc.SetHeight(3)
	desc.SetWidth(48)

	search.Cursor.SetMode(cursor.CursorStatic)
	name.Cursor.SetMode(cursor.CursorStatic)
	desc.Cursor.SetMode(cursor.CursorStatic)

	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Name", Width: 22},
			{Title: "Description", Width: 48},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	a := &App{
		ctx:       ctx,
		catalog:   cat,
		form:      ctrl,
		session:   session,
		board:     board,
		search:    search,
		name:      name,
		desc:      desc,
		table:     tbl,
		now:       time.Now,
		tickEvery: time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init loads the catalog.
func (a *App) Init() tea.Cmd {
	a.loading = true
	return a.refreshCmd()
}

// Update handles one message.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, nil

	case listLoadedMsg:
		a.loading = false
		a.syncTable()
		return a, a.afterResult()

	case recordLoadedMsg:
		if msg.err == nil {
			a.syncInputs()
		}
		return a, a.afterResult()

	case submittedMsg:
		if errors.Is(msg.err, form.ErrCannotSubmit) {
			return a, nil
		}
		a.syncInputs()
		a.syncTable()
		if msg.err == nil {
			a.status = "Saved"
		}
		return a, a.afterResult()

	case deletedMsg:
		a.syncTable()
		if msg.err == nil {
			a.status = "Deleted"
		}
		return a, a.afterResult()

	case loginURLMsg:
		if a.loggingIn {
			a.status = "Open this URL to log in: " + string(msg)
		}
		return a, nil

	case loginDoneMsg:
		a.loggingIn = false
		if msg.err != nil {
			a.status = "Login failed"
			return a, nil
		}
		a.status = ""
		return a, a.refreshCmd()

	case tickMsg:
		a.ticking = false
		return a, a.afterResult()

	case tea.KeyMsg:
		if a.state == stateConfirm {
			return a.updateConfirm(msg)
		}
		return a.updateBrowse(msg)
	}
	return a, nil
}

func (a *App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		conf := a.confirm
		a.confirm = nil
		a.state = stateBrowse
		return a, func() tea.Msg {
			return deletedMsg{err: conf.Confirm(a.ctx)}
		}
	case "n", "N", "esc":
		a.confirm = nil
		a.state = stateBrowse
		a.status = "Cancelled"
	case "ctrl+c":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "tab":
		return a, a.setFocus((a.focus + 1) % focusCount)
	case "shift+tab":
		return a, a.setFocus((a.focus + focusCount - 1) % focusCount)
	case "ctrl+s":
		return a, a.submitCmd()
	case "esc":
		a.form.Cancel()
		a.syncInputs()
		a.status = ""
		return a, a.setFocus(focusTable)
	}

	switch a.focus {
	case focusSearch:
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		if a.search.Value() != a.catalog.State().Query() {
			a.catalog.State().SetSearchQuery(a.search.Value())
			a.syncTable()
		}
		return a, cmd
	case focusName:
		var cmd tea.Cmd
		a.name, cmd = a.name.Update(msg)
		if a.name.Value() != a.form.Form().View().Name {
			a.form.Form().SetName(a.name.Value())
		}
		return a, cmd
	case focusDescription:
		var cmd tea.Cmd
		a.desc, cmd = a.desc.Update(msg)
		if a.desc.Value() != a.form.Form().View().Description {
			a.form.Form().SetDescription(a.desc.Value())
		}
		return a, cmd
	}
	return a.updateTable(msg)
}

func (a *App) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "r":
		a.loading = true
		return a, a.refreshCmd()
	case "e":
		return a, a.editSelected()
	case "d":
		a.requestDelete()
		return a, nil
	case "D":
		a.requestDeleteAll()
		return a, nil
	case "l":
		return a, a.loginCmd()
	case "o":
		a.logout()
		return a, nil
	}
	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

func (a *App) setFocus(f focus) tea.Cmd {
	a.focus = f
	a.search.Blur()
	a.name.Blur()
	a.desc.Blur()
	a.table.Blur()
	switch f {
	case focusSearch:
		return a.search.Focus()
	case focusName:
		return a.name.Focus()
	case focusDescription:
		return a.desc.Focus()
	default:
		a.table.Focus()
	}
	return nil
}

func (a *App) selected() (models.Book, bool) {
	i := a.table.Cursor()
	if i < 0 || i >= len(a.visible) {
		return models.Book{}, false
	}
	return a.visible[i], true
}

// logout clears the local session and ends the provider session by opening
// its logout page.
func (a *App) logout() {
	if !a.session.IsAuthenticated() {
		return
	}
	url := a.session.Logout()
	if a.open != nil && a.open(url) == nil {
		a.status = "Logged out"
		return
	}
	a.status = "Logged out. To end the provider session, open: " + url
}

// canModify mirrors the dashboard rule that edit and delete need a login.
func (a *App) canModify() bool {
	if a.session.IsAuthenticated() {
		return true
	}
	a.status = "Log in to edit or delete books"
	return false
}

func (a *App) editSelected() tea.Cmd {
	b, ok := a.selected()
	if !ok || !a.canModify() {
		return nil
	}
	a.form.Form().EnableEdit(b.ID)
	a.status = "Editing " + strconv.FormatInt(b.ID, 10)
	focusCmd := a.setFocus(focusName)
	return tea.Batch(focusCmd, a.loadCmd(b.ID))
}

func (a *App) requestDelete() {
	b, ok := a.selected()
	if !ok || !a.canModify() || a.catalog.Deleting() {
		return
	}
	conf, err := a.catalog.RequestDelete(b.ID)
	if err != nil {
		a.status = err.Error()
		return
	}
	a.confirm = conf
	a.state = stateConfirm
}

func (a *App) requestDeleteAll() {
	if !a.canModify() || a.catalog.DeletingAll() {
		return
	}
	conf, err := a.catalog.RequestDeleteAll()
	if err != nil {
		a.status = err.Error()
		return
	}
	a.confirm = conf
	a.state = stateConfirm
}

// syncTable rebuilds the table rows from the filtered view.
func (a *App) syncTable() {
	a.visible = a.catalog.State().Filtered()
	rows := make([]table.Row, 0, len(a.visible))
	for _, b := range a.visible {
		rows = append(rows, table.Row{strconv.FormatInt(b.ID, 10), b.Name, b.Description})
	}
	a.table.SetRows(rows)
	if a.table.Cursor() >= len(rows) && len(rows) > 0 {
		a.table.SetCursor(len(rows) - 1)
	}
}

// syncInputs copies the form fields into the input widgets.
func (a *App) syncInputs() {
	v := a.form.Form().View()
	a.name.SetValue(v.Name)
	a.desc.SetValue(v.Description)
}

// afterResult starts the notice expiry tick when a notice is showing.
func (a *App) afterResult() tea.Cmd {
	if a.board == nil || a.ticking || a.tickEvery <= 0 {
		return nil
	}
	if _, ok := a.board.Current(a.now()); !ok {
		return nil
	}
	a.ticking = true
	return tea.Tick(a.tickEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}
