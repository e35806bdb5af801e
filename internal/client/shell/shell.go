// Package shell is the interactive line front-end of the catalog client.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/BookKeeper/internal/client/auth"
	"github.com/atinyakov/BookKeeper/internal/client/catalog"
	"github.com/atinyakov/BookKeeper/internal/client/form"
	"github.com/atinyakov/BookKeeper/internal/client/notify"
	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const helpText = "Available commands: help, list, search <text>, add, edit <id>, delete <id>, delete-all, login, logout, whoami, exit"

// Session is the part of the auth session the shell uses.
type Session interface {
	IsAuthenticated() bool
	CurrentUser() *auth.User
	Logout() string
}

// Config wires a Shell.
type Config struct {
	In      io.Reader
	Out     io.Writer
	Catalog *catalog.Catalog
	Form    *form.Controller
	Session Session
	Board   *notify.Board
	// Login runs the browser login; nil disables the login command.
	Login func(ctx context.Context) error
}

// Shell reads commands line by line and drives the catalog core.
type Shell struct {
	in      *bufio.Scanner
	out     io.Writer
	catalog *catalog.Catalog
	form    *form.Controller
	session Session
	board   *notify.Board
	login   func(ctx context.Context) error
	now     func() time.Time
}

// New returns a Shell for cfg.
func New(cfg Config) *Shell {
	return &Shell{
		in:      bufio.NewScanner(cfg.In),
		out:     cfg.Out,
		catalog: cfg.Catalog,
		form:    cfg.Form,
		session: cfg.Session,
		board:   cfg.Board,
		login:   cfg.Login,
		now:     time.Now,
	}
}

// Run loads the catalog and serves commands until exit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	s.welcome()
	_ = s.catalog.Refresh(ctx)
	s.flushNotices()

	for {
		line, ok := s.readLine("bookkeeper> ")
		if !ok {
			return nil
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(s.out, "Bye")
			return nil
		}
		s.dispatch(ctx, args)
		s.flushNotices()
	}
}

func (s *Shell) dispatch(ctx context.Context, args []string) {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "list":
		s.catalog.State().SetSearchQuery("")
		if err := s.catalog.Refresh(ctx); err != nil {
			fmt.Fprintln(s.out, "Could not refresh, showing the last known list")
		}
		s.printBooks(s.catalog.State().Filtered())
	case "search":
		s.catalog.State().SetSearchQuery(strings.Join(args[1:], " "))
		s.printBooks(s.catalog.State().Filtered())
	case "add":
		s.add(ctx)
	case "edit":
		s.edit(ctx, args)
	case "delete":
		s.delete(ctx, args)
	case "delete-all":
		s.deleteAll(ctx)
	case "login":
		s.doLogin(ctx)
	case "logout":
		url := s.session.Logout()
		fmt.Fprintln(s.out, "Logged out")
		fmt.Fprintln(s.out, "To end the provider session, open:", url)
	case "whoami":
		s.welcome()
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
}

func (s *Shell) add(ctx context.Context) {
	s.form.Cancel()
	if !s.promptForBook(s.form.Form()) {
		return
	}
	s.submit(ctx, "Book added")
}

func (s *Shell) edit(ctx context.Context, args []string) {
	id, ok := s.requireID(args)
	if !ok || !s.requireLogin("edit") {
		return
	}
	if err := s.form.EnableEdit(ctx, id); err != nil {
		fmt.Fprintln(s.out, "Book not loaded")
		s.form.Cancel()
		return
	}
	if !s.promptForBook(s.form.Form()) {
		return
	}
	s.submit(ctx, "Book updated")
}

// submit sends the form. After a failed request the input is still in the
// form, so the user may resend it unchanged.
func (s *Shell) submit(ctx context.Context, done string) {
	for {
		err := s.form.Submit(ctx)
		switch {
		case err == nil:
			fmt.Fprintln(s.out, done)
			return
		case errors.Is(err, form.ErrCannotSubmit):
			fmt.Fprintln(s.out, "Nothing saved")
			s.form.Cancel()
			return
		}
		fmt.Fprintln(s.out, s.form.Form().View().SubmitError)
		s.flushNotices()
		if !s.confirm("Retry with the same values?") {
			fmt.Fprintln(s.out, "Nothing saved")
			s.form.Cancel()
			return
		}
	}
}

func (s *Shell) delete(ctx context.Context, args []string) {
	id, ok := s.requireID(args)
	if !ok || !s.requireLogin("delete") {
		return
	}
	conf, err := s.catalog.RequestDelete(id)
	if err != nil {
		fmt.Fprintln(s.out, "Book not found")
		return
	}
	s.runConfirmation(ctx, conf, "Book deleted")
}

func (s *Shell) deleteAll(ctx context.Context) {
	if !s.requireLogin("delete") {
		return
	}
	conf, err := s.catalog.RequestDeleteAll()
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	s.runConfirmation(ctx, conf, "All books deleted")
}

func (s *Shell) runConfirmation(ctx context.Context, conf *catalog.Confirmation, done string) {
	if !s.confirm(conf.Prompt) {
		fmt.Fprintln(s.out, "Cancelled")
		return
	}
	if err := conf.Confirm(ctx); err != nil {
		fmt.Fprintln(s.out, "Delete failed")
		return
	}
	fmt.Fprintln(s.out, done)
}

func (s *Shell) doLogin(ctx context.Context) {
	if s.login == nil {
		fmt.Fprintln(s.out, "Login is not configured")
		return
	}
	if err := s.login(ctx); err != nil {
		fmt.Fprintln(s.out, "Login failed:", err)
		return
	}
	s.welcome()
}

func (s *Shell) welcome() {
	if !s.session.IsAuthenticated() {
		fmt.Fprintln(s.out, "Not logged in. Type 'login' to sign in.")
		return
	}
	if u := s.session.CurrentUser(); u != nil {
		fmt.Fprintf(s.out, "Welcome, %s\n", u.DisplayName())
		return
	}
	fmt.Fprintln(s.out, "Welcome")
}

func (s *Shell) requireID(args []string) (int64, bool) {
	if len(args) < 2 {
		fmt.Fprintf(s.out, "Usage: %s <id>\n", args[0])
		return 0, false
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid id %q\n", args[1])
		return 0, false
	}
	return id, true
}

func (s *Shell) requireLogin(action string) bool {
	if s.session.IsAuthenticated() {
		return true
	}
	fmt.Fprintf(s.out, "Log in to %s books\n", action)
	return false
}

func (s *Shell) flushNotices() {
	if s.board == nil {
		return
	}
	if n, ok := s.board.Current(s.now()); ok {
		fmt.Fprintf(s.out, "[%s] %s\n", n.Kind, n.Title)
		s.board.Dismiss()
	}
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func (s *Shell) printBooks(books []models.Book) {
	if len(books) == 0 {
		fmt.Fprintln(s.out, "No books")
		return
	}
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{strconv.FormatInt(b.ID, 10), b.Name, b.Description})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(s.out, t.Render())
}
