package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle    = lipgloss.NewStyle().Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	modalStyle    = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).Padding(1, 2).
			BorderForeground(lipgloss.Color("205"))
	toastStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("160")).Padding(0, 1).Bold(true)
)

// View renders the dashboard.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.headerView())
	b.WriteString("\n")
	if n, ok := a.noticeView(); ok {
		b.WriteString(n)
		b.WriteString("\n")
	}
	b.WriteString(a.formView())
	b.WriteString("\n")
	b.WriteString(a.search.View())
	b.WriteString("\n")
	if a.loading {
		b.WriteString(statusStyle.Render("Loading books..."))
		b.WriteString("\n")
	}
	b.WriteString(a.table.View())
	b.WriteString("\n")
	if a.state == stateConfirm && a.confirm != nil {
		b.WriteString(modalStyle.Render(a.confirm.Prompt + "\n\n[y] yes   [n] no"))
		b.WriteString("\n")
	}
	if a.status != "" {
		b.WriteString(statusStyle.Render(a.status))
		b.WriteString("\n")
	}
	b.WriteString(a.footerView())
	return b.String()
}

func (a *App) headerView() string {
	title := titleStyle.Render("Books")
	switch {
	case a.loggingIn:
		return title + "  " + statusStyle.Render("logging in...")
	case a.session.IsAuthenticated():
		if u := a.session.CurrentUser(); u != nil {
			return title + "  Welcome " + u.DisplayName()
		}
		return title + "  Welcome"
	default:
		return title + "  " + disabledStyle.Render("Not logged in, press l to log in")
	}
}

func (a *App) noticeView() (string, bool) {
	if a.board == nil {
		return "", false
	}
	n, ok := a.board.Current(a.now())
	if !ok {
		return "", false
	}
	return toastStyle.Render(n.Title), true
}

func (a *App) formView() string {
	v := a.form.Form().View()

	heading := "New book"
	if id, editing := v.Mode.Target(); editing {
		heading = "Edit book #" + strconv.FormatInt(id, 10)
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(heading))
	b.WriteString("\n")
	b.WriteString("Name: " + a.name.View())
	b.WriteString("\n")
	if v.NameError != "" {
		b.WriteString(errorStyle.Render(v.NameError))
		b.WriteString("\n")
	}
	b.WriteString(a.desc.View())
	b.WriteString("\n")
	if v.DescriptionError != "" {
		b.WriteString(errorStyle.Render(v.DescriptionError))
		b.WriteString("\n")
	}
	if v.SubmitError != "" {
		b.WriteString(errorStyle.Render(v.SubmitError))
		b.WriteString("\n")
	}

	submit := "[ctrl+s] Submit"
	if v.InFlight {
		submit = "Saving..."
	}
	if !v.CanSubmit {
		submit = disabledStyle.Render(submit)
	}
	b.WriteString(submit)
	return panelStyle.Render(b.String())
}

func (a *App) footerView() string {
	modify := a.session.IsAuthenticated()
	keys := []string{
		"tab focus",
		keyHint("e edit", modify),
		keyHint("d delete", modify && !a.catalog.Deleting()),
		keyHint("D delete all", modify && !a.catalog.DeletingAll()),
		"r refresh",
		"esc cancel",
	}
	if modify {
		keys = append(keys, "o logout")
	} else {
		keys = append(keys, keyHint("l login", a.login != nil))
	}
	keys = append(keys, "q quit")
	return strings.Join(keys, " · ")
}

func keyHint(s string, enabled bool) string {
	if enabled {
		return s
	}
	return disabledStyle.Render(s)
}
