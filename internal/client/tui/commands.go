package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type listLoadedMsg struct{ err error }

type recordLoadedMsg struct {
	id  int64
	err error
}

type submittedMsg struct{ err error }

type deletedMsg struct{ err error }

type loginDoneMsg struct{ err error }

type loginURLMsg string

type tickMsg time.Time

func (a *App) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return listLoadedMsg{err: a.catalog.Refresh(a.ctx)}
	}
}

func (a *App) loadCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		return recordLoadedMsg{id: id, err: a.form.Load(a.ctx, id)}
	}
}

func (a *App) submitCmd() tea.Cmd {
	if !a.form.Form().CanSubmit() {
		return nil
	}
	return func() tea.Msg {
		return submittedMsg{err: a.form.Submit(a.ctx)}
	}
}

func (a *App) loginCmd() tea.Cmd {
	if a.login == nil || a.loggingIn || a.session.IsAuthenticated() {
		return nil
	}
	a.loggingIn = true
	a.status = "Waiting for the browser login"

	urls := make(chan string, 1)
	done := make(chan struct{})
	run := func() tea.Msg {
		err := a.login(a.ctx, func(url string) {
			select {
			case urls <- url:
			default:
			}
		})
		close(done)
		return loginDoneMsg{err: err}
	}
	// showURL surfaces the manual login URL while run is still waiting for
	// the browser redirect.
	showURL := func() tea.Msg {
		select {
		case url := <-urls:
			return loginURLMsg(url)
		case <-done:
			select {
			case url := <-urls:
				return loginURLMsg(url)
			default:
				return nil
			}
		}
	}
	return tea.Batch(run, showURL)
}
