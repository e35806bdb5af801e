package auth

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Opener opens a URL for the user, normally in a browser.
type Opener func(url string) error

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// LoginWithBrowser runs both login phases: it opens the provider URL, waits
// for the redirect on cb and completes the login. When open fails the URL is
// passed to notify so the user can open it by hand.
func (s *Session) LoginWithBrowser(ctx context.Context, cb *CallbackServer, open Opener, notify func(url string)) error {
	url := s.BeginLogin()
	if open == nil || open(url) != nil {
		if notify != nil {
			notify(url)
		}
	}

	res, err := cb.Wait(ctx)
	if err != nil {
		return fmt.Errorf("login callback: %w", err)
	}
	return s.CompleteLogin(ctx, res.Code, res.State)
}
