package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// CallbackPath is where the provider redirects after login.
const CallbackPath = "/callback"

// CallbackResult is what the provider redirected back with.
type CallbackResult struct {
	Code  string
	State string
	Err   error
}

// CallbackServer receives the login redirect on a loopback address.
type CallbackServer struct {
	srv     *http.Server
	ln      net.Listener
	results chan CallbackResult
	log     *zap.Logger
}

// NewCallbackServer listens on addr and starts serving. log may be nil.
func NewCallbackServer(addr string, log *zap.Logger) (*CallbackServer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for login callback: %w", err)
	}

	cs := &CallbackServer{ln: ln, results: make(chan CallbackResult, 1), log: log}
	cs.srv = &http.Server{Handler: cs.Routes(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := cs.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("callback server stopped", zap.Error(err))
		}
	}()
	return cs, nil
}

// RedirectURL returns the URL to register as the login redirect for addr.
func RedirectURL(addr string) string {
	return "http://" + addr + CallbackPath
}

// URL returns the callback URL of the running server.
func (cs *CallbackServer) URL() string {
	return RedirectURL(cs.ln.Addr().String())
}

// Routes returns the callback handler.
func (cs *CallbackServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(CallbackPath, cs.handleCallback)
	return r
}

func (cs *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := CallbackResult{Code: q.Get("code"), State: q.Get("state")}

	switch {
	case q.Get("error") != "":
		res.Err = fmt.Errorf("provider error %s: %s", q.Get("error"), q.Get("error_description"))
	case res.Code == "":
		res.Err = errors.New("callback without code")
	}

	select {
	case cs.results <- res:
	default:
		cs.log.Warn("dropping extra login callback")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if res.Err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, "Login failed. You can close this window.")
		return
	}
	fmt.Fprintln(w, "Login complete. You can close this window.")
}

// Wait blocks until the provider redirects back or ctx is done.
func (cs *CallbackServer) Wait(ctx context.Context) (CallbackResult, error) {
	select {
	case res := <-cs.results:
		return res, res.Err
	case <-ctx.Done():
		return CallbackResult{}, ctx.Err()
	}
}

// Close shuts the server down.
func (cs *CallbackServer) Close(ctx context.Context) error {
	return cs.srv.Shutdown(ctx)
}
