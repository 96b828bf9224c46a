package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jamroom/internal/shared"
)

// CallbackServer runs a [LoginHandler] on a temporary local listener.
type CallbackServer struct {
	Addr    string        // host:port to listen on; port 0 picks a free port
	Timeout time.Duration // how long to wait for the callback (default: 2 minutes)
	Logger  *log.Logger
}

// RedirectURL returns the callback URL for a listener address, carrying state.
func RedirectURL(addr, state string) string {
	u := url.URL{Scheme: "http", Host: addr, Path: "/callback"}
	u.RawQuery = url.Values{"state": {state}}.Encode()
	return u.String()
}

// Run listens, calls open with the redirect URL the backend should send the
// browser back to, and blocks until the callback yields a token.
//
// The listener is shut down before Run returns.
func (s *CallbackServer) Run(ctx context.Context, open func(redirect string) error) (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	handler := NewLoginHandler(state)
	router := NewBasicRouter(LogRequests(logger))
	router.Handler(handler)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infof("starting login callback server at %v", ln.Addr())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down server", "error", err)
		}
	}()

	if err := open(RedirectURL(ln.Addr().String(), state)); err != nil {
		return "", err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return "", fmt.Errorf("login failed: %w", result.Error())
		}
		return result.Token, nil
	case err := <-serverErrors:
		return "", fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return "", fmt.Errorf("%w: login timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
