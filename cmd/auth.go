package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/desertthunder/jamroom/internal/server"
	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultLoginTimeout = 2 * time.Minute

// openURL is replaced in tests.
var openURL = shared.OpenBrowser

// AuthLogin runs the browser login round trip and stores the session token in the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	noBrowser := cmd.Bool("no-browser")
	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))

	callback := &server.CallbackServer{
		Addr:    addr,
		Timeout: cmd.Duration("timeout"),
		Logger:  r.logger,
	}

	r.logger.Info("starting login", "callback", addr)
	token, err := callback.Run(ctx, func(redirect string) error {
		loginURL, err := r.profile.LoginURL(ctx, redirect)
		if err != nil {
			return err
		}

		r.writePlain("Open this URL to sign in:\n%s\n\n", loginURL)
		if noBrowser {
			return nil
		}
		if err := openURL(loginURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := r.saveSession(token); err != nil {
		return err
	}

	r.logger.Info("authentication successful")
	return r.writePlain("✓ Signed in\n")
}

// saveSession stores token in memory and, when a config path is known, on disk.
func (r *Runner) saveSession(token string) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}

	r.config.Credentials.SessionToken = token
	r.client.SetSessionToken(token)

	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Info("session token saved", "path", r.configPath)
	return nil
}

type authStatus struct {
	Authenticated bool       `json:"authenticated"`
	User          string     `json:"user,omitempty"`
	DisplayName   string     `json:"display_name,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// AuthStatus inspects the stored session token locally, then asks the backend about it.
//
// An expired token is reported without a network call.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token := r.client.SessionToken()
	status := authStatus{}

	if claims, err := shared.ParseSessionClaims(token); err == nil {
		status.User = claims.Identity()
		if claims.ExpiresAt != nil {
			exp := claims.ExpiresAt.Time
			status.ExpiresAt = &exp
		}
	}

	if err := shared.CheckSessionToken(token, now()); err != nil {
		status.Error = err.Error()
		return r.writeResult(status, func() error {
			return r.writePlain("✗ Not authenticated: %v\n", err)
		})
	}

	user, err := r.profile.Status(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			return err
		}
		status.Error = err.Error()
		return r.writeResult(status, func() error {
			return r.writePlain("✗ Backend rejected the session: %v\n", err)
		})
	}

	status.Authenticated = true
	status.DisplayName = user.DisplayName
	if status.User == "" {
		status.User = user.ID
	}

	return r.writeResult(status, func() error {
		r.writePlain("✓ Authenticated as %s\n", user.DisplayName)
		if status.ExpiresAt != nil {
			r.writePlain("Session expires: %s\n", status.ExpiresAt.Local().Format(time.RFC1123))
		}
		return nil
	})
}

// AuthLogout ends the backend session and clears the stored token.
//
// The local token is cleared even when the backend call fails.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.client.Authenticated() {
		if err := r.profile.Logout(ctx); err != nil {
			r.logger.Warn("backend logout failed", "error", err)
		}
	}
	if err := r.saveSession(""); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}
