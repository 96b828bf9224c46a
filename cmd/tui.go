package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jamroom/internal/device"
	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/notify"
	"github.com/desertthunder/jamroom/internal/playback"
	"github.com/desertthunder/jamroom/internal/realtime"
	"github.com/desertthunder/jamroom/internal/services"
	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/desertthunder/jamroom/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// TUI joins a room and launches the interactive dashboard with a synced player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	code, err := requireArg("room code", cmd.StringArg("code"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := cmd.String("log-path")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	fileLogger, f, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer f.Close()
	r.SetLogger(fileLogger)
	r.wire(nil)
	r.withStore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	notes := notify.NewChannel(64)
	notifier := notify.Multi{notes, notify.Log{Logger: r.logger}}

	rooms := realtime.New(realtime.Options{
		Rooms:         r.rooms,
		BaseURL:       r.config.Backend.WebSocketURL(),
		Token:         r.client.SessionToken,
		Authenticated: true,
		Notifier:      notifier,
		Logger:        shared.WithLogger(r.logger, "component", "room"),
	})
	defer rooms.Close()

	player := playback.New(playback.Options{
		Backend: r.playback,
		SDK: &device.SDK{
			BaseURL: r.provider,
			Tokens: func(token string) oauth2.TokenSource {
				return services.NewStreamingTokenSource(r.profile, token)
			},
			PollInterval: r.config.Player.StatePollInterval(),
			Logger:       shared.WithLogger(r.logger, "component", "device"),
		},
		DeviceName:   r.config.Player.DeviceName,
		Volume:       r.config.Player.Volume,
		SyncInterval: r.config.Player.SyncInterval(),
		Notifier:     notifier,
		Logger:       shared.WithLogger(r.logger, "component", "playback"),
	})
	defer player.Close()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if room := rooms.JoinRoom(ctx, code); room != nil {
			r.recordRoom(room, models.RoleJoined)
		}
	}()
	go func() {
		defer wg.Done()
		r.startPlayback(ctx, player, notifier)
	}()
	go func() {
		defer wg.Done()
		reloader := &configReloader{runner: r, rooms: rooms, player: player, current: r.config}
		if err := shared.WatchConfig(ctx, r.configPath, r.logger, func(cfg *shared.Config) {
			reloader.apply(ctx, cfg)
		}); err != nil {
			r.logger.Warn("config reload disabled", "error", err)
		}
	}()

	model := ui.NewModel(ctx, ui.Options{
		Room:          rooms,
		Player:        player,
		Search:        r.search,
		Notifications: notes.C(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, runErr := p.Run()
	interrupted := ctx.Err() != nil
	cancel()
	wg.Wait()
	if runErr != nil && !interrupted {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return nil
}

// startPlayback hands the streaming token to the player, asking the backend for one when none is configured.
func (r *Runner) startPlayback(ctx context.Context, player credentialSink, n notify.Notifier) {
	token := r.config.Credentials.StreamingToken
	if token == "" {
		st, err := r.profile.StreamingToken(ctx)
		if err != nil {
			r.logger.Warn("no streaming token", "error", err)
			notify.Warnf(n, "Playback Unavailable", "Could not get a streaming token: %v", err)
			return
		}
		token = st.AccessToken
	}
	player.SetCredential(ctx, token)
}

type sessionSink interface {
	SetAuthenticated(ctx context.Context, authed bool)
}

type credentialSink interface {
	SetCredential(ctx context.Context, token string)
	PauseCurrentTrack(ctx context.Context) error
}

// configReloader applies credential changes from a reloaded config file.
type configReloader struct {
	mu      sync.Mutex
	runner  *Runner
	rooms   sessionSink
	player  credentialSink
	current *shared.Config
}

// apply re-authenticates the room socket when the session token changes
// and rebuilds the playback session when the streaming token changes.
// Clearing the session token is a logout: playback is paused first.
func (c *configReloader) apply(ctx context.Context, cfg *shared.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.current.Credentials
	next := cfg.Credentials
	c.current = cfg

	if next.SessionToken != prev.SessionToken {
		if next.SessionToken == "" {
			if err := c.player.PauseCurrentTrack(ctx); err != nil {
				c.runner.logger.Warn("could not pause playback on logout", "error", err)
			}
		}
		c.runner.logger.Info("session token changed, reconnecting")
		c.runner.client.SetSessionToken(next.SessionToken)
		c.rooms.SetAuthenticated(ctx, false)
		if next.SessionToken != "" {
			c.rooms.SetAuthenticated(ctx, true)
		}
	}
	if next.StreamingToken != prev.StreamingToken {
		if next.StreamingToken == "" {
			c.runner.logger.Info("streaming token cleared, stopping player")
		} else {
			c.runner.logger.Info("streaming token changed, restarting player")
		}
		c.player.SetCredential(ctx, next.StreamingToken)
	}
}
