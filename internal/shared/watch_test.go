package shared

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchConfig(t *testing.T) {
	t.Run("reloads on write", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := SaveConfig(path, DefaultConfig()); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes := make(chan *Config, 16)
		done := make(chan error, 1)
		go func() {
			done <- WatchConfig(ctx, path, NewLogger(io.Discard), func(c *Config) {
				select {
				case changes <- c:
				default:
				}
			})
		}()

		updated := DefaultConfig()
		updated.Credentials.SessionToken = "reloaded"

		// The watcher registers asynchronously, so keep writing until it reports.
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case c := <-changes:
				if c.Credentials.SessionToken == "reloaded" {
					cancel()
					if err := <-done; err != nil {
						t.Errorf("expected clean shutdown, got %v", err)
					}
					return
				}
			case <-ticker.C:
				if err := SaveConfig(path, updated); err != nil {
					t.Fatalf("failed to rewrite config: %v", err)
				}
			case <-deadline:
				t.Fatal("timed out waiting for reload")
			}
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "config.toml")

		err := WatchConfig(context.Background(), path, NewLogger(io.Discard), func(*Config) {})
		if err == nil {
			t.Fatal("expected error watching a missing directory")
		}
	})
}
