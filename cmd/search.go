package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search finds tracks through the backend, caching what it sees, or searches the local cache with --cached.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	limit := int(cmd.Int("limit"))

	if cmd.Bool("cached") {
		if err := r.store(); err != nil {
			return err
		}
		return r.searchCache(query, limit)
	}

	if err := r.requireSession(); err != nil {
		return err
	}
	r.withStore()

	r.logger.Debug("searching tracks", "query", query, "limit", limit)
	tracks, err := r.search.Tracks(ctx, query, limit)
	if err != nil {
		return err
	}

	return r.writeResult(tracks, func() error {
		return r.writeTracks(tracks)
	})
}

func (r *Runner) searchCache(query string, limit int) error {
	cached, err := r.tracks.Search(query, limit)
	if err != nil {
		return err
	}

	tracks := make([]models.Track, len(cached))
	for i, c := range cached {
		tracks[i] = c.Track()
	}
	return r.writeResult(tracks, func() error {
		return r.writeTracks(tracks)
	})
}
