package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/services"
	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/urfave/cli/v3"
)

// Me prints the signed-in user's profile.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	user, err := r.profile.Me(ctx)
	if err != nil {
		return err
	}

	return r.writeResult(user, func() error {
		r.writePlainHeader(user.DisplayName)
		r.writePlain("ID: %s\n", user.ID)
		if user.Email != "" {
			r.writePlain("Email: %s\n", user.Email)
		}
		if user.Country != "" {
			r.writePlain("Country: %s\n", user.Country)
		}
		if user.Product != "" {
			r.writePlain("Plan: %s\n", user.Product)
		}
		r.writePlain("Followers: %d\n", user.Followers.Total)
		return nil
	})
}

// TopTracks lists the user's top tracks.
func (r *Runner) TopTracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	tr, err := services.ParseTimeRange(cmd.String("range"))
	if err != nil {
		return err
	}

	tracks, err := r.profile.TopTracks(ctx, int(cmd.Int("limit")), int(cmd.Int("offset")), tr)
	if err != nil {
		return err
	}

	return r.writeResult(tracks, func() error {
		return r.writeTracks(tracks)
	})
}

// TopArtists lists the user's top artists.
func (r *Runner) TopArtists(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	tr, err := services.ParseTimeRange(cmd.String("range"))
	if err != nil {
		return err
	}

	artists, err := r.profile.TopArtists(ctx, int(cmd.Int("limit")), tr)
	if err != nil {
		return err
	}

	return r.writeResult(artists, func() error {
		if len(artists) == 0 {
			return r.writePlain("No artists.\n")
		}
		for i, a := range artists {
			line := fmt.Sprintf("%2d. %s", i+1, a.Name)
			if len(a.Genres) > 0 {
				line += " (" + strings.Join(a.Genres, ", ") + ")"
			}
			r.writePlain("%s\n", line)
		}
		return nil
	})
}

func (r *Runner) writeTracks(tracks []models.Track) error {
	if len(tracks) == 0 {
		return r.writePlain("No tracks.\n")
	}
	for i, t := range tracks {
		r.writePlain("%2d. %s - %s [%s]\n    %s\n", i+1, t.ArtistNames(), t.Name, shared.FormatDuration(t.DurationMS), t.PlayableURI())
	}
	return nil
}
