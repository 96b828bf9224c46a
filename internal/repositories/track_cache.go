package repositories

import (
	"errors"
	"fmt"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
)

// TrackCache adapts [TrackRepository] to the services.TrackCacher interface.
type TrackCache struct {
	repo *TrackRepository
}

// NewTrackCache creates a cache backed by repo.
func NewTrackCache(repo *TrackRepository) *TrackCache {
	return &TrackCache{repo: repo}
}

// CacheTrack stores track, refreshing the existing row when its URI is already cached.
// Tracks without a playable URI are ignored.
func (c *TrackCache) CacheTrack(track models.Track) error {
	uri := track.PlayableURI()
	if uri == "" {
		return nil
	}

	existing, err := c.repo.GetByURI(uri)
	switch {
	case errors.Is(err, shared.ErrTrackNotFound):
		if err := c.repo.Create(models.NewCachedTrack(0, track)); err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return fmt.Errorf("failed to cache track: %w", err)
		}
		return nil
	case err != nil:
		return err
	}

	refreshed := models.NewCachedTrack(existing.Sequence(), track)
	refreshed.SetID(existing.ID())
	refreshed.SetCreatedAt(existing.CreatedAt())
	return c.repo.Update(refreshed)
}

// Lookup returns the cached track for uri.
func (c *TrackCache) Lookup(uri string) (models.Track, error) {
	cached, err := c.repo.GetByURI(uri)
	if err != nil {
		return models.Track{}, err
	}
	return cached.Track(), nil
}
