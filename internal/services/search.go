package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
)

// TrackCacher remembers tracks seen in results. Failures must not fail the search.
type TrackCacher interface {
	CacheTrack(track models.Track) error
}

// SearchService wraps track search.
type SearchService struct {
	client *Client
	cache  TrackCacher
}

// NewSearchService creates a SearchService. cache may be nil.
func NewSearchService(client *Client, cache TrackCacher) *SearchService {
	return &SearchService{client: client, cache: cache}
}

// Tracks searches the provider catalog through the backend. limit defaults to 20.
func (s *SearchService) Tracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var raw json.RawMessage
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/search/tracks?"+params.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("search tracks: %w", err)
	}

	tracks, err := decodeItems[models.Track](raw)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		for _, t := range tracks {
			if err := s.cache.CacheTrack(t); err != nil {
				s.client.logger.Warn("failed to cache track", "uri", t.PlayableURI(), "error", err)
			}
		}
	}
	return tracks, nil
}
