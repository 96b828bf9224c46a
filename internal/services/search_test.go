package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
	tu "github.com/desertthunder/jamroom/internal/testing"
)

type fakeCache struct {
	uris []string
	err  error
}

func (f *fakeCache) CacheTrack(track models.Track) error {
	f.uris = append(f.uris, track.PlayableURI())
	return f.err
}

func TestSearchService(t *testing.T) {
	results := `{"tracks":{"items":[{"id":"t1","name":"One","uri":"spotify:track:t1"},{"id":"t2","name":"Two"}]}}`

	t.Run("Tracks", func(t *testing.T) {
		server, rec := tu.NewBackend(t, map[string]tu.Route{"GET /api/v1/search/tracks": {Body: results}})
		cache := &fakeCache{}
		svc := NewSearchService(NewClient(ClientOpts{BaseURL: server.URL}), cache)

		tracks, err := svc.Tracks(context.Background(), "daft punk", 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}

		q := rec.Requests()[0].Query
		if !strings.Contains(q, "q=daft+punk") || !strings.Contains(q, "limit=20") {
			t.Errorf("unexpected query %s", q)
		}

		if len(cache.uris) != 2 || cache.uris[1] != "spotify:track:t2" {
			t.Errorf("expected both tracks cached, got %v", cache.uris)
		}
	})

	t.Run("Cache Failure Does Not Fail Search", func(t *testing.T) {
		server, _ := tu.NewBackend(t, map[string]tu.Route{"GET /api/v1/search/tracks": {Body: results}})
		svc := NewSearchService(NewClient(ClientOpts{BaseURL: server.URL}), &fakeCache{err: errors.New("disk full")})

		if _, err := svc.Tracks(context.Background(), "x", 5); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("Empty Query", func(t *testing.T) {
		svc := NewSearchService(NewClient(ClientOpts{}), nil)
		if _, err := svc.Tracks(context.Background(), "  ", 5); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
