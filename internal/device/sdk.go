// package device implements the playback SDK over the provider Web API,
// driving a named Connect device (e.g. a librespot or spotifyd instance).
package device

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/playback"
	"github.com/desertthunder/jamroom/internal/services"
	"github.com/desertthunder/jamroom/internal/shared"
	"golang.org/x/oauth2"
)

// Identity keys the process-wide SDK registration.
const Identity = "spotify-player"

var registry = struct {
	mu    sync.Mutex
	ready map[string]chan struct{}
}{ready: map[string]chan struct{}{}}

// register runs init once per id for the life of the process. Every caller gets the same ready channel.
func register(id string, init func()) <-chan struct{} {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if ch, ok := registry.ready[id]; ok {
		return ch
	}
	ch := make(chan struct{})
	registry.ready[id] = ch
	go func() {
		defer close(ch)
		init()
	}()
	return ch
}

// WebAPI is the slice of the provider Web API a [Player] drives.
type WebAPI interface {
	FindDevice(ctx context.Context, name string) (*models.Device, error)
	CurrentPlayback(ctx context.Context) (*models.PlayerSnapshot, error)
	Play(ctx context.Context, deviceID string, uris ...string) error
	Pause(ctx context.Context, deviceID string) error
	SetVolume(ctx context.Context, deviceID string, percent int) error
}

// SDK creates device players. The zero value talks to the public Web API with a static token.
type SDK struct {
	// BaseURL overrides the Web API base.
	BaseURL string
	// Tokens turns a credential into a token source. Defaults to [oauth2.StaticTokenSource].
	Tokens func(token string) oauth2.TokenSource
	// HTTPClient is used under the oauth2 transport when set.
	HTTPClient *http.Client
	// PollInterval is how often players poll for state. Defaults to one second.
	PollInterval time.Duration
	Logger       *log.Logger

	// NewWebAPI replaces the Web API client; used by tests.
	NewWebAPI func(token string) WebAPI
}

// Load registers the SDK once per process and waits for it to become ready.
func (s *SDK) Load(ctx context.Context) error {
	logger := s.logger()
	ready := register(Identity, func() {
		logger.Debug("playback SDK loaded", "identity", Identity)
	})

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewPlayer creates a player bound to opts.Token.
func (s *SDK) NewPlayer(opts playback.PlayerOptions) (playback.Player, error) {
	return NewPlayer(s.webAPI(opts.Token), opts, s.PollInterval, s.logger()), nil
}

func (s *SDK) webAPI(token string) WebAPI {
	if s.NewWebAPI != nil {
		return s.NewWebAPI(token)
	}

	tokens := s.Tokens
	if tokens == nil {
		tokens = func(t string) oauth2.TokenSource {
			return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: t})
		}
	}

	ctx := context.Background()
	if s.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.HTTPClient)
	}
	return services.NewSpotifyService(ctx, tokens(token), s.BaseURL)
}

func (s *SDK) logger() *log.Logger {
	if s.Logger == nil {
		return shared.NewLogger(nil)
	}
	return s.Logger
}
