package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/jamroom/internal/models"
	"golang.org/x/oauth2"
)

// TimeRange selects the window for top items.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"
	MediumTerm TimeRange = "medium_term"
	LongTerm   TimeRange = "long_term"
)

// ParseTimeRange accepts short, medium or long (with or without the _term suffix).
func ParseTimeRange(s string) (TimeRange, error) {
	switch s {
	case "", "medium", string(MediumTerm):
		return MediumTerm, nil
	case "short", string(ShortTerm):
		return ShortTerm, nil
	case "long", string(LongTerm):
		return LongTerm, nil
	default:
		return "", fmt.Errorf("unknown time range %q", s)
	}
}

// ProfileService wraps the auth and profile endpoints.
type ProfileService struct {
	client        *Client
	loginEndpoint string
}

// NewProfileService creates a ProfileService. loginEndpoint defaults to /api/v1/auth/login.
func NewProfileService(client *Client, loginEndpoint string) *ProfileService {
	if loginEndpoint == "" {
		loginEndpoint = "/api/v1/auth/login"
	}
	return &ProfileService{client: client, loginEndpoint: loginEndpoint}
}

// Me returns the authenticated user's profile.
func (s *ProfileService) Me(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/auth/me", nil, &profile); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// Status asks the backend whether the session is valid. It returns the user the backend reports.
func (s *ProfileService) Status(ctx context.Context) (*models.UserProfile, error) {
	var user *models.UserProfile
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/auth/status", nil, &user); err != nil {
		return nil, fmt.Errorf("auth status: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("auth status: no user returned")
	}
	return user, nil
}

// LoginURL returns the provider authorization URL the user must visit.
func (s *ProfileService) LoginURL(ctx context.Context, redirect string) (string, error) {
	endpoint := s.loginEndpoint
	if redirect != "" {
		endpoint += "?" + url.Values{"redirect_uri": {redirect}}.Encode()
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := s.client.doRequest(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return "", fmt.Errorf("get login url: %w", err)
	}
	if payload.URL == "" {
		return "", fmt.Errorf("get login url: no URL returned from backend")
	}
	return payload.URL, nil
}

// Logout ends the backend session.
func (s *ProfileService) Logout(ctx context.Context) error {
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// TopTracks lists the user's top tracks.
func (s *ProfileService) TopTracks(ctx context.Context, limit, offset int, tr TimeRange) ([]models.Track, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(max(limit, 1)))
	params.Set("offset", strconv.Itoa(max(offset, 0)))
	params.Set("time_range", string(tr))

	var raw json.RawMessage
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/auth/me/top-tracks?"+params.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("get top tracks: %w", err)
	}
	return decodeItems[models.Track](raw)
}

// TopArtists lists the user's top artists.
func (s *ProfileService) TopArtists(ctx context.Context, limit int, tr TimeRange) ([]models.Artist, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(max(limit, 1)))
	params.Set("time_range", string(tr))

	var raw json.RawMessage
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/auth/me/top-artists?"+params.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("get top artists: %w", err)
	}
	return decodeItems[models.Artist](raw)
}

// StreamingToken fetches a provider access token for the device player.
func (s *ProfileService) StreamingToken(ctx context.Context) (*models.StreamingToken, error) {
	var tok models.StreamingToken
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/auth/spotify_token", nil, &tok); err != nil {
		return nil, fmt.Errorf("get streaming token: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("get streaming token: empty access token")
	}
	return &tok, nil
}

// streamingTokenSource adapts [ProfileService.StreamingToken] to [oauth2.TokenSource].
type streamingTokenSource struct {
	profile *ProfileService
	timeout time.Duration
}

func (s *streamingTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	st, err := s.profile.StreamingToken(ctx)
	if err != nil {
		return nil, err
	}

	tok := &oauth2.Token{AccessToken: st.AccessToken, TokenType: st.TokenType}
	if st.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(st.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// NewStreamingTokenSource returns a caching token source that refreshes from the backend on expiry.
//
// When initial is non-empty it is used until the provider rejects it or it expires.
func NewStreamingTokenSource(profile *ProfileService, initial string) oauth2.TokenSource {
	var seed *oauth2.Token
	if initial != "" {
		seed = &oauth2.Token{AccessToken: initial}
	}
	return oauth2.ReuseTokenSource(seed, &streamingTokenSource{profile: profile, timeout: 10 * time.Second})
}
