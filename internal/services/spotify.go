// Provider Web API client used by the device player.
//
// Response shapes follow https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
	"golang.org/x/oauth2"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// SpotifyService drives playback on a provider device through the Web API.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a Web API client authorized by ts.
//
// baseURL defaults to the public API and exists so tests can point it at an httptest server.
func NewSpotifyService(ctx context.Context, ts oauth2.TokenSource, baseURL string) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	return &SpotifyService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: oauth2.NewClient(ctx, ts),
	}
}

// NewSpotifyServiceWithToken is a convenience for a fixed access token.
func NewSpotifyServiceWithToken(ctx context.Context, accessToken, baseURL string) *SpotifyService {
	return NewSpotifyService(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}), baseURL)
}

// doRequest performs an authenticated request against the Web API.
//
// 401, 403 and 404 map to [shared.ErrNotAuthenticated], [shared.ErrForbidden] and [shared.ErrNoDevice].
// A 204 leaves result untouched.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: provider rejected token", shared.ErrNotAuthenticated)
	case resp.StatusCode == http.StatusForbidden:
		return shared.ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w found", shared.ErrNoDevice)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func deviceQuery(deviceID string, extra url.Values) string {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// UserProfile retrieves the current user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Devices lists the user's available playback devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]models.Device, error) {
	var payload struct {
		Devices []models.Device `json:"devices"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Devices, nil
}

// FindDevice returns the device whose name matches (case-insensitively), or the active device when name is empty.
func (s *SpotifyService) FindDevice(ctx context.Context, name string) (*models.Device, error) {
	devices, err := s.Devices(ctx)
	if err != nil {
		return nil, err
	}

	for i := range devices {
		d := devices[i]
		if name != "" && strings.EqualFold(d.Name, name) {
			return &d, nil
		}
		if name == "" && d.IsActive {
			return &d, nil
		}
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no active device", shared.ErrNoDevice)
	}
	return nil, fmt.Errorf("%w: no device named %q", shared.ErrNoDevice, name)
}

// CurrentPlayback returns the playback on the user's active device, or nil when nothing is playing.
func (s *SpotifyService) CurrentPlayback(ctx context.Context) (*models.PlayerSnapshot, error) {
	var snap *models.PlayerSnapshot
	if err := s.doRequest(ctx, http.MethodGet, "/me/player", nil, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Play starts uris on deviceID, or resumes the current context when uris is empty.
func (s *SpotifyService) Play(ctx context.Context, deviceID string, uris ...string) error {
	var body any
	if len(uris) > 0 {
		body = map[string][]string{"uris": uris}
	}
	return s.doRequest(ctx, http.MethodPut, "/me/player/play"+deviceQuery(deviceID, nil), body, nil)
}

// Pause pauses deviceID.
func (s *SpotifyService) Pause(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/pause"+deviceQuery(deviceID, nil), nil, nil)
}

// SetVolume sets deviceID's volume, clamped to 0..100.
func (s *SpotifyService) SetVolume(ctx context.Context, deviceID string, percent int) error {
	extra := url.Values{"volume_percent": {strconv.Itoa(shared.Clamp(percent, 0, 100))}}
	return s.doRequest(ctx, http.MethodPut, "/me/player/volume"+deviceQuery(deviceID, extra), nil, nil)
}
