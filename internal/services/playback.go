package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
)

// PlaybackService wraps the backend's playback proxy endpoints.
type PlaybackService struct {
	client *Client
}

// NewPlaybackService creates a PlaybackService over client.
func NewPlaybackService(client *Client) *PlaybackService {
	return &PlaybackService{client: client}
}

// Play starts trackURI on deviceID.
func (s *PlaybackService) Play(ctx context.Context, trackURI, deviceID string) error {
	req := models.PlayRequest{TrackURI: trackURI, DeviceID: deviceID}
	if err := shared.Validate(req); err != nil {
		return err
	}
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/me/player/play", req, nil); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// Pause pauses playback on deviceID.
func (s *PlaybackService) Pause(ctx context.Context, deviceID string) error {
	return s.deviceCall(ctx, http.MethodPut, "/api/v1/me/player/pause", "pause", deviceID)
}

// Next skips to the next track on deviceID.
func (s *PlaybackService) Next(ctx context.Context, deviceID string) error {
	return s.deviceCall(ctx, http.MethodPost, "/api/v1/me/player/next", "next", deviceID)
}

// Previous skips to the previous track on deviceID.
func (s *PlaybackService) Previous(ctx context.Context, deviceID string) error {
	return s.deviceCall(ctx, http.MethodPost, "/api/v1/me/player/previous", "previous", deviceID)
}

func (s *PlaybackService) deviceCall(ctx context.Context, method, endpoint, op, deviceID string) error {
	req := models.DeviceRequest{DeviceID: deviceID}
	if err := shared.Validate(req); err != nil {
		return err
	}
	if err := s.client.doRequest(ctx, method, endpoint, req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Transfer moves playback to deviceID, starting it when play is true.
func (s *PlaybackService) Transfer(ctx context.Context, deviceID string, play bool) error {
	req := models.TransferRequest{DeviceIDs: []string{deviceID}, Play: play}
	if deviceID == "" {
		return fmt.Errorf("%w: device id", shared.ErrMissingArgument)
	}
	if err := s.client.doRequest(ctx, http.MethodPut, "/api/v1/me/player", req, nil); err != nil {
		return fmt.Errorf("transfer playback: %w", err)
	}
	return nil
}

// State returns the current playback snapshot, or nil when nothing is playing (204).
func (s *PlaybackService) State(ctx context.Context) (*models.PlayerSnapshot, error) {
	var snap *models.PlayerSnapshot
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/me/player/state", nil, &snap); err != nil {
		return nil, fmt.Errorf("player state: %w", err)
	}
	return snap, nil
}
