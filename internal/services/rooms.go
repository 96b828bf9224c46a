package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
)

// RoomService wraps the room, queue, vote and member endpoints.
type RoomService struct {
	client *Client
}

// NewRoomService creates a RoomService over client.
func NewRoomService(client *Client) *RoomService {
	return &RoomService{client: client}
}

// CreateRoom creates a room. The backend returns the Room directly.
func (s *RoomService) CreateRoom(ctx context.Context, req models.CreateRoomRequest) (*models.Room, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}

	var room models.Room
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/rooms/", req, &room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return &room, nil
}

// JoinRoom looks a room up by its join code.
func (s *RoomService) JoinRoom(ctx context.Context, code string) (*models.Room, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: room code", shared.ErrMissingArgument)
	}

	var room models.Room
	endpoint := "/api/v1/rooms/code/" + url.PathEscape(code)
	if err := s.client.doRequest(ctx, http.MethodGet, endpoint, nil, &room); err != nil {
		return nil, fmt.Errorf("join room %s: %w", code, err)
	}
	return &room, nil
}

// Room fetches a room by id.
func (s *RoomService) Room(ctx context.Context, roomID string) (*models.Room, error) {
	var room models.Room
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/rooms/"+url.PathEscape(roomID), nil, &room); err != nil {
		return nil, fmt.Errorf("get room %s: %w", roomID, err)
	}
	return &room, nil
}

// Queue fetches the room's queue in backend order.
func (s *RoomService) Queue(ctx context.Context, roomID string) (models.Queue, error) {
	var queue models.Queue
	endpoint := fmt.Sprintf("/api/v1/rooms/%s/queue", url.PathEscape(roomID))
	if err := s.client.doRequest(ctx, http.MethodGet, endpoint, nil, &queue); err != nil {
		return nil, fmt.Errorf("get queue: %w", err)
	}
	if queue == nil {
		queue = models.Queue{}
	}
	return queue, nil
}

// AddToQueue nominates a track. The confirmed entry arrives later as a push event.
func (s *RoomService) AddToQueue(ctx context.Context, roomID string, req models.AddToQueueRequest) error {
	if err := shared.Validate(req); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("/api/v1/rooms/%s/queue", url.PathEscape(roomID))
	if err := s.client.doRequest(ctx, http.MethodPost, endpoint, req, nil); err != nil {
		return fmt.Errorf("add to queue: %w", err)
	}
	return nil
}

// Vote casts +1 (up) or -1 on a queue item.
func (s *RoomService) Vote(ctx context.Context, roomID, itemID string, up bool) error {
	req := models.VoteRequest{TrackID: itemID, Vote: -1}
	if up {
		req.Vote = 1
	}
	if err := shared.Validate(req); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("/api/v1/rooms/%s/vote", url.PathEscape(roomID))
	if err := s.client.doRequest(ctx, http.MethodPost, endpoint, req, nil); err != nil {
		return fmt.Errorf("vote: %w", err)
	}
	return nil
}

// Members lists connected members. A 404 means the room has none and yields an empty list.
func (s *RoomService) Members(ctx context.Context, roomID string) (models.Members, error) {
	var payload struct {
		Members models.Members `json:"members"`
	}

	endpoint := fmt.Sprintf("/api/v1/rooms/%s/members", url.PathEscape(roomID))
	err := s.client.doRequest(ctx, http.MethodGet, endpoint, nil, &payload)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		s.client.logger.Warn("members endpoint returned 404, treating as empty", "room", roomID)
		return models.Members{}, nil
	case err != nil:
		return nil, fmt.Errorf("get members: %w", err)
	}

	if payload.Members == nil {
		return models.Members{}, nil
	}
	return payload.Members, nil
}
