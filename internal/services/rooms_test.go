package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
	tu "github.com/desertthunder/jamroom/internal/testing"
)

func TestRoomService(t *testing.T) {
	room := map[string]any{"id": "r1", "name": "Friday Mix", "code": "AB12", "ownerId": "u1", "isPrivate": false}

	t.Run("CreateRoom", func(t *testing.T) {
		server, rec := tu.NewBackend(t, map[string]tu.Route{"POST /api/v1/rooms/": {Status: http.StatusCreated, Body: room}})
		svc := NewRoomService(NewClient(ClientOpts{BaseURL: server.URL}))

		got, err := svc.CreateRoom(context.Background(), models.CreateRoomRequest{Name: "Friday Mix"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Code != "AB12" || got.ID != "r1" {
			t.Errorf("unexpected room %+v", got)
		}

		var body map[string]any
		json.Unmarshal([]byte(rec.Requests()[0].Body), &body)
		if body["name"] != "Friday Mix" || body["isPrivate"] != false {
			t.Errorf("unexpected request body %v", body)
		}
	})

	t.Run("CreateRoom Rejects Empty Name Without Network Call", func(t *testing.T) {
		server, rec := tu.NewBackend(t, nil)
		svc := NewRoomService(NewClient(ClientOpts{BaseURL: server.URL}))

		_, err := svc.CreateRoom(context.Background(), models.CreateRoomRequest{})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(rec.Requests()) != 0 {
			t.Errorf("expected no requests, got %d", len(rec.Requests()))
		}
	})

	t.Run("JoinRoom", func(t *testing.T) {
		server, _ := tu.NewBackend(t, map[string]tu.Route{"GET /api/v1/rooms/code/AB12": {Body: room}})
		svc := NewRoomService(NewClient(ClientOpts{BaseURL: server.URL}))

		got, err := svc.JoinRoom(context.Background(), "AB12")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Name != "Friday Mix" {
			t.Errorf("unexpected room %+v", got)
		}

		if _, err := svc.JoinRoom(context.Background(), "NOPE"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown code, got %v", err)
		}
	})

	t.Run("Queue", func(t *testing.T) {
		server, _ := tu.NewBackend(t, map[string]tu.Route{
			"GET /api/v1/rooms/r1/queue": {Body: `[{"id":"q1","track":{"id":"t1","name":"Song"},"votes":4,"addedBy":"u1"}]`},
			"GET /api/v1/rooms/r2/queue": {Body: `null`},
		})
		svc := NewRoomService(NewClient(ClientOpts{BaseURL: server.URL}))

		q, err := svc.Queue(context.Background(), "r1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(q) != 1 || q[0].Votes != 4 || q[0].Track.Name != "Song" {
			t.Errorf("unexpected queue %+v", q)
		}

		empty, err := svc.Queue(context.Background(), "r2")
		if err != nil || empty == nil || len(empty) != 0 {
			t.Errorf("expected empty non-nil queue, got %v (%v)", empty, err)
		}
	})

	t.Run("AddToQueue", func(t *testing.T) {
		server, rec := tu.NewBackend(t, map[string]tu.Route{"POST /api/v1/rooms/r1/queue": {}})
		svc := NewRoomService(NewClient(ClientOpts{BaseURL: server.URL}))

		req := models.AddToQueueRequest{TrackID: "spotify:track:t1", TrackName: "Song", Artist: "A"}
		if err := svc.AddToQueue(context.Background(), "r1", req); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var body map[string]string
		json.Unmarshal([]byte(rec.Requests()[0].Body), &body)
		if body["track_id"] != "spotify:track:t1" || body["track_name"] != "Song" || body["artist"] != "A" {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("Vote", func(t *testing.T) {
		server, rec := tu.NewBackend(t, map[string]tu.Route{"POST /api/v1/rooms/r1/vote": {}})
		svc := NewRoomService(NewClient(ClientOpts{BaseURL: server.URL}))

		if err := svc.Vote(context.Background(), "r1", "q1", false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var body map[string]any
		json.Unmarshal([]byte(rec.Requests()[0].Body), &body)
		if body["track_id"] != "q1" || body["vote"] != float64(-1) {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("Members", func(t *testing.T) {
		t.Run("Unwraps Members", func(t *testing.T) {
			server, _ := tu.NewBackend(t, map[string]tu.Route{
				"GET /api/v1/rooms/r1/members": {Body: map[string]any{"members": []map[string]string{{"id": "u1", "name": "Ann"}}}},
			})
			svc := NewRoomService(NewClient(ClientOpts{BaseURL: server.URL}))

			members, err := svc.Members(context.Background(), "r1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(members) != 1 || members[0].Name != "Ann" {
				t.Errorf("unexpected members %+v", members)
			}
		})

		t.Run("Not Found Is Empty", func(t *testing.T) {
			server, _ := tu.NewBackend(t, nil)
			svc := NewRoomService(NewClient(ClientOpts{BaseURL: server.URL}))

			members, err := svc.Members(context.Background(), "r1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if members == nil || len(members) != 0 {
				t.Errorf("expected empty members, got %v", members)
			}
		})

		t.Run("Server Error Propagates", func(t *testing.T) {
			server, _ := tu.NewBackend(t, map[string]tu.Route{"GET /api/v1/rooms/r1/members": {Status: http.StatusInternalServerError}})
			svc := NewRoomService(NewClient(ClientOpts{BaseURL: server.URL}))

			if _, err := svc.Members(context.Background(), "r1"); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})
}
