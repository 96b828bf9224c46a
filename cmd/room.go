package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/jamroom/internal/formatter"
	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/notify"
	"github.com/desertthunder/jamroom/internal/realtime"
	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/urfave/cli/v3"
)

func requireArg(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return value, nil
}

// recordRoom remembers room in the local history. Failures only log.
func (r *Runner) recordRoom(room *models.Room, role models.RoomRole) {
	r.withStore()
	if r.history == nil || room == nil {
		return
	}
	if _, err := r.history.Record(*room, role); err != nil {
		r.logger.Warn("failed to record room history", "room", room.ID, "error", err)
	}
}

func (r *Runner) cacheQueue(queue models.Queue) {
	if r.cache == nil {
		return
	}
	for _, item := range queue {
		if err := r.cache.CacheTrack(item.Track); err != nil {
			r.logger.Warn("failed to cache track", "uri", item.Track.PlayableURI(), "error", err)
		}
	}
}

func (r *Runner) writeRoom(room *models.Room) error {
	return r.writeResult(room, func() error {
		visibility := "public"
		if room.IsPrivate {
			visibility = "private"
		}
		r.writePlainHeader(room.Name)
		r.writePlain("ID: %s\n", room.ID)
		r.writePlain("Code: %s\n", room.Code)
		r.writePlain("Visibility: %s\n", visibility)
		if room.MemberCount != nil {
			r.writePlain("Members: %d\n", *room.MemberCount)
		}
		if !room.CreatedAt.IsZero() {
			r.writePlain("Created: %s\n", room.CreatedAt.Local().Format(time.RFC1123))
		}
		return nil
	})
}

// RoomCreate creates a room and records it in the local history.
func (r *Runner) RoomCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg("room name", cmd.StringArg("name"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	room, err := r.rooms.CreateRoom(ctx, models.CreateRoomRequest{Name: name, IsPrivate: cmd.Bool("private")})
	if err != nil {
		return err
	}
	r.logger.Info("room created", "id", room.ID, "code", room.Code)
	r.recordRoom(room, models.RoleCreated)
	return r.writeRoom(room)
}

// RoomJoin looks a room up by code and records it in the local history.
func (r *Runner) RoomJoin(ctx context.Context, cmd *cli.Command) error {
	code, err := requireArg("room code", cmd.StringArg("code"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	room, err := r.rooms.JoinRoom(ctx, code)
	if err != nil {
		return err
	}
	r.recordRoom(room, models.RoleJoined)
	return r.writeRoom(room)
}

// RoomShow prints room details.
func (r *Runner) RoomShow(ctx context.Context, cmd *cli.Command) error {
	roomID, err := requireArg("room id", cmd.StringArg("room-id"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	room, err := r.rooms.Room(ctx, roomID)
	if err != nil {
		return err
	}
	return r.writeRoom(room)
}

// RoomQueue prints the vote-ordered queue and caches its tracks.
func (r *Runner) RoomQueue(ctx context.Context, cmd *cli.Command) error {
	roomID, err := requireArg("room id", cmd.StringArg("room-id"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	queue, err := r.rooms.Queue(ctx, roomID)
	if err != nil {
		return err
	}
	r.withStore()
	r.cacheQueue(queue)

	return r.writeResult(queue, func() error {
		return r.writePlain("%s", formatter.FormatQueue(queue))
	})
}

// RoomAdd nominates a track given as a URI or as a search query whose first hit is used.
func (r *Runner) RoomAdd(ctx context.Context, cmd *cli.Command) error {
	roomID, err := requireArg("room id", cmd.StringArg("room-id"))
	if err != nil {
		return err
	}
	input, err := requireArg("track", cmd.StringArg("track"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}
	r.withStore()

	req, err := r.resolveTrack(ctx, input, cmd.String("name"), cmd.String("artist"))
	if err != nil {
		return err
	}
	if err := r.rooms.AddToQueue(ctx, roomID, req); err != nil {
		return err
	}

	r.logger.Info("track queued", "room", roomID, "track", req.TrackID)
	return r.writeResult(req, func() error {
		return r.writePlain("✓ Added %s - %s\n", req.Artist, req.TrackName)
	})
}

// resolveTrack builds the add-to-queue body for a URI (cache first, then the flags) or a search query.
func (r *Runner) resolveTrack(ctx context.Context, input, name, artist string) (models.AddToQueueRequest, error) {
	if !isTrackURI(input) {
		tracks, err := r.search.Tracks(ctx, input, 1)
		if err != nil {
			return models.AddToQueueRequest{}, err
		}
		if len(tracks) == 0 {
			return models.AddToQueueRequest{}, fmt.Errorf("%w: no results for %q", shared.ErrTrackNotFound, input)
		}
		return tracks[0].QueueRequest(), nil
	}

	if r.cache != nil {
		if track, err := r.cache.Lookup(input); err == nil {
			return track.QueueRequest(), nil
		}
	}
	if name == "" || artist == "" {
		return models.AddToQueueRequest{}, fmt.Errorf("%w: --name and --artist are required for an uncached URI", shared.ErrMissingArgument)
	}
	return models.AddToQueueRequest{TrackID: input, TrackName: name, Artist: artist}, nil
}

func isTrackURI(s string) bool {
	return strings.HasPrefix(s, "spotify:track:")
}

// RoomVote votes on a queue item chosen by --item or fuzzy --match.
func (r *Runner) RoomVote(ctx context.Context, cmd *cli.Command) error {
	roomID, err := requireArg("room id", cmd.StringArg("room-id"))
	if err != nil {
		return err
	}
	itemID, match := cmd.String("item"), cmd.String("match")
	switch {
	case itemID == "" && match == "":
		return fmt.Errorf("%w: --item or --match", shared.ErrMissingArgument)
	case itemID != "" && match != "":
		return fmt.Errorf("%w: cannot specify both --item and --match", shared.ErrInvalidArgument)
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	label := itemID
	if match != "" {
		queue, err := r.rooms.Queue(ctx, roomID)
		if err != nil {
			return err
		}
		item, ok := queue.Find(match)
		if !ok {
			return fmt.Errorf("%w: no queue item matches %q", shared.ErrNotFound, match)
		}
		itemID = item.ID
		label = fmt.Sprintf("%s - %s", item.Track.PrimaryArtist(), item.Track.Name)
	}

	up := !cmd.Bool("down")
	if err := r.rooms.Vote(ctx, roomID, itemID, up); err != nil {
		return err
	}

	dir := "Upvoted"
	if !up {
		dir = "Downvoted"
	}
	return r.writeResult(map[string]any{"item_id": itemID, "up": up}, func() error {
		return r.writePlain("✓ %s %s\n", dir, label)
	})
}

// RoomMembers lists connected members.
func (r *Runner) RoomMembers(ctx context.Context, cmd *cli.Command) error {
	roomID, err := requireArg("room id", cmd.StringArg("room-id"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	members, err := r.rooms.Members(ctx, roomID)
	if err != nil {
		return err
	}
	return r.writeResult(members, func() error {
		if len(members) == 0 {
			return r.writePlain("No members connected.\n")
		}
		for _, m := range members {
			r.writePlain("• %s (%s)\n", m.Name, m.ID)
		}
		return nil
	})
}

type watchEvent struct {
	Type    string `json:"type"`
	Level   string `json:"level,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Queue   int    `json:"queue,omitempty"`
	Members int    `json:"members,omitempty"`
}

// RoomWatch joins a room over the realtime socket and prints its events until interrupted or the socket closes.
func (r *Runner) RoomWatch(ctx context.Context, cmd *cli.Command) error {
	code, err := requireArg("room code", cmd.StringArg("code"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	notes := notify.NewChannel(64)
	live := realtime.New(realtime.Options{
		Rooms:         r.rooms,
		BaseURL:       r.config.Backend.WebSocketURL(),
		Token:         r.client.SessionToken,
		Authenticated: true,
		Notifier:      notes,
		Logger:        shared.WithLogger(r.logger, "room", code),
	})
	defer live.Close()

	room := live.JoinRoom(ctx, code)
	if room == nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, live.Snapshot().Err)
	}
	r.recordRoom(room, models.RoleJoined)
	if !r.jsonOutput {
		r.writePlain("Watching %s [%s]. Press Ctrl+C to stop.\n", room.Name, room.Code)
	}

	states := live.Subscribe()
	prev := live.Snapshot()
	for {
		select {
		case <-ctx.Done():
			return nil

		case n := <-notes.C():
			r.emitWatch(watchEvent{Type: "notification", Level: n.Level.String(), Title: n.Title, Message: n.Message})

		case s, ok := <-states:
			if !ok {
				return nil
			}
			if s.Conn != prev.Conn {
				r.emitWatch(watchEvent{Type: "connection", Message: s.Conn.String()})
			}
			if len(s.Queue) != len(prev.Queue) || len(s.Members) != len(prev.Members) {
				r.emitWatch(watchEvent{Type: "room", Queue: len(s.Queue), Members: len(s.Members)})
			}

			switch {
			case s.Conn == realtime.ClosedError:
				r.drainNotes(notes)
				return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, s.Err)
			case s.Conn == realtime.Disconnected && prev.Conn == realtime.Open:
				r.drainNotes(notes)
				return nil
			}
			prev = s
		}
	}
}

func (r *Runner) drainNotes(notes *notify.Channel) {
	for {
		select {
		case n := <-notes.C():
			r.emitWatch(watchEvent{Type: "notification", Level: n.Level.String(), Title: n.Title, Message: n.Message})
		default:
			return
		}
	}
}

func (r *Runner) emitWatch(ev watchEvent) {
	if r.jsonOutput {
		r.writeJSON(ev, false)
		return
	}

	stamp := now().Format("15:04:05")
	switch ev.Type {
	case "connection":
		r.writePlain("[%s] connection: %s\n", stamp, ev.Message)
	case "room":
		r.writePlain("[%s] queue: %d tracks, %d members\n", stamp, ev.Queue, ev.Members)
	default:
		n := notify.Notification{Title: ev.Title, Message: ev.Message}
		r.writePlain("[%s] %s\n", stamp, n)
	}
}

type recentRoom struct {
	RoomID       string    `json:"room_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Private      bool      `json:"private"`
	Role         string    `json:"role"`
	LastJoinedAt time.Time `json:"last_joined_at"`
}

// RoomRecent lists the local room history, most recent first.
func (r *Runner) RoomRecent(ctx context.Context, cmd *cli.Command) error {
	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	switch role := models.RoomRole(cmd.String("role")); role {
	case "":
	case models.RoleCreated, models.RoleJoined:
		criteria["role"] = role
	default:
		return fmt.Errorf("%w: role must be %q or %q", shared.ErrInvalidFlag, models.RoleCreated, models.RoleJoined)
	}

	if err := r.store(); err != nil {
		return err
	}
	rooms, err := r.history.List(criteria)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	entries := make([]recentRoom, len(rooms))
	for i, rr := range rooms {
		entries[i] = recentRoom{
			RoomID:       rr.RoomID(),
			Code:         rr.Code(),
			Name:         rr.Name(),
			Private:      rr.IsPrivate(),
			Role:         string(rr.Role()),
			LastJoinedAt: rr.LastJoinedAt(),
		}
	}
	return r.writeResult(entries, func() error {
		return r.writePlain("%s", formatter.FormatRecentRooms(rooms, now()))
	})
}
