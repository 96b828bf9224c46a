// package tasks implements room operations that span many backend requests.
//
// The core abstraction is RoomEngine, which orchestrates snapshots, queue seeding and exports.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/services"
	"github.com/desertthunder/jamroom/internal/shared"
	"golang.org/x/sync/errgroup"
)

// RoomClient is the subset of the rooms API used by tasks.
type RoomClient interface {
	Room(ctx context.Context, roomID string) (*models.Room, error)
	Queue(ctx context.Context, roomID string) (models.Queue, error)
	Members(ctx context.Context, roomID string) (models.Members, error)
	AddToQueue(ctx context.Context, roomID string, req models.AddToQueueRequest) error
}

// TrackSearcher resolves free-text queries to tracks.
type TrackSearcher interface {
	Tracks(ctx context.Context, query string, limit int) ([]models.Track, error)
}

// TopTracksSource lists the signed-in user's top tracks.
type TopTracksSource interface {
	TopTracks(ctx context.Context, limit, offset int, tr services.TimeRange) ([]models.Track, error)
}

// RoomEngine runs room operations against the backend.
type RoomEngine struct {
	rooms   RoomClient
	search  TrackSearcher
	profile TopTracksSource
	now     func() time.Time
}

// NewRoomEngine creates a RoomEngine. search and profile may be nil when seeding is not needed.
func NewRoomEngine(rooms RoomClient, search TrackSearcher, profile TopTracksSource) *RoomEngine {
	return &RoomEngine{
		rooms:   rooms,
		search:  search,
		profile: profile,
		now:     time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *RoomEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Snapshot fetches a room with its queue and members.
//
// The three requests run concurrently; a failed member listing degrades to an empty list.
func (e *RoomEngine) Snapshot(ctx context.Context, roomID string, progress chan<- ProgressUpdate) (*models.RoomExport, error) {
	if e.rooms == nil {
		return nil, fmt.Errorf("%w: rooms service not initialized", shared.ErrServiceUnavailable)
	}
	if roomID == "" {
		return nil, fmt.Errorf("%w: room id", shared.ErrMissingArgument)
	}

	export := &models.RoomExport{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.sendProgress(progress, fetchRoomUpdate(1, 3, roomID))
		room, err := e.rooms.Room(gctx, roomID)
		if err != nil {
			return fmt.Errorf("failed to fetch room: %w", err)
		}
		export.Room = *room
		return nil
	})
	g.Go(func() error {
		e.sendProgress(progress, fetchQueueUpdate(2, 3))
		queue, err := e.rooms.Queue(gctx, roomID)
		if err != nil {
			return fmt.Errorf("failed to fetch queue: %w", err)
		}
		export.Queue = queue
		return nil
	})
	g.Go(func() error {
		e.sendProgress(progress, fetchMembersUpdate(3, 3))
		members, err := e.rooms.Members(gctx, roomID)
		if err != nil {
			members = models.Members{}
		}
		export.Members = members
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if export.Room.ID == "" {
		export.Room.ID = roomID
	}
	export.ExportedAt = e.now().UTC()
	return export, nil
}
