package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/notify"
	"github.com/desertthunder/jamroom/internal/shared"
	"golang.org/x/sync/errgroup"
)

const connectionFailed = "Real-time connection failed."

// RoomAPI is the slice of the backend REST API the room sync needs.
type RoomAPI interface {
	CreateRoom(ctx context.Context, req models.CreateRoomRequest) (*models.Room, error)
	JoinRoom(ctx context.Context, code string) (*models.Room, error)
	Queue(ctx context.Context, roomID string) (models.Queue, error)
	Members(ctx context.Context, roomID string) (models.Members, error)
	AddToQueue(ctx context.Context, roomID string, req models.AddToQueueRequest) error
	Vote(ctx context.Context, roomID, itemID string, up bool) error
}

// Options configures a [Sync].
type Options struct {
	Rooms RoomAPI
	// Dialer defaults to a gorilla [WebSocketDialer].
	Dialer Dialer
	// BaseURL is the ws:// or wss:// base the room path is appended to.
	BaseURL string
	// Token returns the current session credential for the handshake.
	Token         func() string
	Authenticated bool
	Notifier      notify.Notifier
	Logger        *log.Logger
}

// Sync mirrors the current room over a WebSocket and exposes the room actions.
//
// connMu serializes connection transitions. mu guards the state, the
// subscribers and the generation counter; results tagged with an older
// generation belong to a socket that has since been replaced and are dropped.
type Sync struct {
	rooms    RoomAPI
	dialer   Dialer
	baseURL  string
	token    func() string
	notifier notify.Notifier
	logger   *log.Logger

	connMu sync.Mutex
	authed bool
	conn   Conn
	cancel context.CancelFunc

	mu     sync.Mutex
	gen    uint64
	state  State
	subs   []chan State
	closed bool

	wg sync.WaitGroup
}

// New creates a Sync with no current room.
func New(opts Options) *Sync {
	s := &Sync{
		rooms:    opts.Rooms,
		dialer:   opts.Dialer,
		baseURL:  opts.BaseURL,
		token:    opts.Token,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		authed:   opts.Authenticated,
		state:    State{Queue: models.Queue{}, Members: models.Members{}},
	}
	if s.dialer == nil {
		s.dialer = WebSocketDialer{}
	}
	if s.token == nil {
		s.token = func() string { return "" }
	}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Sync) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe returns a channel receiving the latest state after every change.
// A slow reader only misses intermediate states. The channel closes with the Sync.
func (s *Sync) Subscribe() <-chan State {
	ch := make(chan State, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	ch <- s.state.clone()
	return ch
}

// update applies fn to the state and publishes the result. Must be called without mu held.
func (s *Sync) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.publishLocked()
}

func (s *Sync) publishLocked() {
	if s.closed {
		return
	}
	for _, ch := range s.subs {
		st := s.state.clone()
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

// CreateRoom creates a room and makes it current. It returns nil on failure.
func (s *Sync) CreateRoom(ctx context.Context, name string, isPrivate bool) *models.Room {
	s.update(func(st *State) { st.Loading, st.Err = true, "" })

	room, err := s.rooms.CreateRoom(ctx, models.CreateRoomRequest{Name: name, IsPrivate: isPrivate})
	if err != nil {
		s.fail("Error Creating Room", "failed to create room", err)
		return nil
	}

	s.setRoom(ctx, room)
	notify.Successf(s.notifier, "Room Created", "Room %q created. Code: %s", room.Name, room.Code)
	return room
}

// JoinRoom looks a room up by code and makes it current. It returns nil on failure.
func (s *Sync) JoinRoom(ctx context.Context, code string) *models.Room {
	s.update(func(st *State) { st.Loading, st.Err = true, "" })

	room, err := s.rooms.JoinRoom(ctx, code)
	if err != nil {
		s.fail("Error Joining Room", "failed to join room", err)
		return nil
	}

	s.setRoom(ctx, room)
	notify.Successf(s.notifier, "Room Joined", "You've joined %q", room.Name)
	return room
}

func (s *Sync) fail(title, msg string, err error) {
	s.logger.Error(msg, "error", err)
	s.update(func(st *State) { st.Loading, st.Err = false, err.Error() })
	notify.Errorf(s.notifier, title, "%v", err)
}

// LeaveRoom closes the socket and clears the room. Calling it without a room is harmless.
func (s *Sync) LeaveRoom() {
	s.connMu.Lock()
	s.disconnectLocked()
	s.connMu.Unlock()

	s.update(func(st *State) {
		st.Room = nil
		st.Queue = models.Queue{}
		st.Members = models.Members{}
		st.Err = ""
	})
	notify.Infof(s.notifier, "Left Room", "You have left the room")
}

// AddTrackToQueue nominates a track in the current room. The queue itself
// only changes when the backend pushes the new item.
func (s *Sync) AddTrackToQueue(ctx context.Context, req models.AddToQueueRequest) bool {
	room := s.currentRoom()
	if room == nil {
		notify.Errorf(s.notifier, "No Room", "No active room to add a song to.")
		return false
	}

	if err := s.rooms.AddToQueue(ctx, room.ID, req); err != nil {
		s.logger.Error("failed to add to queue", "room", room.ID, "track", req.TrackID, "error", err)
		notify.Errorf(s.notifier, "Queue", "Failed to add to queue")
		return false
	}
	notify.Successf(s.notifier, "Track Requested", "%q requested", req.TrackName)
	return true
}

// Vote up- or down-votes a queue item. The tally only changes through push events.
func (s *Sync) Vote(ctx context.Context, itemID string, up bool) bool {
	room := s.currentRoom()
	if room == nil {
		notify.Errorf(s.notifier, "No Room", "No active room to vote in.")
		return false
	}

	if err := s.rooms.Vote(ctx, room.ID, itemID, up); err != nil {
		s.logger.Error("failed to vote", "room", room.ID, "item", itemID, "error", err)
		notify.Errorf(s.notifier, "Vote", "Failed to vote")
		return false
	}
	return true
}

// SetAuthenticated connects when a session appears and disconnects on logout.
func (s *Sync) SetAuthenticated(ctx context.Context, authed bool) {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.authed == authed {
		return
	}
	s.authed = authed

	if !authed {
		s.disconnectLocked()
		return
	}
	if room := s.currentRoom(); room != nil {
		s.connectLocked(ctx, room.ID)
	}
}

// Close disconnects, closes subscriber channels and waits for background work.
// Connects attempted after Close are ignored.
func (s *Sync) Close() {
	s.connMu.Lock()
	s.disconnectLocked()
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for _, ch := range s.subs {
			close(ch)
		}
		s.subs = nil
	}
	s.mu.Unlock()
	s.connMu.Unlock()

	s.wg.Wait()
}

func (s *Sync) currentRoom() *models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Room == nil {
		return nil
	}
	r := *s.state.Room
	return &r
}

// setRoom replaces the current room, closing any open socket before connecting to the new one.
func (s *Sync) setRoom(ctx context.Context, room *models.Room) {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.disconnectLocked()
	s.update(func(st *State) {
		r := *room
		st.Room = &r
		st.Queue = models.Queue{}
		st.Members = models.Members{}
		st.Loading = false
	})

	if s.authed {
		s.connectLocked(ctx, room.ID)
	}
}

// disconnectLocked retires the current generation and closes its socket. connMu must be held.
func (s *Sync) disconnectLocked() {
	s.mu.Lock()
	s.gen++
	conn, cancel := s.conn, s.cancel
	s.conn, s.cancel = nil, nil
	s.state.Conn = Disconnected
	s.publishLocked()
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			s.logger.Debug("error closing room socket", "error", err)
		}
		s.logger.Debug("closed room socket")
	}
}

// connectLocked dials the room socket and starts its read loop and initial refresh. connMu must be held.
func (s *Sync) connectLocked(ctx context.Context, roomID string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("not connecting: sync closed", "room", roomID)
		return
	}
	s.gen++
	gen := s.gen
	s.state.Conn = Connecting
	s.state.Err = ""
	s.publishLocked()
	s.mu.Unlock()

	url := RoomURL(s.baseURL, roomID)
	s.logger.Debug("connecting to room socket", "url", url)

	conn, err := s.dialer.Dial(ctx, url, authHeader(s.token()))
	if err != nil {
		s.logger.Error("websocket connection failed", "room", roomID, "error", err)
		s.mu.Lock()
		if gen == s.gen {
			s.state.Conn = ClosedError
			s.state.Err = connectionFailed
			s.publishLocked()
		}
		s.mu.Unlock()
		return
	}

	refreshCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.conn, s.cancel = conn, cancel
	s.state.Conn = Open
	s.publishLocked()
	s.mu.Unlock()
	s.logger.Info("connected to room", "room", roomID)

	s.wg.Add(2)
	go s.readLoop(gen, conn)
	go s.refresh(refreshCtx, gen, roomID, true)
}

func (s *Sync) readLoop(gen uint64, conn Conn) {
	defer s.wg.Done()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.connLost(gen, err)
			return
		}

		ev, err := Decode(data)
		if err != nil {
			s.logger.Warn("ignoring push event", "error", err)
			continue
		}
		if u, ok := ev.(Unknown); ok {
			s.logger.Warn("unknown push event type", "type", u.Kind)
			continue
		}
		s.dispatch(gen, ev, true)
	}
}

func (s *Sync) connLost(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}

	if errors.Is(err, ErrClosed) {
		s.logger.Info("room socket closed by server")
		s.state.Conn = Disconnected
	} else {
		s.logger.Error("websocket error", "error", err)
		s.state.Conn = ClosedError
		s.state.Err = connectionFailed
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.publishLocked()
}

// dispatch applies ev when gen is still current.
func (s *Sync) dispatch(gen uint64, ev Event, announce bool) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	next, effect := Apply(s.state, ev)
	s.state = next
	s.publishLocked()

	var roomID string
	if s.state.Room != nil {
		roomID = s.state.Room.ID
	}
	cancelled := s.cancel == nil
	s.mu.Unlock()

	if announce {
		if n, ok := describe(ev); ok {
			s.notifier.Notify(n)
		}
	}

	if effect == RefreshMembers && roomID != "" && !cancelled {
		s.wg.Add(1)
		go s.refresh(context.Background(), gen, roomID, false)
	}
}

// refresh pulls members, and the queue when withQueue is set, to cover events missed while connecting.
func (s *Sync) refresh(ctx context.Context, gen uint64, roomID string, withQueue bool) {
	defer s.wg.Done()

	var g errgroup.Group
	if withQueue {
		g.Go(func() error {
			q, err := s.rooms.Queue(ctx, roomID)
			if err != nil {
				return err
			}
			s.dispatch(gen, QueueSnapshot{Queue: q}, false)
			return nil
		})
	}
	g.Go(func() error {
		m, err := s.rooms.Members(ctx, roomID)
		if err != nil {
			return err
		}
		s.dispatch(gen, MembersSnapshot{Members: m}, false)
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		s.logger.Warn("failed to refresh room", "room", roomID, "error", err)
	}
}
