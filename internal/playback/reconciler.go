package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/notify"
	"github.com/desertthunder/jamroom/internal/shared"
)

const tickStep = 1000

// Options configures a [Reconciler].
type Options struct {
	Backend Backend
	SDK     SDK
	// DeviceName is passed to the player as its name.
	DeviceName string
	Volume     int
	// SyncInterval enables periodic reconciliation when positive.
	SyncInterval time.Duration
	// NewTicker defaults to [NewTimeTicker].
	NewTicker TickerFunc
	Notifier  notify.Notifier
	Logger    *log.Logger
}

// session is everything bound to one credential.
type session struct {
	token  string
	player Player
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Reconciler owns the playback state and the player of the current credential.
type Reconciler struct {
	backend      Backend
	sdk          SDK
	name         string
	syncInterval time.Duration
	newTicker    TickerFunc
	notifier     notify.Notifier
	logger       *log.Logger

	// sessMu serializes credential changes and teardown.
	sessMu sync.Mutex
	sess   *session

	mu          sync.Mutex
	state       State
	snapshotFor string
	tickStop    chan struct{}
	subs        []chan State
	closed      bool

	wg sync.WaitGroup
}

// New creates a Reconciler with no credential.
func New(opts Options) *Reconciler {
	r := &Reconciler{
		backend:      opts.Backend,
		sdk:          opts.SDK,
		name:         opts.DeviceName,
		syncInterval: opts.SyncInterval,
		newTicker:    opts.NewTicker,
		notifier:     opts.Notifier,
		logger:       opts.Logger,
	}
	volume := opts.Volume
	if volume == 0 {
		volume = DefaultVolume
	}
	r.state = NewState(volume)

	if r.newTicker == nil {
		r.newTicker = NewTimeTicker
	}
	if r.notifier == nil {
		r.notifier = notify.Discard
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	return r
}

// Snapshot returns the current state.
func (r *Reconciler) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe returns a channel receiving the latest state after every change.
// The channel closes with the Reconciler.
func (r *Reconciler) Subscribe() <-chan State {
	ch := make(chan State, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		close(ch)
		return ch
	}
	r.subs = append(r.subs, ch)
	ch <- r.state
	return ch
}

func (r *Reconciler) publishLocked() {
	if r.closed {
		return
	}
	for _, ch := range r.subs {
		select {
		case ch <- r.state:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- r.state:
			default:
			}
		}
	}
}

func (r *Reconciler) update(fn func(*State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.state)
	r.publishLocked()
}

// SetCredential tears down the previous session and starts one for token.
// An empty token only tears down.
func (r *Reconciler) SetCredential(ctx context.Context, token string) {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()

	if r.sess != nil && r.sess.token == token {
		return
	}
	r.teardownLocked()

	if token == "" || r.isClosed() {
		return
	}

	r.restoreSnapshot(ctx, token)

	if err := r.sdk.Load(ctx); err != nil {
		r.logger.Error("failed to load playback SDK", "error", err)
		return
	}

	player, err := r.sdk.NewPlayer(PlayerOptions{Token: token, Name: r.name, Volume: r.Snapshot().Volume})
	if err != nil {
		r.logger.Error("failed to create player", "error", err)
		return
	}

	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &session{token: token, player: player, cancel: cancel}
	r.sess = s

	p := &poller{
		backend:   r.backend,
		interval:  r.syncInterval,
		newTicker: r.newTicker,
		logger:    r.logger.With("component", "sync"),
		active:    func() bool { return r.Snapshot().Active },
		enable:    func(on bool) { r.update(func(st *State) { st.SyncEnabled = on }) },
		observe:   r.observe,
	}

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		r.dispatch(sessCtx, player)
	}()
	go func() {
		defer s.wg.Done()
		if err := player.Connect(sessCtx); err != nil && sessCtx.Err() == nil {
			r.logger.Error("player failed to connect", "error", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		p.run(sessCtx)
	}()
}

// restoreSnapshot merges the backend's view of playback once per credential.
func (r *Reconciler) restoreSnapshot(ctx context.Context, token string) {
	r.mu.Lock()
	if r.snapshotFor == token {
		r.mu.Unlock()
		return
	}
	r.snapshotFor = token
	r.mu.Unlock()

	snap, err := r.backend.State(ctx)
	if err != nil {
		r.logger.Warn("failed to fetch initial player state", "error", err)
		return
	}
	if snap == nil || snap.Item == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = applySnapshot(r.state, snap)
	r.restartTickerLocked()
	r.publishLocked()
}

// teardownLocked stops the poller and the player of the current session, then the ticker.
// The last device id is kept so TogglePlay can resume through the backend. sessMu must be held.
func (r *Reconciler) teardownLocked() {
	s := r.sess
	r.sess = nil
	if s != nil {
		s.cancel()
		s.wg.Wait()
		s.player.Disconnect()
	}

	r.mu.Lock()
	r.stopTickerLocked()
	if s != nil {
		r.state.Active = false
		r.state.SyncEnabled = false
		r.publishLocked()
	}
	r.mu.Unlock()

	if s != nil {
		r.logger.Debug("playback session torn down")
	}
}

func (r *Reconciler) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close tears down the session and closes subscriber channels.
func (r *Reconciler) Close() {
	r.sessMu.Lock()
	r.teardownLocked()
	r.sessMu.Unlock()

	r.mu.Lock()
	if !r.closed {
		r.closed = true
		r.stopTickerLocked()
		for _, ch := range r.subs {
			close(ch)
		}
		r.subs = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) dispatch(ctx context.Context, player Player) {
	events := player.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.handle(ctx, ev)
		}
	}
}

func (r *Reconciler) handle(ctx context.Context, ev Event) {
	if ctx.Err() != nil {
		return
	}
	switch ev := ev.(type) {
	case Ready:
		r.logger.Info("player ready", "device", ev.DeviceID)
		r.update(func(st *State) {
			st.DeviceID = ev.DeviceID
			st.Active = true
		})
		if err := r.backend.Transfer(ctx, ev.DeviceID, false); err != nil {
			r.logger.Warn("failed to transfer playback", "device", ev.DeviceID, "error", err)
		}
	case NotReady:
		r.logger.Warn("device went offline", "device", ev.DeviceID)
		r.update(func(st *State) { st.Active = false })
	case StateChanged:
		r.mu.Lock()
		r.state = applyDevice(r.state, ev.State)
		if ev.State == nil {
			r.stopTickerLocked()
		} else {
			r.restartTickerLocked()
		}
		r.publishLocked()
		r.mu.Unlock()
	case Error:
		r.logger.Error("player error", "category", ev.Category, "message", ev.Message)
	}
}

// observe overwrites local state with a polled snapshot when they diverge.
func (r *Reconciler) observe(snap *models.PlayerSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !diverged(r.state, snap) {
		return
	}
	r.logger.Debug("syncing player state from backend", "track", snap.Item.ID, "progress", snap.ProgressMS)
	r.state = applySnapshot(r.state, snap)
	r.restartTickerLocked()
	r.publishLocked()
}

func (r *Reconciler) stopTickerLocked() {
	if r.tickStop != nil {
		close(r.tickStop)
		r.tickStop = nil
	}
}

// restartTickerLocked replaces the progress ticker. It only runs while unpaused. mu must be held.
func (r *Reconciler) restartTickerLocked() {
	r.stopTickerLocked()
	if r.closed || r.state.Paused || r.state.Track.DurationMS <= 0 {
		return
	}

	t := r.newTicker(time.Second)
	stop := make(chan struct{})
	r.tickStop = stop

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C():
			}

			r.mu.Lock()
			select {
			case <-stop:
				r.mu.Unlock()
				return
			default:
			}
			next, more := advance(r.state, tickStep)
			r.state = next
			r.publishLocked()
			if !more && r.tickStop == stop {
				r.tickStop = nil
			}
			r.mu.Unlock()

			if !more {
				return
			}
		}
	}()
}

func (r *Reconciler) player() Player {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()
	if r.sess == nil {
		return nil
	}
	return r.sess.player
}

func (r *Reconciler) credential() string {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()
	if r.sess == nil {
		return ""
	}
	return r.sess.token
}

// PlayTrack starts uri on deviceID, falling back to the known device.
// An empty uri pauses instead. State only changes when the device reports back.
func (r *Reconciler) PlayTrack(ctx context.Context, uri, deviceID string) bool {
	if deviceID == "" {
		deviceID = r.Snapshot().DeviceID
	}
	if deviceID == "" {
		notify.Errorf(r.notifier, "Playback", "No active device. Open the player first.")
		return false
	}

	if uri == "" {
		if p := r.player(); p != nil {
			if err := p.Pause(ctx); err != nil {
				r.logger.Error("failed to pause player", "error", err)
				return false
			}
			return true
		}
		if err := r.backend.Pause(ctx, deviceID); err != nil {
			r.logger.Error("failed to pause", "device", deviceID, "error", err)
			return false
		}
		return true
	}

	if err := r.backend.Play(ctx, uri, deviceID); err != nil {
		r.logger.Error("failed to play track", "uri", uri, "device", deviceID, "error", err)
		notify.Errorf(r.notifier, "Playback Failed", "Could not play track: %v", err)
		return false
	}
	return true
}

// TogglePlay resumes through the backend when no local player exists, otherwise toggles the player.
func (r *Reconciler) TogglePlay(ctx context.Context) {
	st := r.Snapshot()
	p := r.player()

	switch {
	case p == nil && st.DeviceID != "" && !st.Track.IsNotPlaying() && st.Track.PlayableURI() != "":
		r.PlayTrack(ctx, st.Track.PlayableURI(), st.DeviceID)
	case p != nil:
		if err := p.TogglePlay(ctx); err != nil {
			r.logger.Error("failed to toggle playback", "error", err)
		}
	default:
		r.logger.Warn("cannot toggle playback: no player and nothing to resume")
	}
}

// SkipToNext asks the backend to skip forward. Failures are only logged.
func (r *Reconciler) SkipToNext(ctx context.Context) {
	r.skip(ctx, "next", r.backend.Next)
}

// SkipToPrevious asks the backend to skip back. Failures are only logged.
func (r *Reconciler) SkipToPrevious(ctx context.Context) {
	r.skip(ctx, "previous", r.backend.Previous)
}

func (r *Reconciler) skip(ctx context.Context, dir string, call func(context.Context, string) error) {
	deviceID := r.Snapshot().DeviceID
	if deviceID == "" {
		r.logger.Warn("cannot skip: no device", "direction", dir)
		return
	}
	if err := call(ctx, deviceID); err != nil {
		r.logger.Error("failed to skip", "direction", dir, "device", deviceID, "error", err)
	}
}

// SetPlayerVolume sets the volume locally right away and pushes it to the player in the background.
func (r *Reconciler) SetPlayerVolume(ctx context.Context, v int) {
	v = shared.Clamp(v, 0, 100)
	p := r.player()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.state.Volume = v
	r.publishLocked()

	if p == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := p.SetVolume(context.WithoutCancel(ctx), v); err != nil {
			r.logger.Warn("failed to set player volume", "volume", v, "error", err)
		}
	}()
}

// PauseCurrentTrack pauses through the backend. It is used to stop playback deterministically on logout.
func (r *Reconciler) PauseCurrentTrack(ctx context.Context) error {
	if r.credential() == "" {
		r.logger.Warn("cannot pause: no credential")
		return fmt.Errorf("%w: cannot pause without a credential", shared.ErrNoCredential)
	}
	deviceID := r.Snapshot().DeviceID
	if deviceID == "" {
		r.logger.Warn("cannot pause: no device")
		return fmt.Errorf("%w: cannot pause", shared.ErrNoDevice)
	}

	if err := r.backend.Pause(ctx, deviceID); err != nil {
		r.logger.Error("failed to pause current track", "error", err)
		return err
	}
	return nil
}
