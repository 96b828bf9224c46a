package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/playback"
	"github.com/desertthunder/jamroom/internal/shared"
)

// drift is how far a reported position may stray from the expected one before it counts as a change.
const drift = 2000

// Player drives one provider device and reports its playback as [playback.Event] values.
type Player struct {
	api      WebAPI
	name     string
	volume   int
	interval time.Duration
	logger   *log.Logger

	events chan playback.Event
	once   sync.Once
	wg     sync.WaitGroup

	mu       sync.Mutex
	deviceID string
	last     *playback.DeviceState
	away     bool
	cancel   context.CancelFunc
}

// NewPlayer creates a player for the device named opts.Name. An empty name selects the active device.
func NewPlayer(api WebAPI, opts playback.PlayerOptions, interval time.Duration, logger *log.Logger) *Player {
	if interval <= 0 {
		interval = time.Second
	}
	return &Player{
		api:      api,
		name:     opts.Name,
		volume:   opts.Volume,
		interval: interval,
		logger:   logger,
		events:   make(chan playback.Event, 16),
	}
}

func (p *Player) Events() <-chan playback.Event { return p.events }

// DeviceID returns the connected device, if any.
func (p *Player) DeviceID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deviceID
}

// Connect finds the device, emits [playback.Ready] and starts polling its state until ctx ends or Disconnect.
func (p *Player) Connect(ctx context.Context) error {
	d, err := p.api.FindDevice(ctx, p.name)
	if err != nil {
		p.emit(ctx, playback.Error{Category: categorize(err, playback.InitializationError), Message: err.Error()})
		return fmt.Errorf("connect player: %w", err)
	}

	if err := p.api.SetVolume(ctx, d.ID, p.volume); err != nil {
		p.logger.Warn("failed to set initial volume", "device", d.Name, "error", err)
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.deviceID = d.ID
	p.cancel = cancel
	p.mu.Unlock()

	p.logger.Info("connected to device", "name", d.Name, "id", d.ID)
	p.emit(ctx, playback.Ready{DeviceID: d.ID})

	p.wg.Add(1)
	go p.poll(pollCtx)
	return nil
}

// Disconnect stops polling and closes the event channel.
func (p *Player) Disconnect() {
	p.once.Do(func() {
		p.mu.Lock()
		cancel := p.cancel
		p.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		p.wg.Wait()
		close(p.events)
	})
}

func (p *Player) emit(ctx context.Context, ev playback.Event) {
	select {
	case p.events <- ev:
	case <-ctx.Done():
	}
}

func (p *Player) poll(ctx context.Context) {
	defer p.wg.Done()

	t := time.NewTicker(p.interval)
	defer t.Stop()

	p.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.check(ctx)
		}
	}
}

// check fetches current playback and emits StateChanged when it moved materially.
// Playback moving to another device emits NotReady, and Ready once it comes back.
func (p *Player) check(ctx context.Context) {
	snap, err := p.api.CurrentPlayback(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.emit(ctx, playback.Error{Category: categorize(err, playback.PlaybackError), Message: err.Error()})
		return
	}

	p.mu.Lock()
	id := p.deviceID
	next := deviceState(snap, id)
	moved := changed(p.last, next, int(p.interval/time.Millisecond))
	p.last = next
	wasAway := p.away
	if snap != nil && snap.Device != nil && snap.Device.ID != "" {
		p.away = snap.Device.ID != id
	}
	away := p.away
	p.mu.Unlock()

	if moved {
		p.emit(ctx, playback.StateChanged{State: next})
	}
	switch {
	case away && !wasAway:
		p.logger.Info("playback moved to another device", "device", id, "active", snap.Device.ID)
		p.emit(ctx, playback.NotReady{DeviceID: id})
	case !away && wasAway:
		p.logger.Info("playback returned to device", "device", id)
		p.emit(ctx, playback.Ready{DeviceID: id})
	}
}

// deviceState converts a snapshot into the device's own view. Playback on another device means nothing is loaded here.
func deviceState(snap *models.PlayerSnapshot, deviceID string) *playback.DeviceState {
	if snap == nil || snap.Item == nil {
		return nil
	}
	if snap.Device != nil && snap.Device.ID != "" && snap.Device.ID != deviceID {
		return nil
	}
	return &playback.DeviceState{Track: *snap.Item, Paused: !snap.IsPlaying, PositionMs: snap.ProgressMS}
}

// changed reports a new track, a flipped paused flag or a position that jumped away from where playback should be.
func changed(prev, next *playback.DeviceState, elapsed int) bool {
	switch {
	case prev == nil && next == nil:
		return false
	case prev == nil || next == nil:
		return true
	case prev.Track.ID != next.Track.ID || prev.Paused != next.Paused:
		return true
	}

	expected := prev.PositionMs
	if !prev.Paused {
		expected += elapsed
	}
	d := next.PositionMs - expected
	if d < 0 {
		d = -d
	}
	return d > drift
}

// TogglePlay pauses the device when it is playing and resumes it otherwise.
func (p *Player) TogglePlay(ctx context.Context) error {
	id := p.DeviceID()
	if id == "" {
		return fmt.Errorf("%w: player not connected", shared.ErrNoDevice)
	}

	snap, err := p.api.CurrentPlayback(ctx)
	if err != nil {
		return err
	}
	if st := deviceState(snap, id); st != nil && !st.Paused {
		return p.api.Pause(ctx, id)
	}
	return p.api.Play(ctx, id)
}

func (p *Player) Pause(ctx context.Context) error {
	id := p.DeviceID()
	if id == "" {
		return fmt.Errorf("%w: player not connected", shared.ErrNoDevice)
	}
	return p.api.Pause(ctx, id)
}

func (p *Player) SetVolume(ctx context.Context, percent int) error {
	id := p.DeviceID()
	if id == "" {
		return fmt.Errorf("%w: player not connected", shared.ErrNoDevice)
	}
	return p.api.SetVolume(ctx, id, percent)
}

func categorize(err error, fallback playback.ErrorCategory) playback.ErrorCategory {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return playback.AuthenticationError
	case errors.Is(err, shared.ErrForbidden):
		return playback.AccountError
	default:
		return fallback
	}
}

var _ playback.Player = (*Player)(nil)
