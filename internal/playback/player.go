package playback

import (
	"context"
	"time"

	"github.com/desertthunder/jamroom/internal/models"
)

// Backend is the backend's playback proxy.
type Backend interface {
	Play(ctx context.Context, trackURI, deviceID string) error
	Pause(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	Previous(ctx context.Context, deviceID string) error
	Transfer(ctx context.Context, deviceID string, play bool) error
	State(ctx context.Context) (*models.PlayerSnapshot, error)
}

// PlayerOptions binds a player to a credential.
type PlayerOptions struct {
	Token  string
	Name   string
	Volume int
}

// SDK provides players. Load is idempotent and does its work once per process.
type SDK interface {
	Load(ctx context.Context) error
	NewPlayer(opts PlayerOptions) (Player, error)
}

// Player is one connected playback device.
//
// Events is closed after Disconnect. Connect may block until the device is
// found but must return once ctx is done; the reconciler cancels ctx and waits
// for Connect before calling Disconnect.
type Player interface {
	Connect(ctx context.Context) error
	Disconnect()
	Events() <-chan Event
	TogglePlay(ctx context.Context) error
	Pause(ctx context.Context) error
	SetVolume(ctx context.Context, percent int) error
}

// DeviceState is what a device reports about its playback.
type DeviceState struct {
	Track      models.Track
	Paused     bool
	PositionMs int
}

// Event is emitted by a [Player].
type Event interface {
	event()
}

// Ready is emitted once the device can take commands.
type Ready struct {
	DeviceID string
}

// NotReady is emitted when the device goes offline.
type NotReady struct {
	DeviceID string
}

// StateChanged carries new device playback. A nil State means nothing is loaded.
type StateChanged struct {
	State *DeviceState
}

// ErrorCategory classifies player errors.
type ErrorCategory string

const (
	InitializationError ErrorCategory = "initialization"
	AuthenticationError ErrorCategory = "authentication"
	AccountError        ErrorCategory = "account"
	PlaybackError       ErrorCategory = "playback"
)

// Error reports a player failure. None of them are fatal to the reconciler.
type Error struct {
	Category ErrorCategory
	Message  string
}

func (Ready) event()        {}
func (NotReady) event()     {}
func (StateChanged) event() {}
func (Error) event()        {}

// Ticker is the subset of [time.Ticker] the reconciler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates tickers. Tests substitute a manual one.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps [time.NewTicker].
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}
