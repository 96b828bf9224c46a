package playback

import (
	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
)

// DefaultVolume is the volume a fresh session starts at.
const DefaultVolume = 50

// divergence is how far the polled position may drift before it overwrites local state.
const divergence = 3000

// State is the single playback record of a client session.
type State struct {
	DeviceID    string
	Active      bool
	Paused      bool
	Track       models.Track
	ProgressMs  int
	Volume      int
	SyncEnabled bool
}

// NewState returns the state of a session that has not heard from any device yet.
func NewState(volume int) State {
	return State{
		Paused: true,
		Track:  models.NotPlayingTrack(),
		Volume: shared.Clamp(volume, 0, 100),
	}
}

// Fraction is the elapsed share of the current track in [0, 1].
func (s State) Fraction() float64 {
	if s.Track.DurationMS <= 0 {
		return 0
	}
	return float64(s.ProgressMs) / float64(s.Track.DurationMS)
}

// advance moves progress forward by step and reports whether the ticker should keep running.
// Progress is clamped to the track duration; reaching it stops the ticker.
func advance(s State, step int) (State, bool) {
	if s.Paused || s.Track.DurationMS <= 0 {
		return s, false
	}
	next := s.ProgressMs + step
	if next >= s.Track.DurationMS {
		s.ProgressMs = s.Track.DurationMS
		return s, false
	}
	s.ProgressMs = next
	return s, true
}

// applyDevice overwrites track, paused and progress from a player event. A nil ds means nothing is loaded.
func applyDevice(s State, ds *DeviceState) State {
	if ds == nil {
		s.Track = models.NotPlayingTrack()
		s.Paused = true
		s.ProgressMs = 0
		return s
	}
	s.Track = ds.Track
	s.Paused = ds.Paused
	s.ProgressMs = clampProgress(ds.PositionMs, ds.Track.DurationMS)
	return s
}

// applySnapshot merges a backend snapshot. Snapshots without an item are ignored.
func applySnapshot(s State, snap *models.PlayerSnapshot) State {
	if snap == nil || snap.Item == nil {
		return s
	}
	s.Track = *snap.Item
	s.Paused = !snap.IsPlaying
	s.ProgressMs = clampProgress(snap.ProgressMS, snap.Item.DurationMS)
	if v, ok := snap.Volume(); ok {
		s.Volume = shared.Clamp(v, 0, 100)
	}
	return s
}

// diverged reports whether snap disagrees materially with s.
func diverged(s State, snap *models.PlayerSnapshot) bool {
	if snap == nil || snap.Item == nil {
		return false
	}
	if snap.Item.ID != s.Track.ID {
		return true
	}
	d := snap.ProgressMS - s.ProgressMs
	if d < 0 {
		d = -d
	}
	return d > divergence
}

func clampProgress(pos, duration int) int {
	if pos < 0 {
		return 0
	}
	if duration > 0 && pos > duration {
		return duration
	}
	return pos
}
