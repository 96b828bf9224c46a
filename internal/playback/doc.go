// package playback reconciles the state of a provider playback device from three
// sources: player events, a one-shot backend snapshot and a periodic backend poll.
//
// A [Reconciler] owns one [Player] per credential and exposes transport
// controls that proxy through the backend. Progress between events is
// advanced locally by a one-second ticker that never runs past the end of
// the track.
package playback
