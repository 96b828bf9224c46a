package models

// Device is a provider playback device.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type,omitempty"`
	IsActive      bool   `json:"is_active"`
	VolumePercent *int   `json:"volume_percent"`
}

// PlayerSnapshot is the current playback as reported by the backend state endpoint.
type PlayerSnapshot struct {
	IsPlaying  bool    `json:"is_playing"`
	ProgressMS int     `json:"progress_ms"`
	Item       *Track  `json:"item"`
	Device     *Device `json:"device"`
}

// Volume returns the device volume when the snapshot carries one.
func (s *PlayerSnapshot) Volume() (int, bool) {
	if s == nil || s.Device == nil || s.Device.VolumePercent == nil {
		return 0, false
	}
	return *s.Device.VolumePercent, true
}
