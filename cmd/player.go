package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/services"
	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// providerAPI returns a Web API client authorized by the streaming token, fetching it from the backend when unset.
func (r *Runner) providerAPI(ctx context.Context) *services.SpotifyService {
	tokens := services.NewStreamingTokenSource(r.profile, r.config.Credentials.StreamingToken)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	return services.NewSpotifyService(ctx, tokens, r.provider)
}

// backendDevice returns deviceID, or the device of the current playback.
func (r *Runner) backendDevice(ctx context.Context, deviceID string) (string, error) {
	if deviceID != "" {
		return deviceID, nil
	}
	snap, err := r.playback.State(ctx)
	if err != nil {
		return "", err
	}
	if snap == nil || snap.Device == nil || snap.Device.ID == "" {
		return "", fmt.Errorf("%w: pass --device", shared.ErrNoDevice)
	}
	return snap.Device.ID, nil
}

// providerDevice returns deviceID, or the configured device found through the Web API.
func (r *Runner) providerDevice(ctx context.Context, api *services.SpotifyService, deviceID string) (string, error) {
	if deviceID != "" {
		return deviceID, nil
	}
	device, err := api.FindDevice(ctx, r.config.Player.DeviceName)
	if err != nil {
		return "", err
	}
	return device.ID, nil
}

type playerState struct {
	Playing    bool   `json:"playing"`
	Track      string `json:"track,omitempty"`
	Artist     string `json:"artist,omitempty"`
	URI        string `json:"uri,omitempty"`
	ProgressMS int    `json:"progress_ms"`
	DurationMS int    `json:"duration_ms"`
	Device     string `json:"device,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
	Volume     *int   `json:"volume,omitempty"`
}

func newPlayerState(snap *models.PlayerSnapshot) playerState {
	state := playerState{Playing: snap.IsPlaying, ProgressMS: snap.ProgressMS}
	if snap.Item != nil {
		state.Track = snap.Item.Name
		state.Artist = snap.Item.ArtistNames()
		state.URI = snap.Item.PlayableURI()
		state.DurationMS = snap.Item.DurationMS
	}
	if snap.Device != nil {
		state.Device = snap.Device.Name
		state.DeviceID = snap.Device.ID
	}
	if v, ok := snap.Volume(); ok {
		state.Volume = &v
	}
	return state
}

// PlayerState prints the current playback.
func (r *Runner) PlayerState(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	snap, err := r.playback.State(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return r.writeResult(nil, func() error {
			return r.writePlain("Nothing is playing.\n")
		})
	}

	state := newPlayerState(snap)
	return r.writeResult(state, func() error {
		status := "▶ Playing"
		if !state.Playing {
			status = "⏸ Paused"
		}
		r.writePlain("%s: %s - %s\n", status, state.Artist, state.Track)
		r.writePlain("Progress: %s / %s\n", shared.FormatDuration(state.ProgressMS), shared.FormatDuration(state.DurationMS))
		if state.Device != "" {
			r.writePlain("Device: %s (%s)\n", state.Device, state.DeviceID)
		}
		if state.Volume != nil {
			r.writePlain("Volume: %d%%\n", *state.Volume)
		}
		return nil
	})
}

// PlayerPlay starts a track URI.
func (r *Runner) PlayerPlay(ctx context.Context, cmd *cli.Command) error {
	uri, err := requireArg("track uri", cmd.StringArg("uri"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}
	deviceID, err := r.backendDevice(ctx, cmd.String("device"))
	if err != nil {
		return err
	}
	if err := r.playback.Play(ctx, uri, deviceID); err != nil {
		return err
	}
	return r.writePlain("✓ Playing %s\n", uri)
}

// PlayerPause pauses playback.
func (r *Runner) PlayerPause(ctx context.Context, cmd *cli.Command) error {
	return r.deviceAction(ctx, cmd, "Paused", r.playback.Pause)
}

// PlayerNext skips to the next track.
func (r *Runner) PlayerNext(ctx context.Context, cmd *cli.Command) error {
	return r.deviceAction(ctx, cmd, "Skipped to next", r.playback.Next)
}

// PlayerPrevious skips to the previous track.
func (r *Runner) PlayerPrevious(ctx context.Context, cmd *cli.Command) error {
	return r.deviceAction(ctx, cmd, "Skipped to previous", r.playback.Previous)
}

func (r *Runner) deviceAction(ctx context.Context, cmd *cli.Command, done string, call func(context.Context, string) error) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	deviceID, err := r.backendDevice(ctx, cmd.String("device"))
	if err != nil {
		return err
	}
	if err := call(ctx, deviceID); err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", done)
}

// PlayerToggle pauses or resumes the device through the provider Web API.
func (r *Runner) PlayerToggle(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	api := r.providerAPI(ctx)
	deviceID, err := r.providerDevice(ctx, api, cmd.String("device"))
	if err != nil {
		return err
	}

	snap, err := api.CurrentPlayback(ctx)
	if err != nil {
		return err
	}
	if snap != nil && snap.IsPlaying {
		if err := api.Pause(ctx, deviceID); err != nil {
			return err
		}
		return r.writePlain("✓ Paused\n")
	}
	if err := api.Play(ctx, deviceID); err != nil {
		return err
	}
	return r.writePlain("✓ Resumed\n")
}

// PlayerTransfer moves playback to a device.
func (r *Runner) PlayerTransfer(ctx context.Context, cmd *cli.Command) error {
	deviceID, err := requireArg("device id", cmd.StringArg("device-id"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}
	if err := r.playback.Transfer(ctx, deviceID, cmd.Bool("play")); err != nil {
		return err
	}
	return r.writePlain("✓ Playback transferred to %s\n", deviceID)
}

// PlayerVolume sets the configured device's volume through the provider Web API.
func (r *Runner) PlayerVolume(ctx context.Context, cmd *cli.Command) error {
	raw, err := requireArg("volume percent", cmd.StringArg("percent"))
	if err != nil {
		return err
	}
	percent, err := strconv.Atoi(raw)
	if err != nil || percent < 0 || percent > 100 {
		return fmt.Errorf("%w: volume must be an integer between 0 and 100", shared.ErrInvalidArgument)
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	api := r.providerAPI(ctx)
	deviceID, err := r.providerDevice(ctx, api, "")
	if err != nil {
		return err
	}
	if err := api.SetVolume(ctx, deviceID, percent); err != nil {
		return err
	}
	return r.writePlain("✓ Volume set to %d%%\n", percent)
}
