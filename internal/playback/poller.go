package playback

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jamroom/internal/models"
)

// maxPollFailures consecutive failures disable polling for the rest of the session.
const maxPollFailures = 3

// poller periodically compares backend playback with local state.
type poller struct {
	backend   Backend
	interval  time.Duration
	newTicker TickerFunc
	logger    *log.Logger

	active  func() bool
	enable  func(bool)
	observe func(*models.PlayerSnapshot)
}

// run checks the state endpoint and, if it answers, polls until ctx ends or
// polling fails maxPollFailures times in a row.
func (p *poller) run(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Debug("periodic playback sync disabled by config")
		return
	}

	// A nil snapshot (204) means nothing is playing yet; the endpoint still works.
	if _, err := p.backend.State(ctx); err != nil {
		p.logger.Info("periodic playback sync disabled: state endpoint unavailable", "error", err)
		p.enable(false)
		return
	}
	p.enable(true)
	p.logger.Debug("periodic playback sync enabled", "interval", p.interval)

	t := p.newTicker(p.interval)
	defer t.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
		}

		if !p.active() {
			continue
		}

		snap, err := p.backend.State(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			p.logger.Error("error syncing player state", "error", err, "failures", failures)
			if failures >= maxPollFailures {
				p.logger.Warn("disabling player state sync due to repeated errors")
				p.enable(false)
				return
			}
			continue
		}

		failures = 0
		p.observe(snap)
	}
}
