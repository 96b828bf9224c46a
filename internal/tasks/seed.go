package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/services"
	"github.com/desertthunder/jamroom/internal/shared"
	"golang.org/x/time/rate"
)

// SeedOpts configures [RoomEngine.Seed]. Exactly one of Queries or TopTracks must be set.
type SeedOpts struct {
	Queries    []string           // Free-text queries, each resolved to its best match
	TopTracks  int                // Number of the user's top tracks to add
	TimeRange  services.TimeRange // Window for TopTracks (default: medium_term)
	NumWorkers int                // Concurrent workers (default: 3, max: 8)
	RateLimit  float64            // Requests per second (default: 5)
	DryRun     bool               // Resolve tracks without adding them
}

// SeedTrackResult is the outcome for one query or top track.
type SeedTrackResult struct {
	Query string        // Query, or the track name for top tracks
	Track *models.Track // Resolved track (nil when nothing matched)
	Added bool
	Error error
}

// SeedResult summarizes a seeding run. Results keep input order.
type SeedResult struct {
	RoomID  string
	Total   int
	Added   int
	Failed  int
	Results []SeedTrackResult
}

type seedOutcome struct {
	index int
	res   SeedTrackResult
}

type seedJob struct {
	index int
	query string
	track *models.Track
}

// Seed adds tracks to a room queue through a rate-limited worker pool.
//
// A failed search or add is recorded in the result and does not stop the run.
// Cancelling ctx stops dispatch; tracks not yet dispatched are reported as failed.
func (e *RoomEngine) Seed(ctx context.Context, prog chan<- ProgressUpdate, roomID string, opts SeedOpts) (*SeedResult, error) {
	if e.rooms == nil {
		return nil, fmt.Errorf("%w: rooms service not initialized", shared.ErrServiceUnavailable)
	}
	if roomID == "" {
		return nil, fmt.Errorf("%w: room id", shared.ErrMissingArgument)
	}

	jobs, err := e.collect(ctx, prog, opts)
	if err != nil {
		return nil, err
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	result := &SeedResult{
		RoomID:  roomID,
		Total:   len(jobs),
		Results: make([]SeedTrackResult, len(jobs)),
	}
	for i, j := range jobs {
		result.Results[i] = SeedTrackResult{Query: j.query, Error: context.Canceled}
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	queue := make(chan seedJob)
	done := make(chan seedOutcome, len(jobs))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				done <- seedOutcome{index: job.index, res: e.seedOne(ctx, limiter, roomID, job, opts.DryRun)}
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case queue <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for out := range done {
		completed++
		res := out.res
		result.Results[out.index] = res

		if res.Added || (opts.DryRun && res.Error == nil) {
			e.sendProgress(prog, trackAddedUpdate(completed, result.Total, res.Track))
		} else {
			e.sendProgress(prog, trackFailedUpdate(completed, result.Total, res.Query, res.Error))
		}
	}

	for _, res := range result.Results {
		if res.Added {
			result.Added++
		} else if res.Error != nil {
			result.Failed++
		}
	}
	return result, ctx.Err()
}

// collect turns opts into seed jobs, fetching top tracks when requested.
func (e *RoomEngine) collect(ctx context.Context, prog chan<- ProgressUpdate, opts SeedOpts) ([]seedJob, error) {
	queries := make([]string, 0, len(opts.Queries))
	for _, q := range opts.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}

	switch {
	case len(queries) > 0 && opts.TopTracks > 0:
		return nil, fmt.Errorf("%w: use either queries or top tracks", shared.ErrInvalidArgument)
	case len(queries) > 0:
		if e.search == nil {
			return nil, fmt.Errorf("%w: search service not initialized", shared.ErrServiceUnavailable)
		}
		jobs := make([]seedJob, len(queries))
		for i, q := range queries {
			jobs[i] = seedJob{index: i, query: q}
		}
		e.sendProgress(prog, collectTracksUpdate(len(jobs), "queries"))
		return jobs, nil
	case opts.TopTracks > 0:
		if e.profile == nil {
			return nil, fmt.Errorf("%w: profile service not initialized", shared.ErrServiceUnavailable)
		}
		tr := opts.TimeRange
		if tr == "" {
			tr = services.MediumTerm
		}
		tracks, err := e.profile.TopTracks(ctx, opts.TopTracks, 0, tr)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to get top tracks: %v", shared.ErrAPIRequest, err)
		}
		jobs := make([]seedJob, len(tracks))
		for i := range tracks {
			jobs[i] = seedJob{index: i, query: tracks[i].Name, track: &tracks[i]}
		}
		e.sendProgress(prog, collectTracksUpdate(len(jobs), "top tracks"))
		return jobs, nil
	}
	return nil, fmt.Errorf("%w: queries or top tracks", shared.ErrMissingArgument)
}

func (e *RoomEngine) seedOne(ctx context.Context, limiter *rate.Limiter, roomID string, job seedJob, dryRun bool) SeedTrackResult {
	res := SeedTrackResult{Query: job.query, Track: job.track}

	if res.Track == nil {
		if err := limiter.Wait(ctx); err != nil {
			res.Error = err
			return res
		}
		tracks, err := e.search.Tracks(ctx, job.query, 1)
		if err != nil {
			res.Error = fmt.Errorf("search failed: %w", err)
			return res
		}
		if len(tracks) == 0 {
			res.Error = fmt.Errorf("%w: no match for %q", shared.ErrTrackNotFound, job.query)
			return res
		}
		res.Track = &tracks[0]
	}

	if dryRun {
		return res
	}

	if err := limiter.Wait(ctx); err != nil {
		res.Error = err
		return res
	}
	if err := e.rooms.AddToQueue(ctx, roomID, res.Track.QueueRequest()); err != nil {
		res.Error = fmt.Errorf("failed to add to queue: %w", err)
		return res
	}
	res.Added = true
	return res
}
