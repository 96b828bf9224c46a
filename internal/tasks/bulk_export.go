package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/jamroom/internal/formatter"
	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk room exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: json)
	OutputDir  string           // Base output directory (default: jamroom_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Snapshots per second (default: 5)
	HTTPClient *http.Client     // Downloads Markdown cover art when set
}

// RoomExportResult is the outcome of exporting one room.
type RoomExportResult struct {
	RoomID   string   `json:"room_id"`
	RoomName string   `json:"room_name"`
	Success  bool     `json:"success"`
	Files    []string `json:"files,omitempty"`
	Error    error    `json:"-"`
}

// BulkExportResult summarizes a bulk export run.
type BulkExportResult struct {
	TotalRooms        int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []RoomExportResult
}

type roomExportJob struct {
	step   int
	export *models.RoomExport
}

// BulkExport snapshots and exports rooms concurrently with rate limiting and progress tracking.
//
// Partial failures are recorded per room. A manifest summarizing the run is written to the output directory.
func (e *RoomEngine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, roomIDs []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.rooms == nil {
		return nil, fmt.Errorf("%w: rooms service not initialized", shared.ErrServiceUnavailable)
	}
	if len(roomIDs) == 0 {
		return nil, fmt.Errorf("%w: room ids", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("jamroom_export_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalRooms:      len(roomIDs),
		OutputDirectory: opts.OutputDir,
		Results:         make([]RoomExportResult, 0, len(roomIDs)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan roomExportJob, len(roomIDs))
	results := make(chan RoomExportResult, len(roomIDs))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, roomID := range roomIDs {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			export, err := e.Snapshot(ctx, roomID, nil)
			if err != nil {
				results <- RoomExportResult{
					RoomID:   roomID,
					RoomName: fmt.Sprintf("Unknown (%s)", roomID),
					Error:    fmt.Errorf("failed to fetch room: %w", err),
				}
				continue
			}

			e.sendProgress(prog, exportingRoomUpdate(i+1, len(roomIDs), roomLabel(export.Room)))
			jobs <- roomExportJob{step: i + 1, export: export}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(roomIDs), res.RoomName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(roomIDs), res.RoomName, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, opts.Format, manifestPath, e.now()); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))
	return result, ctx.Err()
}

// exportWorker writes room exports from the jobs channel until it closes.
func (e *RoomEngine) exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan roomExportJob, results chan<- RoomExportResult, opts BulkExportOpts) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- RoomExportResult{
				RoomID:   job.export.Room.ID,
				RoomName: roomLabel(job.export.Room),
				Error:    ctx.Err(),
			}
			continue
		default:
		}
		results <- e.exportSingleRoom(ctx, job.export, opts)
	}
}

func (e *RoomEngine) exportSingleRoom(ctx context.Context, export *models.RoomExport, opts BulkExportOpts) RoomExportResult {
	result := RoomExportResult{
		RoomID:   export.Room.ID,
		RoomName: roomLabel(export.Room),
	}

	name := export.Room.Code
	if name == "" {
		name = export.Room.ID
	}
	path := filepath.Join(opts.OutputDir, name)
	if opts.Format != formatter.FormatMarkdown {
		path += opts.Format.Extension()
	}

	written, err := formatter.WriteExport(ctx, opts.HTTPClient, export, opts.Format, path)
	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return result
	}
	result.Files = written.Files
	result.Success = true
	return result
}

type manifest struct {
	ExportedAt time.Time        `json:"exported_at"`
	Format     formatter.Format `json:"format"`
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Rooms      []manifestEntry  `json:"rooms"`
}

type manifestEntry struct {
	RoomExportResult
	Error string `json:"error,omitempty"`
}

func writeManifest(result *BulkExportResult, format formatter.Format, path string, now time.Time) error {
	m := manifest{
		ExportedAt: now.UTC(),
		Format:     format,
		Total:      result.TotalRooms,
		Successful: result.SuccessfulExports,
		Failed:     result.FailedExports,
		Rooms:      make([]manifestEntry, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		entry := manifestEntry{RoomExportResult: r}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		m.Rooms = append(m.Rooms, entry)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func roomLabel(r models.Room) string {
	if r.Name != "" {
		return r.Name
	}
	if r.Code != "" {
		return r.Code
	}
	return r.ID
}
