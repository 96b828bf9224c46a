package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/jamroom/internal/formatter"
	"github.com/desertthunder/jamroom/internal/services"
	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/desertthunder/jamroom/internal/tasks"
	"github.com/urfave/cli/v3"
)

// printProgress writes progress updates until ch is closed, then closes done.
func (r *Runner) printProgress(ch <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range ch {
		if r.jsonOutput {
			continue
		}
		switch update.Phase {
		case tasks.FetchRoom, tasks.CollectTracks:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.AddTracks, tasks.ExportRoom:
			r.writePlain("   %s\n", update.Message)
		case tasks.WriteManifest:
			r.writePlain("\n📝 %s\n", update.Message)
		}
	}
}

// RoomExport exports a single room to a file, or several rooms concurrently into a directory with a manifest.
func (r *Runner) RoomExport(ctx context.Context, cmd *cli.Command) error {
	roomIDs := cmd.Args().Slice()
	if len(roomIDs) == 0 {
		return fmt.Errorf("%w: at least one room id", shared.ErrMissingArgument)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	if len(roomIDs) == 1 {
		return r.exportRoom(ctx, roomIDs[0], format, cmd.String("output"))
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progressCh, done)

	result, err := r.engine.BulkExport(ctx, progressCh, roomIDs, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		HTTPClient: r.httpClient,
	})
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	return r.writeResult(result, func() error {
		r.writePlain("\n")
		r.writePlainHeader("Export Complete!")
		r.writePlain("Directory: %s\n", result.OutputDirectory)
		r.writePlain("Manifest: %s\n", result.ManifestPath)
		r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalRooms)
		if result.FailedExports > 0 {
			r.writePlain("\nFailed to export %d rooms:\n", result.FailedExports)
			for _, res := range result.Results {
				if !res.Success {
					r.writePlain("  - %s: %v\n", res.RoomID, res.Error)
				}
			}
		}
		return nil
	})
}

func (r *Runner) exportRoom(ctx context.Context, roomID string, format formatter.Format, output string) error {
	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go r.printProgress(progressCh, done)

	export, err := r.engine.Snapshot(ctx, roomID, progressCh)
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	r.withStore()
	r.cacheQueue(export.Queue)

	result, err := formatter.WriteExport(ctx, r.httpClient, export, format, output)
	if err != nil {
		return err
	}

	return r.writeResult(result, func() error {
		r.writePlain("✓ Exported %s (%d tracks)\n", export.Room.Name, len(export.Queue))
		for _, f := range result.Files {
			r.writePlain("  %s\n", f)
		}
		r.writePlain("Size: %s\n", result.Size)
		return nil
	})
}

// RoomSeed fills a room queue through the rate-limited worker pool.
func (r *Runner) RoomSeed(ctx context.Context, cmd *cli.Command) error {
	roomID, err := requireArg("room id", cmd.StringArg("room-id"))
	if err != nil {
		return err
	}
	tr, err := services.ParseTimeRange(cmd.String("range"))
	if err != nil {
		return err
	}
	if err := r.requireSession(); err != nil {
		return err
	}
	r.withStore()

	opts := tasks.SeedOpts{
		Queries:    cmd.StringSlice("query"),
		TopTracks:  int(cmd.Int("top")),
		TimeRange:  tr,
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
		DryRun:     cmd.Bool("dry-run"),
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progressCh, done)

	result, err := r.engine.Seed(ctx, progressCh, roomID, opts)
	close(progressCh)
	<-done
	if result == nil {
		return err
	}

	writeErr := r.writeResult(result, func() error {
		r.writePlain("\n")
		if opts.DryRun {
			r.writePlainHeader("Seed Dry Run")
		} else {
			r.writePlainHeader("Seed Complete!")
		}
		r.writePlain("Added: %d/%d\n", result.Added, result.Total)
		if result.Failed > 0 {
			r.writePlain("\nFailed %d:\n", result.Failed)
			for _, res := range result.Results {
				if res.Error != nil {
					r.writePlain("  - %s: %v\n", res.Query, res.Error)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return writeErr
}
