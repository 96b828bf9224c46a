package tasks

import (
	"fmt"

	"github.com/desertthunder/jamroom/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchRoom Phase = iota
	FetchQueue
	FetchMembers
	CollectTracks
	AddTracks
	ExportRoom
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchRoom:
		return "fetch_room"
	case FetchQueue:
		return "fetch_queue"
	case FetchMembers:
		return "fetch_members"
	case CollectTracks:
		return "collect_tracks"
	case AddTracks:
		return "add_tracks"
	case ExportRoom:
		return "export_room"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchRoomUpdate(step, total int, roomID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRoom,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching room %s...", roomID),
	}
}

func fetchQueueUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchQueue,
		Step:    step,
		Total:   total,
		Message: "Fetching queue...",
	}
}

func fetchMembersUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMembers,
		Step:    step,
		Total:   total,
		Message: "Fetching members...",
	}
}

func collectTracksUpdate(total int, source string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CollectTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Collected %d tracks from %s", total, source),
	}
}

func trackAddedUpdate(step, total int, tr *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s", step, total, tr.PrimaryArtist(), tr.Name),
		Data:    tr,
	}
}

func trackFailedUpdate(step, total int, label string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, label, err),
	}
}

func exportingRoomUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRoom,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRoom,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportRoom,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote manifest %s", path),
	}
}
