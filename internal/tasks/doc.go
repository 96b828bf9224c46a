// Package tasks runs multi-request room operations with real-time progress reporting.
//
// # Core Operations
//
// [RoomEngine] exposes three operations:
//
//  1. [RoomEngine.Snapshot] : Fetch a room, its queue and its members concurrently
//
//  2. [RoomEngine.Seed] : Fill a room queue
//     - Resolves search queries to their best match, or takes the user's top tracks
//     - Adds each track through a rate-limited worker pool
//     - Reports per-track results; one failed track never aborts the rest
//
//  3. [RoomEngine.BulkExport] : Export several rooms to disk
//     - Snapshots and writes each room through a worker pool
//     - Writes export_manifest.json summarizing the run
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default so a slow reader never stalls an operation.
package tasks
