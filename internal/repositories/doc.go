// Package repositories implements SQLite persistence for the local history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [RecentRoomRepository] : rooms this client created or joined, most recent first
//   - [TrackRepository] : tracks seen in search results and room queues, keyed by provider URI
//   - [TrackCache] : adapter letting the search service cache results without failing the search
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
