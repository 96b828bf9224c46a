package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
)

const recentRoomColumns = `id, sequence, room_id, code, name, is_private, role, last_joined_at, created_at, updated_at, deleted_at`

// RecentRoomRepository implements models.Repository[*models.RecentRoom] for the room history.
type RecentRoomRepository struct {
	db *sql.DB
}

// NewRecentRoomRepository creates a new RecentRoomRepository with the given database connection
func NewRecentRoomRepository(db *sql.DB) *RecentRoomRepository {
	return &RecentRoomRepository{db: db}
}

// Create inserts a new [models.RecentRoom] with generated ID and sequence
func (r *RecentRoomRepository) Create(room *models.RecentRoom) error {
	if err := room.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "recent_rooms")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	room.SetID(shared.GenerateID())
	room.SetSequence(sequence)

	query := `
		INSERT INTO recent_rooms (id, sequence, room_id, code, name, is_private, role, last_joined_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		room.ID(),
		room.Sequence(),
		room.RoomID(),
		room.Code(),
		room.Name(),
		room.IsPrivate(),
		string(room.Role()),
		room.LastJoinedAt(),
		room.CreatedAt(),
		room.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recent room: %w", err)
	}
	return nil
}

// Get retrieves a history entry by ID, excluding soft-deleted entries
func (r *RecentRoomRepository) Get(id string) (*models.RecentRoom, error) {
	query := `SELECT ` + recentRoomColumns + ` FROM recent_rooms WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id), id)
}

// GetByRoomID retrieves the history entry of a backend room
func (r *RecentRoomRepository) GetByRoomID(roomID string) (*models.RecentRoom, error) {
	query := `SELECT ` + recentRoomColumns + ` FROM recent_rooms WHERE room_id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, roomID), roomID)
}

// GetByCode retrieves the most recently joined entry with the given join code
func (r *RecentRoomRepository) GetByCode(code string) (*models.RecentRoom, error) {
	query := `SELECT ` + recentRoomColumns + ` FROM recent_rooms WHERE code = ? AND deleted_at IS NULL ORDER BY last_joined_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, code), code)
}

// Update modifies an existing entry
func (r *RecentRoomRepository) Update(room *models.RecentRoom) error {
	if err := room.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	room.SetUpdatedAt(now)

	query := `
		UPDATE recent_rooms
		SET code = ?, name = ?, is_private = ?, role = ?, last_joined_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query,
		room.Code(),
		room.Name(),
		room.IsPrivate(),
		string(room.Role()),
		room.LastJoinedAt(),
		now,
		room.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update recent room: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: recent room %s", shared.ErrNotFound, room.ID()))
}

// Delete soft-deletes an entry by ID
func (r *RecentRoomRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE recent_rooms SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete recent room: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: recent room %s", shared.ErrNotFound, id))
}

// List retrieves entries most recently joined first. Supported criteria: "role" ([models.RoomRole] or string).
func (r *RecentRoomRepository) List(criteria map[string]any) ([]*models.RecentRoom, error) {
	query := `SELECT ` + recentRoomColumns + ` FROM recent_rooms WHERE deleted_at IS NULL`
	args := []any{}

	switch role := criteria["role"].(type) {
	case models.RoomRole:
		query += " AND role = ?"
		args = append(args, string(role))
	case string:
		if role != "" {
			query += " AND role = ?"
			args = append(args, role)
		}
	}

	query += " ORDER BY last_joined_at DESC, sequence DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.RecentRoom
	for rows.Next() {
		room, err := scanRecentRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return rooms, nil
}

// Recent returns up to limit entries, most recent first.
func (r *RecentRoomRepository) Recent(limit int) ([]*models.RecentRoom, error) {
	return r.List(map[string]any{"limit": limit})
}

// Record upserts the history entry for room, bumping its last-joined time.
// A room once created by this client keeps the created role when joined again.
func (r *RecentRoomRepository) Record(room models.Room, role models.RoomRole) (*models.RecentRoom, error) {
	existing, err := r.GetByRoomID(room.ID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		entry := models.NewRecentRoom(0, room, role)
		if err := r.Create(entry); err != nil {
			if isUniqueViolation(err) {
				return r.revive(room, role)
			}
			return nil, err
		}
		return entry, nil
	case err != nil:
		return nil, err
	}

	updated := mergeRecent(existing, room, role)
	if err := r.Update(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// revive restores a soft-deleted entry for room.
func (r *RecentRoomRepository) revive(room models.Room, role models.RoomRole) (*models.RecentRoom, error) {
	if _, err := r.db.Exec(`UPDATE recent_rooms SET deleted_at = NULL WHERE room_id = ?`, room.ID); err != nil {
		return nil, fmt.Errorf("failed to restore recent room: %w", err)
	}
	existing, err := r.GetByRoomID(room.ID)
	if err != nil {
		return nil, err
	}
	updated := mergeRecent(existing, room, role)
	if err := r.Update(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func mergeRecent(existing *models.RecentRoom, room models.Room, role models.RoomRole) *models.RecentRoom {
	if existing.Role() == models.RoleCreated {
		role = models.RoleCreated
	}
	if room.Name == "" {
		room.Name = existing.Name()
	}
	if room.Code == "" {
		room.Code = existing.Code()
	}

	updated := models.NewRecentRoom(existing.Sequence(), room, role)
	updated.SetID(existing.ID())
	updated.SetCreatedAt(existing.CreatedAt())
	return updated
}

func (r *RecentRoomRepository) scanOne(row *sql.Row, key string) (*models.RecentRoom, error) {
	room, err := scanRecentRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: recent room %s", shared.ErrNotFound, key)
	}
	return room, err
}

func scanRecentRoom(s scanner) (*models.RecentRoom, error) {
	var (
		id           string
		sequence     int
		roomID       string
		code         string
		name         string
		isPrivate    bool
		role         string
		lastJoinedAt time.Time
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := s.Scan(&id, &sequence, &roomID, &code, &name, &isPrivate, &role, &lastJoinedAt, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recent room: %w", err)
	}

	room := models.NewRecentRoom(sequence, models.Room{ID: roomID, Code: code, Name: name, IsPrivate: isPrivate}, models.RoomRole(role))
	room.SetID(id)
	room.SetLastJoinedAt(lastJoinedAt)
	room.SetCreatedAt(createdAt)
	room.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		room.SetDeletedAt(&deletedAt.Time)
	}
	return room, nil
}

var _ models.Repository[*models.RecentRoom] = (*RecentRoomRepository)(nil)
