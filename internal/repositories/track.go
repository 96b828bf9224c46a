package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
)

const cachedTrackColumns = `id, sequence, uri, track_id, name, artist, album, duration_ms, image_url, created_at, updated_at, deleted_at`

// TrackRepository implements models.Repository[*models.CachedTrack] for the local track cache.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new cached track with generated ID and sequence
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "cached_tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	track.SetID(shared.GenerateID())
	track.SetSequence(sequence)

	query := `
		INSERT INTO cached_tracks (id, sequence, uri, track_id, name, artist, album, duration_ms, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		track.ID(),
		track.Sequence(),
		track.URI(),
		track.TrackID(),
		track.Name(),
		track.Artist(),
		track.Album(),
		track.DurationMS(),
		track.ImageURL(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}
	return nil
}

// Get retrieves a cached track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `SELECT ` + cachedTrackColumns + ` FROM cached_tracks WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id), id)
}

// GetByURI retrieves a cached track by its provider URI
func (r *TrackRepository) GetByURI(uri string) (*models.CachedTrack, error) {
	query := `SELECT ` + cachedTrackColumns + ` FROM cached_tracks WHERE uri = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, uri), uri)
}

// Update modifies an existing cached track
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	track.SetUpdatedAt(now)

	query := `
		UPDATE cached_tracks
		SET uri = ?, track_id = ?, name = ?, artist = ?, album = ?, duration_ms = ?, image_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query,
		track.URI(),
		track.TrackID(),
		track.Name(),
		track.Artist(),
		track.Album(),
		track.DurationMS(),
		track.ImageURL(),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID()))
}

// Delete soft-deletes a cached track by ID
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE cached_tracks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return expectOne(result, fmt.Errorf("track not found or already deleted: %s", id))
}

// List retrieves cached tracks matching optional criteria.
//
// Supported criteria: "name" and "artist" (substring, case-insensitive), "limit" (int).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `SELECT ` + cachedTrackColumns + ` FROM cached_tracks WHERE deleted_at IS NULL`
	args := []any{}

	for _, column := range []string{"name", "artist"} {
		if v, ok := criteria[column].(string); ok && v != "" {
			query += fmt.Sprintf(" AND %s LIKE ? COLLATE NOCASE", column)
			args = append(args, "%"+v+"%")
		}
	}

	query += " ORDER BY sequence DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(query, args...)
}

// Search matches q against track names and artists, newest first.
func (r *TrackRepository) Search(q string, limit int) ([]*models.CachedTrack, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + cachedTrackColumns + ` FROM cached_tracks
		WHERE deleted_at IS NULL AND (name LIKE ? COLLATE NOCASE OR artist LIKE ? COLLATE NOCASE)
		ORDER BY sequence DESC LIMIT ?`
	pattern := "%" + q + "%"
	return r.query(query, pattern, pattern, limit)
}

func (r *TrackRepository) query(query string, args ...any) ([]*models.CachedTrack, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := scanCachedTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

func (r *TrackRepository) scanOne(row *sql.Row, key string) (*models.CachedTrack, error) {
	track, err := scanCachedTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, key)
	}
	return track, err
}

func scanCachedTrack(s scanner) (*models.CachedTrack, error) {
	var (
		id         string
		sequence   int
		uri        string
		trackID    sql.NullString
		name       string
		artist     sql.NullString
		album      sql.NullString
		durationMS sql.NullInt64
		imageURL   sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := s.Scan(&id, &sequence, &uri, &trackID, &name, &artist, &album, &durationMS, &imageURL, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	t := models.Track{
		ID:         trackID.String,
		Name:       name,
		URI:        uri,
		DurationMS: int(durationMS.Int64),
		Album:      models.Album{Name: album.String},
	}
	if artist.String != "" {
		t.Artists = []models.Artist{{Name: artist.String}}
	}
	if imageURL.String != "" {
		t.Album.Images = []models.Image{{URL: imageURL.String}}
	}

	track := models.NewCachedTrack(sequence, t)
	track.SetID(id)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}
	return track, nil
}

var _ models.Repository[*models.CachedTrack] = (*TrackRepository)(nil)
