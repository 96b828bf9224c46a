package models

import (
	"fmt"
	"time"
)

// RoomRole records how this client came to be in a room.
type RoomRole string

const (
	RoleCreated RoomRole = "created"
	RoleJoined  RoomRole = "joined"
)

// base carries the bookkeeping fields shared by persisted entities.
type base struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newBase(sequence int) base {
	now := time.Now().UTC()
	return base{sequence: sequence, createdAt: now, updatedAt: now}
}

func (b *base) ID() string                { return b.id }
func (b *base) Sequence() int             { return b.sequence }
func (b *base) CreatedAt() time.Time      { return b.createdAt }
func (b *base) UpdatedAt() time.Time      { return b.updatedAt }
func (b *base) DeletedAt() *time.Time     { return b.deletedAt }
func (b *base) SetID(id string)           { b.id = id }
func (b *base) SetSequence(seq int)       { b.sequence = seq }
func (b *base) SetCreatedAt(t time.Time)  { b.createdAt = t }
func (b *base) SetUpdatedAt(t time.Time)  { b.updatedAt = t }
func (b *base) SetDeletedAt(t *time.Time) { b.deletedAt = t }

// RecentRoom is a room this client created or joined.
type RecentRoom struct {
	base
	roomID       string
	code         string
	name         string
	isPrivate    bool
	role         RoomRole
	lastJoinedAt time.Time
}

// NewRecentRoom records room with the given role, stamped now.
func NewRecentRoom(sequence int, room Room, role RoomRole) *RecentRoom {
	b := newBase(sequence)
	return &RecentRoom{
		base:         b,
		roomID:       room.ID,
		code:         room.Code,
		name:         room.Name,
		isPrivate:    room.IsPrivate,
		role:         role,
		lastJoinedAt: b.createdAt,
	}
}

func (r *RecentRoom) RoomID() string          { return r.roomID }
func (r *RecentRoom) Code() string            { return r.code }
func (r *RecentRoom) Name() string            { return r.name }
func (r *RecentRoom) IsPrivate() bool         { return r.isPrivate }
func (r *RecentRoom) Role() RoomRole          { return r.role }
func (r *RecentRoom) LastJoinedAt() time.Time { return r.lastJoinedAt }

func (r *RecentRoom) SetLastJoinedAt(t time.Time) { r.lastJoinedAt = t }

// Validate checks required fields and the role.
func (r *RecentRoom) Validate() error {
	switch {
	case r.roomID == "":
		return fmt.Errorf("room id is required")
	case r.code == "":
		return fmt.Errorf("room code is required")
	case r.role != RoleCreated && r.role != RoleJoined:
		return fmt.Errorf("invalid room role %q", r.role)
	}
	return nil
}

// Room converts the history entry back into a minimal [Room].
func (r *RecentRoom) Room() Room {
	return Room{ID: r.roomID, Code: r.code, Name: r.name, IsPrivate: r.isPrivate}
}

// CachedTrack is a track remembered from search results or a room queue.
type CachedTrack struct {
	base
	uri        string
	trackID    string
	name       string
	artist     string
	album      string
	durationMS int
	imageURL   string
}

// NewCachedTrack captures t for the local cache.
func NewCachedTrack(sequence int, t Track) *CachedTrack {
	return &CachedTrack{
		base:       newBase(sequence),
		uri:        t.PlayableURI(),
		trackID:    t.ID,
		name:       t.Name,
		artist:     t.ArtistNames(),
		album:      t.Album.Name,
		durationMS: t.DurationMS,
		imageURL:   t.ArtworkURL(),
	}
}

func (c *CachedTrack) URI() string      { return c.uri }
func (c *CachedTrack) TrackID() string  { return c.trackID }
func (c *CachedTrack) Name() string     { return c.name }
func (c *CachedTrack) Artist() string   { return c.artist }
func (c *CachedTrack) Album() string    { return c.album }
func (c *CachedTrack) DurationMS() int  { return c.durationMS }
func (c *CachedTrack) ImageURL() string { return c.imageURL }

// Validate requires a URI and a name.
func (c *CachedTrack) Validate() error {
	if c.uri == "" {
		return fmt.Errorf("track uri is required")
	}
	if c.name == "" {
		return fmt.Errorf("track name is required")
	}
	return nil
}

// Track rebuilds a [Track] from the cached columns. Only the primary artist string survives.
func (c *CachedTrack) Track() Track {
	t := Track{
		ID:         c.trackID,
		Name:       c.name,
		URI:        c.uri,
		DurationMS: c.durationMS,
		Album:      Album{Name: c.album},
	}
	if c.artist != "" {
		t.Artists = []Artist{{Name: c.artist}}
	}
	if c.imageURL != "" {
		t.Album.Images = []Image{{URL: c.imageURL}}
	}
	return t
}
