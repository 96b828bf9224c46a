package models

import (
	"slices"
	"time"

	"github.com/sahilm/fuzzy"
)

// Room is a shared listening session.
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	OwnerID      string    `json:"ownerId"`
	IsPrivate    bool      `json:"isPrivate"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
	MemberCount  *int      `json:"memberCount,omitempty"`
	CurrentTrack string    `json:"currentTrack,omitempty"`
}

// QueueItem is a track nominated within a room, carrying its vote tally.
type QueueItem struct {
	ID      string `json:"id"`
	Track   Track  `json:"track"`
	Votes   int    `json:"votes"`
	AddedBy string `json:"addedBy"`
}

// Member is a user currently connected to a room.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Queue is an ordered queue as received from the backend. Order is presentation only.
type Queue []QueueItem

// Index returns the position of the item with id or -1.
func (q Queue) Index(id string) int {
	return slices.IndexFunc(q, func(it QueueItem) bool { return it.ID == id })
}

// String lets [fuzzy.FindFrom] search track name and artists together.
func (q Queue) String(i int) string {
	return q[i].Track.Name + " " + q[i].Track.ArtistNames()
}

func (q Queue) Len() int { return len(q) }

// Find returns the item whose track best matches pattern.
func (q Queue) Find(pattern string) (QueueItem, bool) {
	if pattern == "" {
		return QueueItem{}, false
	}
	matches := fuzzy.FindFrom(pattern, q)
	if len(matches) == 0 {
		return QueueItem{}, false
	}
	return q[matches[0].Index], true
}

// Members is the set of connected members. Order is insertion order.
type Members []Member

// Contains reports whether a member with id is present.
func (m Members) Contains(id string) bool {
	return slices.ContainsFunc(m, func(x Member) bool { return x.ID == id })
}

// Add returns m with member appended unless a member with the same id is present.
func (m Members) Add(member Member) Members {
	if m.Contains(member.ID) {
		return m
	}
	return append(slices.Clone(m), member)
}

// RemoveByID returns m without the member with id.
func (m Members) RemoveByID(id string) Members {
	return slices.DeleteFunc(slices.Clone(m), func(x Member) bool { return x.ID == id })
}

// RoomExport is a snapshot of a room and its queue taken for export.
type RoomExport struct {
	Room       Room      `json:"room"`
	Queue      Queue     `json:"queue"`
	Members    Members   `json:"members,omitempty"`
	ExportedAt time.Time `json:"exportedAt"`
}

// TotalDuration sums the queued track durations in milliseconds.
func (e RoomExport) TotalDuration() int {
	total := 0
	for _, it := range e.Queue {
		total += it.Track.DurationMS
	}
	return total
}
