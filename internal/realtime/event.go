package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/jamroom/internal/models"
)

// Push event discriminators sent by the backend.
const (
	TypeQueueUpdate   = "queue_update"
	TypeSongAdded     = "song_added"
	TypeSongVoted     = "song_voted"
	TypeMembersUpdate = "members_update"
	TypeUserJoined    = "user_joined"
	TypeUserLeft      = "user_left"
)

// Event is a decoded push event.
type Event interface {
	Type() string
}

// QueueSnapshot replaces the queue wholesale.
type QueueSnapshot struct {
	Queue models.Queue
}

// TrackAdded appends Item when the payload carried one.
type TrackAdded struct {
	Item *models.QueueItem
}

// VoteChanged patches a tally by ItemID, or swaps in Updated.
type VoteChanged struct {
	ItemID  string
	Votes   *int
	Updated *models.QueueItem
}

// MembersSnapshot replaces the member list wholesale.
type MembersSnapshot struct {
	Members models.Members
}

// MemberJoined adds Member. A nil Member asks for a refetch.
type MemberJoined struct {
	Member *models.Member
}

// MemberLeft removes UserID. An empty UserID asks for a refetch.
type MemberLeft struct {
	UserID string
}

// Unknown is any event with an unrecognized discriminator.
type Unknown struct {
	Kind string
}

func (QueueSnapshot) Type() string   { return TypeQueueUpdate }
func (TrackAdded) Type() string      { return TypeSongAdded }
func (VoteChanged) Type() string     { return TypeSongVoted }
func (MembersSnapshot) Type() string { return TypeMembersUpdate }
func (MemberJoined) Type() string    { return TypeUserJoined }
func (MemberLeft) Type() string      { return TypeUserLeft }
func (u Unknown) Type() string       { return u.Kind }

type wireMessage struct {
	Type        string            `json:"type"`
	Queue       models.Queue      `json:"queue"`
	Track       *models.QueueItem `json:"track"`
	ItemID      string            `json:"item_id"`
	Votes       *int              `json:"votes"`
	UpdatedItem *models.QueueItem `json:"updated_item"`
	Members     models.Members    `json:"members"`
	Member      *models.Member    `json:"member"`
	UserID      string            `json:"user_id"`
}

// Decode parses one WebSocket message.
func Decode(data []byte) (Event, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("malformed push event: %w", err)
	}

	switch msg.Type {
	case TypeQueueUpdate:
		return QueueSnapshot{Queue: msg.Queue}, nil
	case TypeSongAdded:
		return TrackAdded{Item: msg.Track}, nil
	case TypeSongVoted:
		return VoteChanged{ItemID: msg.ItemID, Votes: msg.Votes, Updated: msg.UpdatedItem}, nil
	case TypeMembersUpdate:
		return MembersSnapshot{Members: msg.Members}, nil
	case TypeUserJoined:
		return MemberJoined{Member: msg.Member}, nil
	case TypeUserLeft:
		return MemberLeft{UserID: msg.UserID}, nil
	default:
		return Unknown{Kind: msg.Type}, nil
	}
}
