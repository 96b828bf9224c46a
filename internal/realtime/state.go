package realtime

import (
	"fmt"
	"slices"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/notify"
)

// ConnState is the room socket's lifecycle state.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Open
	ClosedError
)

func (c ConnState) String() string {
	switch c {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case ClosedError:
		return "error"
	default:
		return ""
	}
}

// State is the local mirror of the current room.
type State struct {
	Room    *models.Room
	Queue   models.Queue
	Members models.Members
	Conn    ConnState
	Loading bool
	Err     string
}

// InRoom reports whether a room is current.
func (s State) InRoom() bool { return s.Room != nil }

func (s State) clone() State {
	if s.Room != nil {
		r := *s.Room
		s.Room = &r
	}
	s.Queue = slices.Clone(s.Queue)
	s.Members = slices.Clone(s.Members)
	return s
}

// Effect is follow-up work requested by [Apply].
type Effect int

const (
	NoEffect Effect = iota
	RefreshMembers
)

// Apply folds e into s. It never mutates the slices of s.
//
// Vote tallies only change through events; a vote is never guessed locally.
func Apply(s State, e Event) (State, Effect) {
	switch e := e.(type) {
	case QueueSnapshot:
		s.Queue = orEmpty(e.Queue)
	case TrackAdded:
		if e.Item != nil && e.Item.ID != "" {
			s.Queue = append(slices.Clone(s.Queue), *e.Item)
		}
	case VoteChanged:
		switch {
		case e.ItemID != "" && e.Votes != nil:
			if i := s.Queue.Index(e.ItemID); i >= 0 {
				s.Queue = slices.Clone(s.Queue)
				s.Queue[i].Votes = *e.Votes
			}
		case e.Updated != nil:
			if i := s.Queue.Index(e.Updated.ID); i >= 0 {
				s.Queue = slices.Clone(s.Queue)
				s.Queue[i] = *e.Updated
			}
		}
	case MembersSnapshot:
		if e.Members == nil {
			s.Members = models.Members{}
		} else {
			s.Members = slices.Clone(e.Members)
		}
	case MemberJoined:
		if e.Member == nil {
			return s, RefreshMembers
		}
		s.Members = s.Members.Add(*e.Member)
	case MemberLeft:
		if e.UserID == "" {
			return s, RefreshMembers
		}
		s.Members = s.Members.RemoveByID(e.UserID)
	}
	return s, NoEffect
}

func orEmpty(q models.Queue) models.Queue {
	if q == nil {
		return models.Queue{}
	}
	return slices.Clone(q)
}

// describe returns the toast shown for a handled push event.
func describe(e Event) (notify.Notification, bool) {
	switch e := e.(type) {
	case QueueSnapshot:
		return notify.Notification{Level: notify.Info, Title: "Queue Updated"}, true
	case TrackAdded:
		if e.Item == nil || e.Item.ID == "" {
			return notify.Notification{}, false
		}
		return notify.Notification{
			Level:   notify.Success,
			Title:   "Track Added",
			Message: fmt.Sprintf("%q added to queue", e.Item.Track.Name),
		}, true
	case MembersSnapshot:
		return notify.Notification{Level: notify.Info, Title: "Members Updated", Message: "User list updated"}, true
	case MemberJoined:
		if e.Member == nil {
			return notify.Notification{}, false
		}
		name := e.Member.Name
		if name == "" {
			name = "A user"
		}
		return notify.Notification{Level: notify.Info, Title: "Member Joined", Message: name + " joined"}, true
	case MemberLeft:
		if e.UserID == "" {
			return notify.Notification{}, false
		}
		return notify.Notification{Level: notify.Info, Title: "Member Left", Message: "A user left"}, true
	default:
		return notify.Notification{}, false
	}
}
