package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/notify"
	"github.com/desertthunder/jamroom/internal/playback"
	"github.com/desertthunder/jamroom/internal/realtime"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRoomState MsgKind = iota
	MsgPlayerState
	MsgNotification
	MsgSearchResults
	MsgQueued
	MsgStreamClosed
)

// roomStateMsg is the constructor for [MsgRoomState]
func roomStateMsg(s realtime.State) Msg {
	return Msg{kind: MsgRoomState, data: s}
}

// playerStateMsg is the constructor for [MsgPlayerState]
func playerStateMsg(s playback.State) Msg {
	return Msg{kind: MsgPlayerState, data: s}
}

// notificationMsg is the constructor for [MsgNotification]
func notificationMsg(n notify.Notification) Msg {
	return Msg{kind: MsgNotification, data: n}
}

type searchResults struct {
	query  string
	tracks []models.Track
	err    error
}

// searchResultsMsg is the constructor for [MsgSearchResults]
func searchResultsMsg(query string, tracks []models.Track, err error) Msg {
	return Msg{kind: MsgSearchResults, data: searchResults{query, tracks, err}}
}

// queuedMsg is the constructor for [MsgQueued]
func queuedMsg(ok bool) Msg {
	return Msg{kind: MsgQueued, data: ok}
}

// streamClosedMsg is the constructor for [MsgStreamClosed]; kind names the closed stream.
func streamClosedMsg(kind MsgKind) Msg {
	return Msg{kind: MsgStreamClosed, data: kind}
}
