// Package ui implements the room dashboard using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [DashboardView] : Room header, vote-ordered queue, members, now playing with a progress bar, and recent notifications
//  2. [SearchView] : Search the catalog and add a result to the queue
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// Room and playback state arrive as whole snapshots over subscription channels, so the view never mutates domain state:
// every key press becomes a call on [RoomSync] or [Playback] and the next snapshot redraws the screen.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
