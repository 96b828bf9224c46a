package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/notify"
	"github.com/desertthunder/jamroom/internal/playback"
	"github.com/desertthunder/jamroom/internal/realtime"
	"github.com/desertthunder/jamroom/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DashboardView ViewState = iota
	SearchView
)

const (
	maxNotifications = 5
	searchLimit      = 10
	volumeStep       = 10
	barWidth         = 40
)

// RoomSync is the room surface the dashboard drives. [*realtime.Sync] satisfies it.
type RoomSync interface {
	Snapshot() realtime.State
	Subscribe() <-chan realtime.State
	AddTrackToQueue(ctx context.Context, req models.AddToQueueRequest) bool
	Vote(ctx context.Context, itemID string, up bool) bool
	LeaveRoom()
}

// Playback is the player surface the dashboard drives. [*playback.Reconciler] satisfies it.
type Playback interface {
	Snapshot() playback.State
	Subscribe() <-chan playback.State
	PlayTrack(ctx context.Context, uri, deviceID string) bool
	TogglePlay(ctx context.Context)
	SkipToNext(ctx context.Context)
	SkipToPrevious(ctx context.Context)
	SetPlayerVolume(ctx context.Context, v int)
}

// Searcher finds tracks to nominate.
type Searcher interface {
	Tracks(ctx context.Context, query string, limit int) ([]models.Track, error)
}

// Options configures [NewModel]. Player, Search and Notifications are optional.
type Options struct {
	Room          RoomSync
	Player        Playback
	Search        Searcher
	Notifications <-chan notify.Notification
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	rooms  RoomSync
	player Playback
	search Searcher

	roomCh   <-chan realtime.State
	playerCh <-chan playback.State
	notes    <-chan notify.Notification

	room   realtime.State
	play   playback.State
	toasts []notify.Notification
	cursor int

	input   textinput.Model
	results list.Model
	query   string
	err     error

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model subscribed to the room and player.
func NewModel(ctx context.Context, opts Options) *Model {
	input := textinput.New()
	input.Placeholder = "Search tracks"
	input.CharLimit = 120

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Search results"
	results.SetShowHelp(false)
	results.SetFilteringEnabled(false)

	m := &Model{
		ctx:     ctx,
		view:    DashboardView,
		rooms:   opts.Room,
		player:  opts.Player,
		search:  opts.Search,
		notes:   opts.Notifications,
		input:   input,
		results: results,
		help:    help.New(),
		keys:    newKeyMap(),
	}
	if m.rooms != nil {
		m.room = m.rooms.Snapshot()
		m.roomCh = m.rooms.Subscribe()
	}
	if m.player != nil {
		m.play = m.player.Snapshot()
		m.playerCh = m.player.Subscribe()
	} else {
		m.play = playback.NewState(playback.DefaultVolume)
	}
	return m
}

// Init starts listening on every subscription.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForRoom(), m.waitForPlayer(), m.waitForNotification())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRoomState:
		m.room = msg.data.(realtime.State)
		m.clampCursor()
		return m, m.waitForRoom()

	case MsgPlayerState:
		m.play = msg.data.(playback.State)
		return m, m.waitForPlayer()

	case MsgNotification:
		m.pushToast(msg.data.(notify.Notification))
		return m, m.waitForNotification()

	case MsgSearchResults:
		res := msg.data.(searchResults)
		m.err = res.err
		if res.err == nil {
			m.query = res.query
			m.results.SetItems(trackItems(res.tracks))
			m.results.Title = fmt.Sprintf("Results for %q", res.query)
			m.input.Blur()
		}
		return m, nil

	case MsgQueued:
		if msg.data.(bool) {
			m.view = DashboardView
		}
		return m, nil

	case MsgStreamClosed:
		switch msg.data.(MsgKind) {
		case MsgRoomState:
			m.roomCh = nil
		case MsgPlayerState:
			m.playerCh = nil
		case MsgNotification:
			m.notes = nil
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor < len(m.room.Queue)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.upvote):
		return m, m.vote(true)
	case key.Matches(msg, m.keys.downvote):
		return m, m.vote(false)
	case key.Matches(msg, m.keys.play):
		return m, m.playSelected()
	case key.Matches(msg, m.keys.toggle):
		return m, m.playerCmd(func(p Playback) { p.TogglePlay(m.ctx) })
	case key.Matches(msg, m.keys.next):
		return m, m.playerCmd(func(p Playback) { p.SkipToNext(m.ctx) })
	case key.Matches(msg, m.keys.prev):
		return m, m.playerCmd(func(p Playback) { p.SkipToPrevious(m.ctx) })
	case key.Matches(msg, m.keys.volUp):
		v := shared.Clamp(m.play.Volume+volumeStep, 0, 100)
		return m, m.playerCmd(func(p Playback) { p.SetPlayerVolume(m.ctx, v) })
	case key.Matches(msg, m.keys.volDown):
		v := shared.Clamp(m.play.Volume-volumeStep, 0, 100)
		return m, m.playerCmd(func(p Playback) { p.SetPlayerVolume(m.ctx, v) })
	case key.Matches(msg, m.keys.add):
		if m.search == nil || !m.room.InRoom() {
			return m, nil
		}
		m.view = SearchView
		m.err = nil
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.leave):
		if m.rooms != nil && m.room.InRoom() {
			rooms := m.rooms
			return m, func() tea.Msg {
				rooms.LeaveRoom()
				return nil
			}
		}
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = DashboardView
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.focus):
		if m.input.Focused() {
			m.input.Blur()
			return m, nil
		}
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.search):
		if m.input.Focused() {
			return m, m.runSearch(strings.TrimSpace(m.input.Value()))
		}
		if item, ok := m.results.SelectedItem().(trackItem); ok {
			return m, m.addTrack(item.track)
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.input.Focused() {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

func (m *Model) clampCursor() {
	m.cursor = shared.Clamp(m.cursor, 0, max(len(m.room.Queue)-1, 0))
}

func (m *Model) pushToast(n notify.Notification) {
	m.toasts = append(m.toasts, n)
	if len(m.toasts) > maxNotifications {
		m.toasts = m.toasts[len(m.toasts)-maxNotifications:]
	}
}

func (m *Model) selected() (models.QueueItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.room.Queue) {
		return models.QueueItem{}, false
	}
	return m.room.Queue[m.cursor], true
}

func (m *Model) vote(up bool) tea.Cmd {
	item, ok := m.selected()
	if !ok || m.rooms == nil {
		return nil
	}
	rooms := m.rooms
	return func() tea.Msg {
		rooms.Vote(m.ctx, item.ID, up)
		return nil
	}
}

func (m *Model) playSelected() tea.Cmd {
	item, ok := m.selected()
	if !ok {
		return nil
	}
	uri := item.Track.PlayableURI()
	return m.playerCmd(func(p Playback) { p.PlayTrack(m.ctx, uri, "") })
}

func (m *Model) playerCmd(fn func(Playback)) tea.Cmd {
	if m.player == nil {
		return nil
	}
	player := m.player
	return func() tea.Msg {
		fn(player)
		return nil
	}
}

func (m *Model) runSearch(query string) tea.Cmd {
	if query == "" || m.search == nil {
		return nil
	}
	search := m.search
	return func() tea.Msg {
		tracks, err := search.Tracks(m.ctx, query, searchLimit)
		return searchResultsMsg(query, tracks, err)
	}
}

func (m *Model) addTrack(t models.Track) tea.Cmd {
	if m.rooms == nil {
		return nil
	}
	rooms := m.rooms
	return func() tea.Msg {
		return queuedMsg(rooms.AddTrackToQueue(m.ctx, t.QueueRequest()))
	}
}

func (m *Model) waitForRoom() tea.Cmd {
	ch := m.roomCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return streamClosedMsg(MsgRoomState)
		}
		return roomStateMsg(s)
	}
}

func (m *Model) waitForPlayer() tea.Cmd {
	ch := m.playerCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return streamClosedMsg(MsgPlayerState)
		}
		return playerStateMsg(s)
	}
}

func (m *Model) waitForNotification() tea.Cmd {
	ch := m.notes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return streamClosedMsg(MsgNotification)
		}
		return notificationMsg(n)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SearchView:
		return m.renderSearch()
	default:
		return m.renderDashboard()
	}
}

func (m *Model) renderDashboard() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.room.InRoom() {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			styles.panel.Render(m.renderQueue()),
			styles.panel.Render(m.renderMembers()),
		))
		b.WriteString("\n")
	}

	b.WriteString(styles.panel.Render(m.renderNowPlaying()))
	b.WriteString("\n")

	if toasts := m.renderToasts(); toasts != "" {
		b.WriteString(toasts)
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderHeader() string {
	if !m.room.InRoom() {
		msg := "Not in a room"
		if m.room.Loading {
			msg = "Loading room..."
		}
		header := styles.title.Render(msg)
		if m.room.Err != "" {
			header += "\n" + styles.err.Render(m.room.Err)
		}
		return header
	}

	r := m.room.Room
	visibility := "public"
	if r.IsPrivate {
		visibility = "private"
	}
	title := styles.title.Render(fmt.Sprintf("%s  [%s]", r.Name, r.Code))
	status := fmt.Sprintf("%s • %s", visibility, m.renderConn())
	if m.room.Err != "" {
		status += " • " + styles.err.Render(m.room.Err)
	}
	return title + "\n" + status
}

func (m *Model) renderConn() string {
	switch m.room.Conn {
	case realtime.Open:
		return styles.ok.Render("live")
	case realtime.Connecting:
		return styles.warn.Render("connecting")
	case realtime.ClosedError:
		return styles.err.Render("connection lost")
	default:
		return styles.help.Render("offline")
	}
}

func (m *Model) renderQueue() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Queue (%d)\n", len(m.room.Queue))
	if len(m.room.Queue) == 0 {
		b.WriteString(styles.help.Render("The queue is empty. Press a to add a track."))
		return b.String()
	}
	for i, item := range m.room.Queue {
		line := fmt.Sprintf("%2d. %s - %s [%s] %+d",
			i+1, item.Track.PrimaryArtist(), item.Track.Name,
			shared.FormatDuration(item.Track.DurationMS), item.Votes)
		if i == m.cursor {
			line = styles.selected.Render(line)
		}
		b.WriteString(line)
		if i < len(m.room.Queue)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) renderMembers() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Members (%d)", len(m.room.Members))
	for _, member := range m.room.Members {
		b.WriteString("\n• " + member.Name)
	}
	return b.String()
}

func (m *Model) renderNowPlaying() string {
	s := m.play
	if s.Track.IsNotPlaying() {
		status := "Not Playing"
		if s.DeviceID == "" {
			status += " • no device"
		}
		return styles.help.Render(status)
	}

	state := "▶"
	if s.Paused {
		state = "⏸"
	}
	line := fmt.Sprintf("%s %s - %s", state, s.Track.ArtistNames(), s.Track.Name)
	bar := fmt.Sprintf("%s %s / %s", progressBar(s.Fraction(), barWidth),
		shared.FormatDuration(s.ProgressMs), shared.FormatDuration(s.Track.DurationMS))
	vol := fmt.Sprintf("vol %d%%", s.Volume)
	if s.SyncEnabled {
		vol += " • synced"
	}
	return line + "\n" + bar + "\n" + styles.help.Render(vol)
}

func (m *Model) renderToasts() string {
	lines := make([]string, 0, len(m.toasts))
	for _, n := range m.toasts {
		var style lipgloss.Style
		switch n.Level {
		case notify.Success:
			style = styles.ok
		case notify.Warning:
			style = styles.warn
		case notify.Error:
			style = styles.err
		default:
			style = styles.help
		}
		lines = append(lines, style.Render(n.String()))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Add a track")
	body := m.input.View()
	if m.err != nil {
		body += "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if len(m.results.Items()) > 0 {
		body += "\n\n" + m.results.View()
	} else if m.query != "" {
		body += "\n\n" + styles.help.Render("No results.")
	}

	helpKeys := []key.Binding{m.keys.search, m.keys.focus, m.keys.back}
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, m.help.ShortHelpView(helpKeys))
}

// progressBar renders fraction (clamped to [0, 1]) as a bar of width cells.
func progressBar(fraction float64, width int) string {
	fraction = min(max(fraction, 0), 1)
	filled := int(fraction * float64(width))
	return styles.bar.Render(strings.Repeat("█", filled)) +
		styles.barEmpty.Render(strings.Repeat("░", width-filled))
}
