package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/notify"
	"github.com/desertthunder/jamroom/internal/playback"
	"github.com/desertthunder/jamroom/internal/realtime"
)

type fakeRoom struct {
	mu    sync.Mutex
	state realtime.State
	ch    chan realtime.State
	votes []string
	added []models.AddToQueueRequest
	left  int
	addOK bool
}

func newFakeRoom(s realtime.State) *fakeRoom {
	return &fakeRoom{state: s, ch: make(chan realtime.State, 1), addOK: true}
}

func (f *fakeRoom) Snapshot() realtime.State         { return f.state }
func (f *fakeRoom) Subscribe() <-chan realtime.State { return f.ch }
func (f *fakeRoom) LeaveRoom() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left++
}

func (f *fakeRoom) AddTrackToQueue(_ context.Context, req models.AddToQueueRequest) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, req)
	return f.addOK
}

func (f *fakeRoom) Vote(_ context.Context, itemID string, up bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	dir := "down"
	if up {
		dir = "up"
	}
	f.votes = append(f.votes, itemID+":"+dir)
	return true
}

type fakePlayer struct {
	mu     sync.Mutex
	state  playback.State
	ch     chan playback.State
	calls  []string
	volume int
}

func newFakePlayer(s playback.State) *fakePlayer {
	return &fakePlayer{state: s, ch: make(chan playback.State, 1)}
}

func (f *fakePlayer) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakePlayer) Snapshot() playback.State         { return f.state }
func (f *fakePlayer) Subscribe() <-chan playback.State { return f.ch }
func (f *fakePlayer) PlayTrack(_ context.Context, uri, deviceID string) bool {
	f.record("play " + uri + deviceID)
	return true
}
func (f *fakePlayer) TogglePlay(context.Context)     { f.record("toggle") }
func (f *fakePlayer) SkipToNext(context.Context)     { f.record("next") }
func (f *fakePlayer) SkipToPrevious(context.Context) { f.record("previous") }
func (f *fakePlayer) SetPlayerVolume(_ context.Context, v int) {
	f.record("volume")
	f.volume = v
}

type fakeSearch struct {
	tracks []models.Track
	err    error
	query  string
}

func (f *fakeSearch) Tracks(_ context.Context, query string, _ int) ([]models.Track, error) {
	f.query = query
	return f.tracks, f.err
}

func track(id, name, artist string) models.Track {
	return models.Track{ID: id, Name: name, Artists: []models.Artist{{Name: artist}}, DurationMS: 180000}
}

func roomState() realtime.State {
	return realtime.State{
		Room: &models.Room{ID: "r1", Name: "Friday Mix", Code: "ABC123"},
		Queue: models.Queue{
			{ID: "q1", Track: track("t1", "First", "Alpha"), Votes: 3},
			{ID: "q2", Track: track("t2", "Second", "Beta"), Votes: 1},
		},
		Members: models.Members{{ID: "u1", Name: "alice"}, {ID: "u2", Name: "bob"}},
		Conn:    realtime.Open,
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// exec runs cmd synchronously and feeds its message back into m.
func exec(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		m.Update(msg)
	}
}

func press(t *testing.T, m *Model, msg tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(msg)
	exec(t, m, cmd)
}

func newTestModel() (*Model, *fakeRoom, *fakePlayer, *fakeSearch) {
	room := newFakeRoom(roomState())
	player := newFakePlayer(playback.NewState(50))
	search := &fakeSearch{tracks: []models.Track{track("t9", "Found", "Gamma")}}
	m := NewModel(context.Background(), Options{Room: room, Player: player, Search: search})
	return m, room, player, search
}

func TestModel(t *testing.T) {
	t.Run("Dashboard", func(t *testing.T) {
		t.Run("renders room queue and members", func(t *testing.T) {
			m, _, _, _ := newTestModel()
			view := m.View()
			for _, want := range []string{"Friday Mix", "ABC123", "Queue (2)", "Alpha - First", "Members (2)", "alice", "Not Playing"} {
				if !strings.Contains(view, want) {
					t.Errorf("expected view to contain %q", want)
				}
			}
		})

		t.Run("renders empty state outside a room", func(t *testing.T) {
			m := NewModel(context.Background(), Options{Room: newFakeRoom(realtime.State{})})
			if !strings.Contains(m.View(), "Not in a room") {
				t.Error("expected not-in-room header")
			}
		})

		t.Run("moves cursor within the queue", func(t *testing.T) {
			m, _, _, _ := newTestModel()
			press(t, m, runes("j"))
			press(t, m, runes("j"))
			if m.cursor != 1 {
				t.Errorf("expected cursor 1, got %d", m.cursor)
			}
			press(t, m, runes("k"))
			press(t, m, runes("k"))
			if m.cursor != 0 {
				t.Errorf("expected cursor 0, got %d", m.cursor)
			}
		})

		t.Run("votes on the selected item", func(t *testing.T) {
			m, room, _, _ := newTestModel()
			press(t, m, runes("+"))
			press(t, m, runes("j"))
			press(t, m, runes("-"))
			press(t, m, runes("="))

			want := []string{"q1:up", "q2:down", "q2:up"}
			if strings.Join(room.votes, ",") != strings.Join(want, ",") {
				t.Errorf("expected votes %v, got %v", want, room.votes)
			}
		})

		t.Run("plays the selected item", func(t *testing.T) {
			m, _, player, _ := newTestModel()
			press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			if len(player.calls) != 1 || player.calls[0] != "play spotify:track:t1" {
				t.Errorf("expected play of t1, got %v", player.calls)
			}
		})

		t.Run("drives transport controls", func(t *testing.T) {
			m, _, player, _ := newTestModel()
			press(t, m, tea.KeyMsg{Type: tea.KeySpace})
			press(t, m, runes("n"))
			press(t, m, runes("p"))
			press(t, m, runes("]"))

			want := "toggle,next,previous,volume"
			if got := strings.Join(player.calls, ","); got != want {
				t.Errorf("expected %s, got %s", want, got)
			}
			if player.volume != 60 {
				t.Errorf("expected volume 60, got %d", player.volume)
			}
		})

		t.Run("clamps volume", func(t *testing.T) {
			m, _, player, _ := newTestModel()
			m.play.Volume = 95
			press(t, m, runes("]"))
			if player.volume != 100 {
				t.Errorf("expected volume 100, got %d", player.volume)
			}
		})

		t.Run("leaves the room", func(t *testing.T) {
			m, room, _, _ := newTestModel()
			press(t, m, runes("l"))
			if room.left != 1 {
				t.Errorf("expected one leave, got %d", room.left)
			}
		})

		t.Run("quits", func(t *testing.T) {
			m, _, _, _ := newTestModel()
			_, cmd := m.Update(runes("q"))
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected tea.QuitMsg")
			}
		})

		t.Run("ignores keys without a player", func(t *testing.T) {
			m := NewModel(context.Background(), Options{Room: newFakeRoom(roomState())})
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
			if cmd != nil {
				t.Error("expected no command")
			}
		})
	})

	t.Run("Subscriptions", func(t *testing.T) {
		t.Run("applies room snapshots and clamps cursor", func(t *testing.T) {
			m, _, _, _ := newTestModel()
			m.cursor = 1

			next := roomState()
			next.Queue = next.Queue[:1]
			m.Update(roomStateMsg(next))

			if m.cursor != 0 {
				t.Errorf("expected cursor clamped to 0, got %d", m.cursor)
			}
			if len(m.room.Queue) != 1 {
				t.Errorf("expected 1 queue item, got %d", len(m.room.Queue))
			}
		})

		t.Run("waits on the room channel", func(t *testing.T) {
			m, room, _, _ := newTestModel()
			next := roomState()
			next.Room.Name = "Renamed"
			room.ch <- next

			msg := m.waitForRoom()()
			m.Update(msg)
			if m.room.Room.Name != "Renamed" {
				t.Errorf("expected renamed room, got %s", m.room.Room.Name)
			}
		})

		t.Run("stops waiting on a closed channel", func(t *testing.T) {
			m, room, _, _ := newTestModel()
			close(room.ch)

			m.Update(m.waitForRoom()())
			if m.roomCh != nil {
				t.Error("expected room channel to be dropped")
			}
			if m.waitForRoom() != nil {
				t.Error("expected no further wait command")
			}
		})

		t.Run("renders now playing", func(t *testing.T) {
			m, _, _, _ := newTestModel()
			s := playback.NewState(40)
			s.Track = track("t1", "First", "Alpha")
			s.ProgressMs = 90000
			s.Paused = false
			s.DeviceID = "dev"
			m.Update(playerStateMsg(s))

			view := m.View()
			for _, want := range []string{"▶ Alpha - First", "1:30 / 3:00", "vol 40%"} {
				if !strings.Contains(view, want) {
					t.Errorf("expected view to contain %q", want)
				}
			}
		})

		t.Run("keeps the latest notifications", func(t *testing.T) {
			ch := make(chan notify.Notification, 10)
			m := NewModel(context.Background(), Options{Room: newFakeRoom(roomState()), Notifications: ch})
			for i := range 7 {
				ch <- notify.Notification{Level: notify.Info, Title: "Event", Message: string(rune('a' + i))}
			}
			for range 7 {
				m.Update(m.waitForNotification()())
			}

			if len(m.toasts) != maxNotifications {
				t.Fatalf("expected %d toasts, got %d", maxNotifications, len(m.toasts))
			}
			if m.toasts[0].Message != "c" {
				t.Errorf("expected oldest kept toast c, got %s", m.toasts[0].Message)
			}
			if !strings.Contains(m.View(), "Event: g") {
				t.Error("expected newest toast in view")
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("opens search view", func(t *testing.T) {
			m, _, _, _ := newTestModel()
			m.Update(runes("a"))
			if m.view != SearchView {
				t.Fatalf("expected search view, got %v", m.view)
			}
			if !m.input.Focused() {
				t.Error("expected input focused")
			}
		})

		t.Run("does not open outside a room", func(t *testing.T) {
			m := NewModel(context.Background(), Options{Room: newFakeRoom(realtime.State{}), Search: &fakeSearch{}})
			m.Update(runes("a"))
			if m.view != DashboardView {
				t.Error("expected dashboard view")
			}
		})

		t.Run("searches and adds the selected result", func(t *testing.T) {
			m, room, _, search := newTestModel()
			m.Update(runes("a"))
			m.input.SetValue("  gamma ")
			press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

			if search.query != "gamma" {
				t.Errorf("expected trimmed query, got %q", search.query)
			}
			if len(m.results.Items()) != 1 {
				t.Fatalf("expected 1 result, got %d", len(m.results.Items()))
			}
			if m.input.Focused() {
				t.Error("expected focus on results")
			}

			press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			if len(room.added) != 1 || room.added[0].TrackID != "spotify:track:t9" {
				t.Fatalf("expected t9 queued, got %v", room.added)
			}
			if m.view != DashboardView {
				t.Error("expected return to dashboard after queueing")
			}
		})

		t.Run("stays on failed add", func(t *testing.T) {
			m, room, _, _ := newTestModel()
			room.addOK = false
			m.Update(runes("a"))
			m.input.SetValue("gamma")
			press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			if m.view != SearchView {
				t.Error("expected to stay in search view")
			}
		})

		t.Run("shows search errors", func(t *testing.T) {
			m, _, _, search := newTestModel()
			search.err = errors.New("backend down")
			m.Update(runes("a"))
			m.input.SetValue("x")
			press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			if !strings.Contains(m.View(), "backend down") {
				t.Error("expected error in view")
			}
		})

		t.Run("escape returns to dashboard", func(t *testing.T) {
			m, _, _, _ := newTestModel()
			m.Update(runes("a"))
			press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
			if m.view != DashboardView {
				t.Error("expected dashboard view")
			}
		})

		t.Run("typing q does not quit", func(t *testing.T) {
			m, _, _, _ := newTestModel()
			m.Update(runes("a"))
			_, cmd := m.Update(runes("q"))
			if cmd != nil {
				if _, ok := cmd().(tea.QuitMsg); ok {
					t.Error("expected q to be typed, not quit")
				}
			}
			if m.input.Value() != "q" {
				t.Errorf("expected input q, got %q", m.input.Value())
			}
		})
	})
}

func TestProgressBar(t *testing.T) {
	tc := []struct {
		name     string
		fraction float64
		filled   int
	}{
		{name: "empty", fraction: 0, filled: 0},
		{name: "half", fraction: 0.5, filled: 5},
		{name: "full", fraction: 1, filled: 10},
		{name: "over", fraction: 1.7, filled: 10},
		{name: "negative", fraction: -1, filled: 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			bar := progressBar(tt.fraction, 10)
			if got := strings.Count(bar, "█"); got != tt.filled {
				t.Errorf("expected %d filled cells, got %d", tt.filled, got)
			}
			if got := strings.Count(bar, "░"); got != 10-tt.filled {
				t.Errorf("expected %d empty cells, got %d", 10-tt.filled, got)
			}
		})
	}
}

func TestTrackItem(t *testing.T) {
	item := trackItem{track: models.Track{
		Name:       "Song",
		Artists:    []models.Artist{{Name: "A"}, {Name: "B"}},
		Album:      models.Album{Name: "LP"},
		DurationMS: 61000,
	}}
	if item.Title() != "Song" {
		t.Errorf("unexpected title %s", item.Title())
	}
	if got := item.Description(); got != "A, B • LP • 1:01" {
		t.Errorf("unexpected description %q", got)
	}
	if item.FilterValue() != "Song A, B" {
		t.Errorf("unexpected filter value %q", item.FilterValue())
	}
}
