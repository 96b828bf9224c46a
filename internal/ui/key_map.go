package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	upvote   key.Binding
	downvote key.Binding
	play     key.Binding
	toggle   key.Binding
	next     key.Binding
	prev     key.Binding
	volUp    key.Binding
	volDown  key.Binding
	add      key.Binding
	leave    key.Binding
	search   key.Binding
	focus    key.Binding
	back     key.Binding
	help     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		upvote:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "upvote")),
		downvote: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "downvote")),
		play:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		volUp:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "volume +")),
		volDown:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "volume -")),
		add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add track")),
		leave:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "leave room")),
		search:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search/add")),
		focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.upvote, k.downvote, k.toggle, k.add, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.play},
		{k.upvote, k.downvote, k.add},
		{k.toggle, k.next, k.prev},
		{k.volUp, k.volDown, k.leave},
		{k.help, k.quit},
	}
}
