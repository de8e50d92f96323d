package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Global
	Quit  key.Binding
	Help  key.Binding
	Back  key.Binding
	Enter key.Binding

	// Library
	NextTab key.Binding
	PrevTab key.Binding
	Refresh key.Binding

	// Reader
	NextPage    key.Binding
	PrevPage    key.Binding
	NextChapter key.Binding
	PrevChapter key.Binding
	FirstPage   key.Binding
	LastPage    key.Binding
	Chapters    key.Binding
	Translator  key.Binding
	Mode        key.Binding
	Retry       key.Binding
	OpenPage    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "back/quit"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),

		NextTab: key.NewBinding(
			key.WithKeys("tab", "L"),
			key.WithHelp("tab", "next section"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "H"),
			key.WithHelp("S-tab", "previous section"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),

		NextPage: key.NewBinding(
			key.WithKeys("right", "l", " ", "j", "down"),
			key.WithHelp("→/l/space", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h", "k", "up"),
			key.WithHelp("←/h", "previous page"),
		),
		NextChapter: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next chapter"),
		),
		PrevChapter: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous chapter"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first page"),
		),
		LastPage: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last page"),
		),
		Chapters: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "chapters"),
		),
		Translator: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "next translator"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "reading mode"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		OpenPage: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in viewer"),
		),
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
