package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play     key.Binding
	Next     key.Binding
	Prev     key.Binding
	Mode     key.Binding
	ModeBack key.Binding
	Activity key.Binding
	Timer    key.Binding
	VolUp    key.Binding
	VolDown  key.Binding
	Restart  key.Binding
	Help     key.Binding
	Quit     key.Binding

	// picker
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Cancel key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Play:     key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "play/pause")),
		Next:     key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next track")),
		Prev:     key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "previous track")),
		Mode:     key.NewBinding(key.WithKeys("m", "tab"), key.WithHelp("m", "next mode")),
		ModeBack: key.NewBinding(key.WithKeys("M", "shift+tab"), key.WithHelp("M", "previous mode")),
		Activity: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "activity")),
		Timer:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "timer")),
		VolUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "volume")),
		VolDown:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("+/-", "volume")),
		Restart:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "choose")),
		Cancel: key.NewBinding(key.WithKeys("esc", "t"), key.WithHelp("esc", "close")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Next, k.Mode, k.Timer, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Next, k.Prev, k.Restart},
		{k.Mode, k.ModeBack, k.Activity, k.Timer},
		{k.VolUp, k.Help, k.Quit},
	}
}

// pickerKeys is the help shown while the timer picker is open.
type pickerKeys struct{ keyMap }

func (k pickerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Cancel}
}

func (k pickerKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// summaryKeys is the help shown on the completion summary.
type summaryKeys struct{ keyMap }

func (k summaryKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Restart, k.Mode, k.Timer, k.Quit}
}

func (k summaryKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }
