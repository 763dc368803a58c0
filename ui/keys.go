package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	Focus      key.Binding
	Play       key.Binding
	Skip       key.Binding
	Restart    key.Binding
	Faster     key.Binding
	Slower     key.Binding
	Seek       key.Binding
	Menu       key.Binding
	Read       key.Binding
	Filter     key.Binding
	Refresh    key.Binding
	PrevVoice  key.Binding
	NextVoice  key.Binding
	PlayVoice  key.Binding
	Paste      key.Binding
	Back       key.Binding
	Help       key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
	MenuDelete key.Binding
	MenuCopy   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Focus:      key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "focus")),
		Play:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Skip:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+15s")),
		Restart:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		Faster:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Slower:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
		Seek:       key.NewBinding(key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9/0", "seek 10-100%")),
		Menu:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "actions")),
		Read:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "read")),
		Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Refresh:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
		PrevVoice:  key.NewBinding(key.WithKeys("left", "h", "up", "k")),
		NextVoice:  key.NewBinding(key.WithKeys("right", "l", "down", "j")),
		PlayVoice:  key.NewBinding(key.WithKeys("enter", "p"), key.WithHelp("enter", "play voice")),
		Paste:      key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:  key.NewBinding(key.WithKeys("ctrl+c")),
		MenuDelete: key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		MenuCopy:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy url")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Select, k.Play, k.Skip, k.Menu, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Focus},
		{k.Play, k.Skip, k.Restart, k.Seek},
		{k.Faster, k.Slower, k.Menu, k.Read},
		{k.Filter, k.Refresh, k.Paste, k.Quit},
	}
}
