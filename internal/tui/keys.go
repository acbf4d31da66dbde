package tui

import "github.com/charmbracelet/bubbles/key"

const maxToggleKeys = 9

type keyMap struct {
	Toggle key.Binding
	Left   key.Binding
	Right  key.Binding
	Flip   key.Binding
	Next   key.Binding
	Repeat key.Binding
	Type   key.Binding
	Submit key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "toggle word"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/→", "focus"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
		),
		Flip: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "toggle focused"),
		),
		Next: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "score & next"),
		),
		Repeat: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "repeat"),
		),
		Type: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "type response"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "judge response"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// judgeKeys is the help view while judging a trial.
type judgeKeys keyMap

func (k judgeKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Left, k.Flip, k.Next, k.Repeat, k.Type, k.Quit}
}

func (k judgeKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// typingKeys is the help view while a response is typed.
type typingKeys keyMap

func (k typingKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel}
}

func (k typingKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
