package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Submit  key.Binding
	Toggle  key.Binding
	Presets key.Binding
	Copy    key.Binding
	Quit    key.Binding
}

func newKeyMap(presets []Preset) keyMap {
	presetKeys := make([]string, 0, len(presets))
	for _, preset := range presets {
		presetKeys = append(presetKeys, preset.Key)
	}
	presetHelp := "f1-f4"
	if len(presetKeys) > 0 {
		presetHelp = presetKeys[0]
		if len(presetKeys) > 1 {
			presetHelp += "-" + presetKeys[len(presetKeys)-1]
		}
	}

	keys := keyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "check"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch model"),
		),
		Presets: key.NewBinding(
			key.WithKeys(presetKeys...),
			key.WithHelp(strings.ToLower(presetHelp), "examples"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy verdict"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
	keys.Presets.SetEnabled(len(presetKeys) > 0)
	return keys
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Toggle, k.Presets, k.Copy, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
