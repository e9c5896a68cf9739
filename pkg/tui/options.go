package tui

import "github.com/atotto/clipboard"

// Preset is a built-in example message bound to a function key.
type Preset struct {
	Key  string
	Name string
	Text string
}

type Options struct {
	Title       string
	Placeholder string
	CharLimit   int
	Presets     []Preset

	// Clipboard receives the verdict line on ctrl+y.
	Clipboard func(string) error
}

func DefaultPresets() []Preset {
	return []Preset{
		{Key: "f1", Name: "lunch", Text: "Do you want to have lunch tomorrow?"},
		{Key: "f2", Name: "prize", Text: "Congratulations! You have been selected to win a $1000 gift card. Click here to claim your prize now."},
		{Key: "f3", Name: "bank", Text: "URGENT: Your bank account has been suspended. Verify your identity at the link below within 24 hours."},
		{Key: "f4", Name: "meeting", Text: "Hi team, the project meeting has moved to 3pm on Thursday. See you there."},
	}
}

func NewOptions() Options {
	return Options{
		Title:       "Scam Check",
		Placeholder: "Paste a message to check",
		CharLimit:   4096,
		Presets:     DefaultPresets(),
		Clipboard:   clipboard.WriteAll,
	}
}
