package tui

import (
	"fmt"
	"strings"

	"github.com/lcsecurity/scamcheck/internal/controller"
	"github.com/lcsecurity/scamcheck/internal/predict"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

const defaultWidth = 80

func (m appModel) View() string {
	// Once terminated, render nothing
	if m.appState == Terminated {
		return ""
	}

	state := m.controller.State()

	var b strings.Builder
	b.WriteString(m.titleStyle.Render(m.options.Title))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	b.WriteString(m.hintStyle.Render(fmt.Sprintf("Model: %s", state.Variant.DisplayName())))
	b.WriteString("\n")

	if content := m.statusContent(state); content != "" {
		b.WriteString(m.resultStyle.Render(content))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(m.hintStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m appModel) statusContent(state controller.State) string {
	switch state.Status {
	case controller.InFlight:
		return m.spinner.View() + " Checking with " + state.Variant.DisplayName() + "..."

	case controller.Succeeded:
		if state.Result == nil {
			return ""
		}
		style := m.benignStyle
		if state.Result.Label == predict.Malicious {
			style = m.maliciousStyle
		}
		return "Prediction: " + style.Render(state.Result.String())

	case controller.Failed:
		return m.errorStyle.Render(wrapText(state.Error, m.contentWidth()))

	default:
		return ""
	}
}

// contentWidth is the usable width inside the result box.
func (m appModel) contentWidth() int {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	return max(1, width-6)
}

// wrapText wraps on word boundaries, then hard-wraps tokens longer than
// the line such as URLs.
func wrapText(s string, width int) string {
	return wrap.String(wordwrap.String(s, width), width)
}
