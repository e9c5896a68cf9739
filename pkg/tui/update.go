package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lcsecurity/scamcheck/internal/controller"
	"go.uber.org/zap"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.textInput.Width = max(1, msg.Width-4)
		m.help.Width = msg.Width
		m.resultStyle = m.resultStyle.Width(max(1, msg.Width-2))
		return m, nil

	case spinner.TickMsg:
		if !m.controller.State().Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case outcomeMsg:
		if !m.controller.Settle(msg.outcome) {
			m.logger.Debug(
				"tui discarding outcome",
				zap.Uint64("generation", msg.outcome.Generation),
				zap.Uint64("current", m.controller.State().Generation),
			)
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.logger.Warn("failed to copy verdict", zap.Error(msg.err))
			m.notice = "Copy failed: " + msg.err.Error()
		} else {
			m.notice = "Copied to clipboard"
		}
		return m, nil

	case tea.KeyMsg:
		m.notice = ""

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.appState = Terminated
			return m, tea.Quit

		case key.Matches(msg, m.keys.Submit):
			return m.startCheck(m.controller.Submit())

		case key.Matches(msg, m.keys.Toggle):
			m.controller.SelectVariant(m.controller.State().Variant.Toggle())
			return m, nil

		case key.Matches(msg, m.keys.Presets):
			for _, preset := range m.options.Presets {
				if msg.String() == preset.Key {
					text := clampToLimit(preset.Text, m.textInput.CharLimit)
					m.textInput.SetValue(text)
					m.textInput.CursorEnd()
					return m.startCheck(m.controller.SubmitPreset(text))
				}
			}
			return m, nil

		case key.Matches(msg, m.keys.Copy):
			return m, m.copyVerdict()
		}
	}

	return m.updateTextInput(msg)
}

func (m appModel) updateTextInput(msg tea.Msg) (appModel, tea.Cmd) {
	oldVal := m.textInput.Value()
	updatedTextInput, cmd := m.textInput.Update(msg)
	m.textInput = updatedTextInput

	if newVal := updatedTextInput.Value(); newVal != oldVal {
		m.controller.UpdateInput(newVal)
	}
	return m, cmd
}

// clampToLimit cuts text the way the text input would, so what is shown is
// what gets checked.
func clampToLimit(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// startCheck runs the prediction off the update loop. Only the outcome
// comes back; the controller decides whether it still applies.
func (m appModel) startCheck(task *controller.Task) (appModel, tea.Cmd) {
	if task == nil {
		return m, nil
	}

	ctx := m.ctx
	logger := m.logger
	generation := task.Generation()
	logger.Debug("tui starting check",
		zap.Uint64("generation", generation),
		zap.Bool("useBert", task.Request().UseBERT),
	)

	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			outcome := task.Run(ctx)
			if outcome.Err != nil {
				logger.Debug("tui check failed", zap.Uint64("generation", generation), zap.Error(outcome.Err))
			}
			return outcomeMsg{outcome: outcome}
		},
	)
}

func (m appModel) copyVerdict() tea.Cmd {
	line := verdictLine(m.controller.State())
	if line == "" || m.options.Clipboard == nil {
		return nil
	}
	write := m.options.Clipboard
	return func() tea.Msg {
		return copiedMsg{err: write(line)}
	}
}

// verdictLine is the plain-text form of a settled state.
func verdictLine(state controller.State) string {
	switch state.Status {
	case controller.Succeeded:
		if state.Result == nil {
			return ""
		}
		return "Prediction: " + state.Result.String()
	case controller.Failed:
		return state.Error
	default:
		return ""
	}
}
