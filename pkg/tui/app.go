package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lcsecurity/scamcheck/internal/controller"
	"go.uber.org/zap"
)

type appModel struct {
	ctx        context.Context
	controller *controller.Controller
	logger     *zap.Logger
	options    Options

	keys      keyMap
	help      help.Model
	textInput textinput.Model
	spinner   spinner.Model

	width    int
	notice   string
	appState appState

	titleStyle     lipgloss.Style
	hintStyle      lipgloss.Style
	errorStyle     lipgloss.Style
	benignStyle    lipgloss.Style
	maliciousStyle lipgloss.Style
	resultStyle    lipgloss.Style
}

// outcomeMsg carries a finished prediction back onto the update loop.
type outcomeMsg struct {
	outcome controller.Outcome
}

type copiedMsg struct {
	err error
}

type appState int

const (
	Active appState = iota
	Terminated
)

func initialModel(ctx context.Context, ctrl *controller.Controller, logger *zap.Logger, options Options) appModel {
	textInput := textinput.New()
	textInput.Prompt = "> "
	textInput.Placeholder = options.Placeholder
	textInput.CharLimit = options.CharLimit
	textInput.SetValue(ctrl.State().Input)
	textInput.Focus()

	return appModel{
		ctx:        ctx,
		controller: ctrl,
		logger:     logger,
		options:    options,

		keys:      newKeyMap(options.Presets),
		help:      help.New(),
		textInput: textInput,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		appState:  Active,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		hintStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")), // Faded gray
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")), // Red
		benignStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10")),
		maliciousStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9")),
		resultStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
	}
}

func (m appModel) Init() tea.Cmd {
	return textinput.Blink
}

// Run drives the interactive checker until the user quits. Cancelling ctx,
// e.g. on SIGTERM, is a clean shutdown.
func Run(ctx context.Context, ctrl *controller.Controller, logger *zap.Logger, options Options) error {
	return runProgram(ctx, initialModel(ctx, ctrl, logger, options), logger)
}

func runProgram(ctx context.Context, model appModel, logger *zap.Logger, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	m, err := p.Run()
	if ctx.Err() != nil && (err == nil || errors.Is(err, tea.ErrProgramKilled)) {
		logger.Info("tui stopped", zap.NamedError("cause", ctx.Err()))
		return nil
	}
	if err != nil {
		return err
	}

	if _, ok := m.(appModel); !ok {
		logger.Error("tui resulted in an unexpected app model")
		panic("tui resulted in an unexpected app model")
	}
	return nil
}
