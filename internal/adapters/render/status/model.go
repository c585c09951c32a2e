package status

import (
	"errors"
	"io"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	render func(styles) string
	styles styles
	output string
}

func newModel(render func(styles) string) model {
	return model{
		render: render,
		styles: newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = m.render(m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// Render formats a one-shot view of the given sessions.
func Render(sessions []domain.Session, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderView(sessions, opts, s)
	})
}

func RenderHistory(records []domain.HistoryRecord, total time.Duration) (string, error) {
	return run(func(s styles) string {
		return renderHistory(records, total, s)
	})
}

// RenderSnapshot formats the sessions saved for the next start.
func RenderSnapshot(records []domain.PersistedSession) (string, error) {
	return run(func(s styles) string {
		return renderSnapshot(records, s)
	})
}

func run(render func(styles) string) (string, error) {
	p := tea.NewProgram(
		newModel(render),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
