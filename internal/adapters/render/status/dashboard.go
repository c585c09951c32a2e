package status

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	refreshInterval = time.Second
	actionTimeout   = 10 * time.Second
)

// Controller is the slice of the orchestrator the dashboard drives.
type Controller interface {
	ActiveSessions() []domain.Session
	Subscribe() (<-chan struct{}, func())
	TogglePauseResume(ctx context.Context, appID domain.AppID) error
	Stop(ctx context.Context, appID domain.AppID) error
	PauseAll(ctx context.Context) error
	ResumeAll(ctx context.Context) error
	StopAll(ctx context.Context) error
}

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Stop      key.Binding
	PauseAll  key.Binding
	ResumeAll key.Binding
	StopAll   key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "pause/resume")),
		Stop:      key.NewBinding(key.WithKeys("s", "x"), key.WithHelp("s", "stop")),
		PauseAll:  key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "pause all")),
		ResumeAll: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "resume all")),
		StopAll:   key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "stop all")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Stop, k.PauseAll, k.ResumeAll, k.StopAll, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Toggle, k.Stop}, {k.PauseAll, k.ResumeAll, k.StopAll, k.Quit}}
}

type sessionsChangedMsg struct{}

type tickMsg time.Time

type actionDoneMsg struct {
	label string
	err   error
}

type Dashboard struct {
	ctrl    Controller
	now     func() time.Time
	changes <-chan struct{}

	sessions []domain.Session
	cursor   int
	busy     bool
	lastErr  error
	notice   string

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	styles  styles
}

func NewDashboard(ctrl Controller, changes <-chan struct{}, now func() time.Time) Dashboard {
	if now == nil {
		now = time.Now
	}

	s := newStyles()
	spin := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.spinner))

	return Dashboard{
		ctrl:     ctrl,
		now:      now,
		changes:  changes,
		sessions: ctrl.ActiveSessions(),
		keys:     defaultKeyMap(),
		help:     help.New(),
		spinner:  spin,
		styles:   s,
	}
}

func (d Dashboard) Init() tea.Cmd {
	return tea.Batch(d.spinner.Tick, waitForChange(d.changes), tick())
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return sessionsChangedMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return d.handleKey(msg)
	case sessionsChangedMsg:
		d.refresh()
		return d, waitForChange(d.changes)
	case tickMsg:
		return d, tick()
	case actionDoneMsg:
		d.busy = false
		d.lastErr = msg.err
		if msg.err == nil {
			d.notice = msg.label
		}
		d.refresh()
		return d, nil
	case tea.WindowSizeMsg:
		d.help.Width = msg.Width
		return d, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd
	}
	return d, nil
}

func (d Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, d.keys.Quit):
		return d, tea.Quit
	case key.Matches(msg, d.keys.Up):
		if d.cursor > 0 {
			d.cursor--
		}
		return d, nil
	case key.Matches(msg, d.keys.Down):
		if d.cursor < len(d.sessions)-1 {
			d.cursor++
		}
		return d, nil
	}

	if d.busy {
		return d, nil
	}

	switch {
	case key.Matches(msg, d.keys.Toggle):
		if selected, ok := d.selected(); ok {
			return d.run(fmt.Sprintf("toggled %s", selected.DisplayName()), func(ctx context.Context) error {
				return d.ctrl.TogglePauseResume(ctx, selected.AppID)
			})
		}
	case key.Matches(msg, d.keys.Stop):
		if selected, ok := d.selected(); ok {
			return d.run(fmt.Sprintf("stopped %s", selected.DisplayName()), func(ctx context.Context) error {
				return d.ctrl.Stop(ctx, selected.AppID)
			})
		}
	case key.Matches(msg, d.keys.PauseAll):
		return d.run("paused all", d.ctrl.PauseAll)
	case key.Matches(msg, d.keys.ResumeAll):
		return d.run("resumed all", d.ctrl.ResumeAll)
	case key.Matches(msg, d.keys.StopAll):
		return d.run("stopped all", d.ctrl.StopAll)
	}
	return d, nil
}

func (d Dashboard) run(label string, action func(context.Context) error) (tea.Model, tea.Cmd) {
	d.busy = true
	d.lastErr = nil
	d.notice = ""
	return d, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionDoneMsg{label: label, err: action(ctx)}
	}
}

func (d *Dashboard) refresh() {
	d.sessions = d.ctrl.ActiveSessions()
	if d.cursor >= len(d.sessions) {
		d.cursor = len(d.sessions) - 1
	}
	if d.cursor < 0 {
		d.cursor = 0
	}
}

func (d Dashboard) selected() (domain.Session, bool) {
	if d.cursor < 0 || d.cursor >= len(d.sessions) {
		return domain.Session{}, false
	}
	return d.sessions[d.cursor], true
}

func (d Dashboard) View() string {
	s := d.styles
	opts := RenderOptions{Now: d.now()}

	heading := s.title.Render("Ghost Idler")
	if d.busy {
		heading = lipgloss.JoinHorizontal(lipgloss.Top, d.spinner.View(), " ", heading)
	}

	lines := []string{
		heading,
		s.header.Render(Summary(domain.CountSessions(d.sessions))),
	}

	if len(d.sessions) == 0 {
		lines = append(lines, s.empty.Render("No games are idling."))
	} else {
		rows := make([]string, 0, len(d.sessions))
		for i, session := range d.sessions {
			rows = append(rows, renderSession(session, opts, s, i == d.cursor))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	}

	switch {
	case d.lastErr != nil:
		lines = append(lines, s.section.Render(s.warning.Render(d.lastErr.Error())))
	case d.notice != "":
		lines = append(lines, s.section.Render(s.detail.Render(d.notice)))
	}

	lines = append(lines, s.section.Render(s.help.Render(d.help.View(d.keys))))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RunDashboard blocks until the user quits or ctx is cancelled.
func RunDashboard(ctx context.Context, ctrl Controller, in io.Reader, out io.Writer) error {
	changes, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	p := tea.NewProgram(
		NewDashboard(ctrl, changes, time.Now),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
