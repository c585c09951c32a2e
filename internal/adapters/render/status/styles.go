package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	game     lipgloss.Style
	selected lipgloss.Style
	detail   lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	warning  lipgloss.Style
	section  lipgloss.Style
	empty    lipgloss.Style
	elapsed  lipgloss.Style
	help     lipgloss.Style
	spinner  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		game:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		running:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		paused:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:  lipgloss.NewStyle().MarginTop(1),
		empty:    lipgloss.NewStyle().Faint(true),
		elapsed:  lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		help:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		spinner:  lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
	}
}
