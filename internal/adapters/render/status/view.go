package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
}

// Summary is the one-line aggregate shown in headless logs and the dashboard.
func Summary(counts domain.SessionCounts) string {
	return fmt.Sprintf("Idling: %d active, %d paused", counts.Running, counts.Paused)
}

func renderView(sessions []domain.Session, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Ghost Idler"),
		s.header.Render(Summary(domain.CountSessions(sessions))),
	}

	if len(sessions) == 0 {
		lines = append(lines, s.empty.Render("No games are idling."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	rows := make([]string, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, renderSession(session, opts, s, false))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(session domain.Session, opts RenderOptions, s styles, selected bool) string {
	nameStyle := s.game
	cursor := "  "
	if selected {
		nameStyle = s.selected
		cursor = "> "
	}

	badge := s.running.Render("running")
	detail := fmt.Sprintf("pid %d", session.PID)
	if session.Paused {
		badge = s.paused.Render("paused ")
		detail = "no helper"
		if !session.PausedAt.IsZero() && !opts.Now.IsZero() {
			detail = fmt.Sprintf("paused %s ago", FormatElapsed(opts.Now.Sub(session.PausedAt)))
		}
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		cursor,
		nameStyle.Render(fmt.Sprintf("%s (%s)", session.DisplayName(), session.AppID)),
		"  ",
		badge,
		"  ",
		s.elapsed.Render(FormatElapsed(session.Elapsed(opts.Now))),
		"  ",
		s.detail.Render(detail),
	)
}

// FormatElapsed renders a duration as "1h 02m 03s", dropping leading zero units.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)

	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %02ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func renderHistory(records []domain.HistoryRecord, total time.Duration, s styles) string {
	lines := []string{
		s.title.Render("Idle history"),
		s.header.Render(fmt.Sprintf("sessions: %d, total idle: %s", len(records), FormatElapsed(total))),
	}

	if len(records) == 0 {
		lines = append(lines, s.empty.Render("No sessions recorded yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	rows := make([]string, 0, len(records))
	for _, record := range records {
		status := s.detail.Render(string(record.Status))
		if record.Status == domain.HistoryActive {
			status = s.running.Render(string(record.Status))
		}

		name := strings.TrimSpace(record.GameName)
		if name == "" {
			name = fmt.Sprintf("App %s", record.AppID)
		}

		rows = append(rows, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.header.Render(record.StartedAt.Local().Format("2006-01-02 15:04")),
			"  ",
			s.game.Render(fmt.Sprintf("%s (%s)", name, record.AppID)),
			"  ",
			s.elapsed.Render(FormatElapsed(record.Duration)),
			"  ",
			status,
		))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSnapshot(records []domain.PersistedSession, s styles) string {
	counts := domain.SessionCounts{}
	for _, record := range records {
		if record.Paused {
			counts.Paused++
		} else {
			counts.Running++
		}
	}

	lines := []string{
		s.title.Render("Saved sessions"),
		s.header.Render(Summary(counts)),
	}

	if len(records) == 0 {
		lines = append(lines, s.empty.Render("Nothing will be restored on the next run."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	rows := make([]string, 0, len(records))
	for _, record := range records {
		session := domain.Session{AppID: record.AppID, Name: record.Name}
		badge := s.running.Render("resume")
		if record.Paused {
			badge = s.paused.Render("paused")
		}
		rows = append(rows, lipgloss.JoinHorizontal(
			lipgloss.Top,
			"  ",
			s.game.Render(fmt.Sprintf("%s (%s)", session.DisplayName(), record.AppID)),
			"  ",
			badge,
		))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
