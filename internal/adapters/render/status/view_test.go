package status

import (
	"testing"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSessions(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render([]domain.Session{
		{AppID: 570, Name: "Dota 2", RunStart: now.Add(-90 * time.Minute), PID: 4242},
		{AppID: 730, Accrued: 5 * time.Minute, Paused: true, PausedAt: now.Add(-2 * time.Minute)},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "Idling: 1 active, 1 paused")
	assert.Contains(t, output, "Dota 2 (570)")
	assert.Contains(t, output, "1h 30m 00s")
	assert.Contains(t, output, "pid 4242")
	assert.Contains(t, output, "App 730 (730)")
	assert.Contains(t, output, "paused 2m 00s ago")
	assert.Contains(t, output, "5m 00s")
}

func TestRenderNoSessions(t *testing.T) {
	output, err := Render(nil, RenderOptions{Now: time.Now()})

	require.NoError(t, err)
	assert.Contains(t, output, "Idling: 0 active, 0 paused")
	assert.Contains(t, output, "No games are idling.")
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Idling: 3 active, 2 paused", Summary(domain.SessionCounts{Running: 3, Paused: 2}))
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: -time.Second, want: "0s"},
		{in: 1500 * time.Millisecond, want: "1s"},
		{in: 61 * time.Second, want: "1m 01s"},
		{in: 2*time.Hour + 3*time.Minute + 4*time.Second, want: "2h 03m 04s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.in), tt.in.String())
	}
}

func TestRenderHistory(t *testing.T) {
	start := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)

	output, err := RenderHistory([]domain.HistoryRecord{
		{ID: 2, AppID: 570, GameName: "Dota 2", StartedAt: start, Status: domain.HistoryActive},
		{ID: 1, AppID: 440, StartedAt: start.Add(-time.Hour), Duration: 45 * time.Minute, Status: domain.HistoryStopped},
	}, 45*time.Minute)

	require.NoError(t, err)
	assert.Contains(t, output, "sessions: 2, total idle: 45m 00s")
	assert.Contains(t, output, "Dota 2 (570)")
	assert.Contains(t, output, "App 440 (440)")
	assert.Contains(t, output, "active")
	assert.Contains(t, output, "stopped")
}

func TestRenderHistoryEmpty(t *testing.T) {
	output, err := RenderHistory(nil, 0)

	require.NoError(t, err)
	assert.Contains(t, output, "No sessions recorded yet.")
}

func TestRenderSnapshot(t *testing.T) {
	output, err := RenderSnapshot([]domain.PersistedSession{
		{AppID: 100, Name: "Alpha"},
		{AppID: 200, Name: "Beta", Paused: true},
	})

	require.NoError(t, err)
	assert.Contains(t, output, "Idling: 1 active, 1 paused")
	assert.Contains(t, output, "Alpha (100)")
	assert.Contains(t, output, "Beta (200)")
	assert.Contains(t, output, "resume")
}
