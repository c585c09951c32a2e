package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MarkerFileName is the file the helper reads its target app id from.
const MarkerFileName = "steam_appid.txt"

type AppID uint32

func ParseAppID(raw string) (AppID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAppID)
	}

	value, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAppID, trimmed)
	}
	if value == 0 {
		return 0, fmt.Errorf("%w: zero", ErrInvalidAppID)
	}

	return AppID(value), nil
}

func (id AppID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Session is a point-in-time copy of one tracked idle session.
type Session struct {
	AppID    AppID
	Name     string
	Paused   bool
	PausedAt time.Time
	// Accrued is the idle time collected by runs that have already ended.
	Accrued time.Duration
	// RunStart is zero while paused.
	RunStart time.Time
	PID      int
}

func (s Session) Elapsed(now time.Time) time.Duration {
	if s.Paused || s.RunStart.IsZero() {
		return s.Accrued
	}

	current := now.Sub(s.RunStart)
	if current < 0 {
		current = 0
	}

	return s.Accrued + current
}

func (s Session) DisplayName() string {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Sprintf("App %s", s.AppID)
	}

	return s.Name
}

type SessionCounts struct {
	Running int
	Paused  int
}

func (c SessionCounts) Total() int {
	return c.Running + c.Paused
}

func CountSessions(sessions []Session) SessionCounts {
	var counts SessionCounts
	for _, session := range sessions {
		if session.Paused {
			counts.Paused++
			continue
		}
		counts.Running++
	}

	return counts
}
