package domain

import (
	"fmt"
	"strings"
)

const recordSeparator = ":"

// PersistedSession is the durable part of a session: enough to relaunch it
// or restore it as a paused placeholder.
type PersistedSession struct {
	AppID  AppID
	Name   string
	Paused bool
}

// String encodes the record as "<appId>:<name>:<0|1>".
func (p PersistedSession) String() string {
	flag := "0"
	if p.Paused {
		flag = "1"
	}

	return strings.Join([]string{p.AppID.String(), p.Name, flag}, recordSeparator)
}

// ParsePersistedSession decodes a record produced by String. The first field
// is the app id and, when three or more fields are present, the last one is
// the paused flag; everything in between is the name.
func ParsePersistedSession(raw string) (PersistedSession, error) {
	parts := strings.Split(strings.TrimSpace(raw), recordSeparator)
	if len(parts) < 2 {
		return PersistedSession{}, fmt.Errorf("%w: %q", ErrMalformedSnapshot, raw)
	}

	id, err := ParseAppID(parts[0])
	if err != nil {
		return PersistedSession{}, fmt.Errorf("%w: %q: %w", ErrMalformedSnapshot, raw, err)
	}

	if len(parts) == 2 {
		return PersistedSession{AppID: id, Name: parts[1]}, nil
	}

	var paused bool
	switch strings.TrimSpace(parts[len(parts)-1]) {
	case "1":
		paused = true
	case "0":
	default:
		return PersistedSession{}, fmt.Errorf("%w: %q: bad paused flag", ErrMalformedSnapshot, raw)
	}

	return PersistedSession{
		AppID:  id,
		Name:   strings.Join(parts[1:len(parts)-1], recordSeparator),
		Paused: paused,
	}, nil
}

func SnapshotOf(sessions []Session) []PersistedSession {
	records := make([]PersistedSession, 0, len(sessions))
	for _, session := range sessions {
		records = append(records, PersistedSession{
			AppID:  session.AppID,
			Name:   session.Name,
			Paused: session.Paused,
		})
	}

	return records
}
