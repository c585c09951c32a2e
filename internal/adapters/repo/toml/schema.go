package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version        int      `toml:"version"`
	UpdatedAt      string   `toml:"updated_at,omitempty"`
	ActiveSessions []string `toml:"active_sessions"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	if s.ActiveSessions == nil {
		s.ActiveSessions = []string{}
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported state schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}
