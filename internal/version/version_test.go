package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringPrefersInjectedVersion(t *testing.T) {
	original := Version
	t.Cleanup(func() { Version = original })

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", String())
}

func TestStringFallsBackToDev(t *testing.T) {
	assert.NotEmpty(t, String())
}
