package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTag(t *testing.T) {
	a := SessionTag("session-a")
	assert.Len(t, a, 12)
	assert.Equal(t, a, SessionTag("session-a"))
	assert.NotEqual(t, a, SessionTag("session-b"))
	assert.NotContains(t, a, "session")
	assert.Empty(t, SessionTag(""))
}

func TestNew(t *testing.T) {
	logger, err := New("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = New("loud", "json")
	assert.Error(t, err)
}
