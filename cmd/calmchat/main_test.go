package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/calmchat/internal/auth"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func clearProviderEnv(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY", "DB_DSN", "RABBIT_URL", "SESSION_STORE", "CANNED_RULES_PATH"} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

func TestCheckCommand(t *testing.T) {
	clearProviderEnv(t)
	assert.Equal(t, "crisis: matched \"hurt myself\"\n", run(t, "check", "I", "want", "to", "hurt", "myself"))
	assert.Equal(t, "no crisis phrase matched\n", run(t, "check", "nice weather today"))
}

func TestAskCommand_NotConfigured(t *testing.T) {
	clearProviderEnv(t)
	out := run(t, "ask", "hello")
	assert.True(t, strings.HasPrefix(out, "AI is not configured yet."), out)

	out = run(t, "ask", "--json", "--session", "abc", "   ")
	assert.Contains(t, out, `"session_id": "abc"`)
	assert.Contains(t, out, `"response": "Please type a message."`)
}

func TestHashPasswordCommand(t *testing.T) {
	clearProviderEnv(t)
	hash := strings.TrimSpace(run(t, "hash-password", "letmein"))
	assert.True(t, auth.CheckPassword(hash, "letmein"))
}
