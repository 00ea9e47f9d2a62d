package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelWarn, &buf)

	Debug("Test", "should not appear")
	Info("Test", "should not appear either")
	Warn("Test", "warn: %s", "visible")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "visible")
}

func TestTruncateID(t *testing.T) {
	require.Equal(t, "short", TruncateID("short"))
	require.Equal(t, "abcdefgh...", TruncateID("abcdefghijklmnop"))
}

func TestAuditFormatting(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Audit(AuditEvent{
		Action:    "certificate_issue",
		Outcome:   "success",
		SessionID: TruncateID("abcdefghijklmnop"),
		Target:    "as1.example.com",
	})

	out := buf.String()
	assert.True(t, strings.Contains(out, "[AUDIT]"))
	assert.True(t, strings.Contains(out, "action=certificate_issue"))
	assert.True(t, strings.Contains(out, "target=as1.example.com"))
}
