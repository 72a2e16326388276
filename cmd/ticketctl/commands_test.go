package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatra-gate/backend/internal/models"
)

func TestRootDefaultsToFixtureCode(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"status", "debug", "reset", "schema"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.NoError(t, cmd.ParseFlags(nil))
		assert.Equal(t, fixtureCode, codeFlag(cmd), name)
	}
}

func TestCodeFlagOverride(t *testing.T) {
	root := newRootCmd()
	cmd, _, err := root.Find([]string{"status"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--code", "123456"}))
	assert.Equal(t, "123456", codeFlag(cmd))
}

func TestPrintToken(t *testing.T) {
	var buf bytes.Buffer
	printToken(&buf, "ab ")
	out := buf.String()
	assert.Contains(t, out, "- QR Token: 'ab '")
	assert.Contains(t, out, "- QR Token Length: 3")
	assert.Contains(t, out, "- QR Token Bytes: 616220")

	buf.Reset()
	printToken(&buf, "")
	assert.NotContains(t, buf.String(), "Length")
}

func TestPrintStatus(t *testing.T) {
	used := time.Date(2026, 2, 20, 9, 30, 0, 0, time.UTC)
	tk := &models.Ticket{ID: uuid.New(), Status: models.TicketStatusActive, UsageDay1: &used, LastUsedAt: &used}

	var buf bytes.Buffer
	printStatus(&buf, tk)
	out := buf.String()
	assert.Contains(t, out, "- Status: active")
	assert.Contains(t, out, "- Day 1 Used: 2026-02-20T09:30:00Z")
	assert.Contains(t, out, "- Day 2 Used: null")
}

func TestHashSecretCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"hash-secret", "demo123"})
	require.NoError(t, root.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "$2a$"))
}
