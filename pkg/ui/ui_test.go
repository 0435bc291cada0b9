package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	SetOutput(&stdout, &stderr)
	SetNoColor(true)
	t.Cleanup(func() {
		SetQuietMode(false)
		SetNoColor(false)
	})
	return &stdout, &stderr
}

func TestPrintHelpers(t *testing.T) {
	stdout, stderr := captureOutput(t)

	PrintInfo("Targets", "2")
	PrintSuccess("done")
	PrintWarning("slow", "rate limited")
	PrintError("failed", "boom")

	assert.Equal(t, "Targets: 2\ndone\nslow: rate limited\n", stdout.String())
	assert.Equal(t, "failed: boom\n", stderr.String())
}

func TestQuietModeKeepsErrors(t *testing.T) {
	stdout, stderr := captureOutput(t)
	SetQuietMode(true)

	PrintSuccess("hidden")
	PrintHighlight("hidden")
	PrintError("shown")

	assert.Empty(t, stdout.String())
	assert.Equal(t, "shown\n", stderr.String())
}

func TestColorize(t *testing.T) {
	SetNoColor(false)
	assert.Equal(t, "\033[32mok\033[0m", Green("ok"))
	SetNoColor(true)
	defer SetNoColor(false)
	assert.Equal(t, "ok", Green("ok"))
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTable(&buf, []string{"ID", "Handle"}, [][]string{
		{"1", "alice"},
		{"2", "bob"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
	assert.Contains(t, strings.ToUpper(out), "HANDLE")
}
