package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Makepad-fr/tasker/internal/model"
)

func TestToggle(t *testing.T) {
	SetTheme(Dark)
	assert.Equal(t, Light, Toggle().Name)
	assert.Equal(t, Dark, Toggle().Name)

	SetTheme(Mono)
	assert.Equal(t, Dark, Toggle().Name)
}

func TestSetTheme_UnknownFallsBackToDark(t *testing.T) {
	assert.Equal(t, Dark, SetTheme("solarized").Name)
	assert.False(t, Valid("solarized"))
	assert.True(t, Valid("LIGHT"))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░  50%", ProgressBar(1, 2, 10))
	assert.Equal(t, "░░░░░   0%", ProgressBar(0, 0, 1))
}

func TestTaskLine(t *testing.T) {
	SetTheme(Mono)
	defer SetTheme(Dark)

	line := TaskLine(model.Task{Title: "buy milk", Priority: model.PriorityHigh, DueDate: "2025-05-01T00:00:00Z"})
	assert.Contains(t, line, "[ ]")
	assert.Contains(t, line, "buy milk")
	assert.Contains(t, line, "HIGH")
	assert.Contains(t, line, "due 2025-05-01")
	assert.NotContains(t, line, "T00")

	done := TaskLine(model.Task{Title: "x", Completed: true})
	assert.Contains(t, done, "[x]")
	assert.Contains(t, done, "LOW")
}

func TestOKAndFail(t *testing.T) {
	SetTheme(Mono)
	defer SetTheme(Dark)
	var buf bytes.Buffer

	OK(&buf, "saved")
	Fail(&buf, "boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "saved")
	assert.Contains(t, lines[1], "boom")
}
