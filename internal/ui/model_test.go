package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestNewModelQueuesAllFiles(t *testing.T) {
	m := NewModel([]string{"a.mkv", "b.mkv"})
	assert.Equal(t, 2, m.TotalFiles)
	assert.Equal(t, -1, m.CurrentIndex)
	for _, f := range m.Files {
		assert.Equal(t, StatusQueued, f.Status)
	}
}

func TestUpdateFileStartMarksRunning(t *testing.T) {
	m := NewModel([]string{"a.mkv"})
	updated, _ := m.Update(FileStartMsg{FileIndex: 0, FileName: "a.mkv"})
	mm := updated.(Model)
	assert.Equal(t, StatusRunning, mm.Files[0].Status)
	assert.Equal(t, 0, mm.CurrentIndex)
}

func TestUpdateFileCompleteSuccessIncrementsCompleted(t *testing.T) {
	m := NewModel([]string{"a.mkv"})
	m, _ = asModel(m.Update(FileStartMsg{FileIndex: 0}))
	m, _ = asModel(m.Update(FileCompleteMsg{FileIndex: 0, IntroStart: 1, IntroEnd: 5, Score: 0.9}))

	assert.Equal(t, StatusComplete, m.Files[0].Status)
	assert.Equal(t, 1, m.CompletedFiles)
	assert.Equal(t, 0, m.FailedFiles)
}

func TestUpdateFileCompleteErrorIncrementsFailed(t *testing.T) {
	m := NewModel([]string{"a.mkv"})
	m, _ = asModel(m.Update(FileStartMsg{FileIndex: 0}))
	m, _ = asModel(m.Update(FileCompleteMsg{FileIndex: 0, Error: errors.New("boom")}))

	assert.Equal(t, StatusError, m.Files[0].Status)
	assert.Equal(t, 1, m.FailedFiles)
	assert.Equal(t, 0, m.CompletedFiles)
}

func TestUpdateAllCompleteSetsDoneAndQuits(t *testing.T) {
	m := NewModel([]string{"a.mkv"})
	updated, cmd := m.Update(AllCompleteMsg{})
	mm := updated.(Model)
	assert.True(t, mm.Done)
	assert.NotNil(t, cmd)
}

func TestUpdateQuitKeyReturnsQuitCmd(t *testing.T) {
	m := NewModel([]string{"a.mkv"})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)
}

func TestUpdateWindowSizeStoresDimensions(t *testing.T) {
	m := NewModel([]string{"a.mkv"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	mm := updated.(Model)
	assert.Equal(t, 100, mm.Width)
	assert.Equal(t, 40, mm.Height)
}

func asModel(model tea.Model, cmd tea.Cmd) (Model, tea.Cmd) {
	return model.(Model), cmd
}
