// Package ui provides the Bubbletea terminal user interface for batch
// runs, reporting each file's detection and ducking outcome as it lands.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FileStatus represents the processing state of a single file.
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusRunning
	StatusComplete
	StatusError
)

// FileProgress tracks progress for a single episode.
type FileProgress struct {
	InputPath string
	Status    FileStatus
	Stage     string

	StartTime   time.Time
	ElapsedTime time.Duration

	IntroStart      float64
	IntroEnd        float64
	Score           float64
	EpisodeLUFS     float64
	IntroLUFSBefore float64

	Error error
}

// Model is the Bubbletea model for the batch progress UI.
type Model struct {
	Files          []FileProgress
	CurrentIndex   int
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	StartTime time.Time
	Done      bool

	ProgressChan chan tea.Msg

	Width  int
	Height int
}

// NewModel creates a new UI model with the given input files.
func NewModel(inputFiles []string) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{InputPath: path, Status: StatusQueued}
	}

	return Model{
		Files:        files,
		CurrentIndex: -1,
		TotalFiles:   len(inputFiles),
		StartTime:    time.Now(),
		ProgressChan: make(chan tea.Msg, 100),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return waitForProgress(m.ProgressChan)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case ProgressMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			f := &m.Files[msg.FileIndex]
			if f.Status == StatusQueued {
				// The first stage report marks the file as running.
				f.Status = StatusRunning
				f.StartTime = time.Now()
			}
			f.Stage = msg.Stage
			f.ElapsedTime = time.Since(f.StartTime)
		}
		return m, waitForProgress(m.ProgressChan)

	case FileStartMsg:
		m.CurrentIndex = msg.FileIndex
		m.Files[m.CurrentIndex].Status = StatusRunning
		m.Files[m.CurrentIndex].StartTime = time.Now()
		return m, waitForProgress(m.ProgressChan)

	case FileCompleteMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			f := &m.Files[msg.FileIndex]
			f.IntroStart = msg.IntroStart
			f.IntroEnd = msg.IntroEnd
			f.Score = msg.Score
			f.EpisodeLUFS = msg.EpisodeLUFS
			f.IntroLUFSBefore = msg.IntroLUFSBefore
			f.Error = msg.Error

			if msg.Error != nil {
				f.Status = StatusError
				m.FailedFiles++
			} else {
				f.Status = StatusComplete
				m.CompletedFiles++
			}
		}
		return m, waitForProgress(m.ProgressChan)

	case AllCompleteMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nFiles: %d\n", len(m.Files))
	}
	if m.Done {
		return renderCompletionSummary(m)
	}
	return renderProcessingView(m)
}

func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
