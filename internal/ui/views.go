package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderProcessingView(m Model) string {
	var b strings.Builder
	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(renderFileQueue(m))
	b.WriteString("\n")
	b.WriteString(renderOverallProgress(m))
	return b.String()
}

func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5F5FD7")).
		Render("intronaut - batch intro detection")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("Processing %d file(s)", m.TotalFiles))

	return title + "\n" + subtitle
}

func renderFileQueue(m Model) string {
	var b strings.Builder
	for i, file := range m.Files {
		b.WriteString(renderFileEntry(file, i, m.CurrentIndex))
		b.WriteString("\n")
	}
	return b.String()
}

func renderFileEntry(file FileProgress, index int, currentIndex int) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusComplete:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
		return fmt.Sprintf(" %s %s\n   intro %.1fs–%.1fs (score %.2f) | %.1f LUFS",
			icon, fileName, file.IntroStart, file.IntroEnd, file.Score, file.EpisodeLUFS)

	case StatusRunning:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("⚙")
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, renderFileDetails(file))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

func renderFileDetails(file FileProgress) string {
	elapsed := file.ElapsedTime.Seconds()
	stage := file.Stage
	if stage == "" {
		stage = "ingest"
	}
	return fmt.Sprintf("%s (⏱ %.1fs)", stage, elapsed)
}

func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#888888")).
		Padding(0, 1).
		Width(60)

	var content string
	if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Files) {
		content = fmt.Sprintf("Processing file %d of %d (%d complete, %d failed)",
			m.CurrentIndex+1, m.TotalFiles, m.CompletedFiles, m.FailedFiles)
	} else {
		content = fmt.Sprintf("Overall Progress: %d/%d complete", m.CompletedFiles, m.TotalFiles)
	}

	return box.Render(content)
}

func renderCompletionSummary(m Model) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AA00")).
		Render("✨ Batch Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")

	for _, file := range m.Files {
		if file.Status == StatusComplete {
			b.WriteString(renderCompletedFile(file))
			b.WriteString("\n")
		} else if file.Status == StatusError {
			b.WriteString(fmt.Sprintf(" ✗ %s: %v\n", filepath.Base(file.InputPath), file.Error))
		}
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d completed, %d failed\n", m.CompletedFiles, m.FailedFiles))

	return b.String()
}

func renderCompletedFile(file FileProgress) string {
	fileName := filepath.Base(file.InputPath)
	icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")

	return fmt.Sprintf(" %s %s\n   intro %.1fs–%.1fs (score %.2f) | episode %.1f LUFS, intro %.1f LUFS",
		icon, fileName, file.IntroStart, file.IntroEnd, file.Score, file.EpisodeLUFS, file.IntroLUFSBefore)
}
