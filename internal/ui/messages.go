package ui

// ProgressMsg reports an in-flight file's current stage.
type ProgressMsg struct {
	FileIndex int
	Stage     string // "ingest", "match", "meter", "plan"
}

// FileStartMsg indicates a new file has started processing.
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished processing.
type FileCompleteMsg struct {
	FileIndex       int
	IntroStart      float64
	IntroEnd        float64
	Score           float64
	EpisodeLUFS     float64
	IntroLUFSBefore float64
	Error           error
}

// AllCompleteMsg indicates all files have been processed.
type AllCompleteMsg struct{}
