// Package report serializes a completed (or failed) Processing Request
// into the JSON report schema of spec.md §6.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/linuxmatters/intronaut/internal/gainplan"
)

// Detected describes the located (or manual) intro interval.
type Detected struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Score  float64 `json:"score"`
	Source string  `json:"source"` // "fingerprint" or "manual"
}

// Loudness carries the before/after loudness measurements.
type Loudness struct {
	EpisodeLUFS     float64  `json:"episode_lufs"`
	IntroLUFSBefore float64  `json:"intro_lufs_before"`
	IntroLUFSAfter  *float64 `json:"intro_lufs_after,omitempty"`
}

// EnvelopePoint is one [t, db] pair of the serialized envelope.
type EnvelopePoint [2]float64

// Report is the JSON document of spec.md §6, extended (SPEC_FULL.md §3)
// with the preset used and an error string. No caller sets Error: batch
// mode keeps a failed item's error on batch.Item and builds no Report.
type Report struct {
	Input           string          `json:"input"`
	Output          string          `json:"output,omitempty"`
	Detected        Detected        `json:"detected"`
	Loudness        Loudness        `json:"loudness"`
	Envelope        []EnvelopePoint `json:"envelope"`
	DurationSeconds float64         `json:"duration_seconds"`
	Preset          string          `json:"preset,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// FromEnvelope converts a Gain Envelope's breakpoints into the report's
// [[t, db], ...] array form.
func FromEnvelope(env *gainplan.Envelope) []EnvelopePoint {
	points := make([]EnvelopePoint, len(env.Breakpoints))
	for i, bp := range env.Breakpoints {
		points[i] = EnvelopePoint{bp.T, bp.GainDB}
	}
	return points
}

// Marshal renders r as indented JSON, per the CLI's --report-json flag.
func Marshal(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}
