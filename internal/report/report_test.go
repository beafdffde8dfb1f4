package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linuxmatters/intronaut/internal/gainplan"
)

func TestFromEnvelopeConvertsBreakpoints(t *testing.T) {
	env := &gainplan.Envelope{Breakpoints: []gainplan.Breakpoint{
		{T: 0, GainDB: 0},
		{T: 5, GainDB: -10},
	}}

	points := FromEnvelope(env)
	assert.Equal(t, []EnvelopePoint{{0, 0}, {5, -10}}, points)
}

func TestMarshalProducesValidIndentedJSON(t *testing.T) {
	after := -14.2
	r := &Report{
		Input:  "episode.mkv",
		Output: "episode.out.mkv",
		Detected: Detected{
			Start: 10, End: 40, Score: 0.91, Source: "fingerprint",
		},
		Loudness: Loudness{
			EpisodeLUFS:     -18.3,
			IntroLUFSBefore: -12.0,
			IntroLUFSAfter:  &after,
		},
		Envelope:        []EnvelopePoint{{0, 0}, {10, -10}},
		DurationSeconds: 1500,
	}

	data, err := Marshal(r)
	assert.NoError(t, err)

	var decoded Report
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.Input, decoded.Input)
	assert.Equal(t, r.Detected.Score, decoded.Detected.Score)
	assert.NotNil(t, decoded.Loudness.IntroLUFSAfter)
	assert.Equal(t, after, *decoded.Loudness.IntroLUFSAfter)
}

func TestMarshalOmitsEmptyErrorAndOutput(t *testing.T) {
	r := &Report{Input: "a.mkv", Detected: Detected{Source: "manual"}}
	data, err := Marshal(r)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), `"error"`)
	assert.NotContains(t, string(data), `"output"`)
}
