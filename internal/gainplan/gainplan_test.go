package gainplan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func baseRequest() Request {
	return Request{
		IntroStart:      10,
		IntroEnd:        40,
		EpisodeDuration: 1200,
		Mode:            FixedDB,
		FadeSeconds:     0.5,
		DuckDB:          -10,
	}
}

func TestPlanRejectsFadeBelowMinimum(t *testing.T) {
	req := baseRequest()
	req.FadeSeconds = 0.001
	_, err := Plan(req)
	assert.Error(t, err)
}

func TestPlanRejectsNegativeIntroStart(t *testing.T) {
	req := baseRequest()
	req.IntroStart = -1
	_, err := Plan(req)
	assert.Error(t, err)
}

func TestPlanRejectsIntroEndBeyondEpisode(t *testing.T) {
	req := baseRequest()
	req.IntroEnd = req.EpisodeDuration + 1
	_, err := Plan(req)
	assert.Error(t, err)
}

func TestPlanRejectsInvertedInterval(t *testing.T) {
	req := baseRequest()
	req.IntroStart, req.IntroEnd = 40, 10
	_, err := Plan(req)
	assert.Error(t, err)
}

func TestPlanRejectsPositiveDuckDB(t *testing.T) {
	req := baseRequest()
	req.DuckDB = 5
	_, err := Plan(req)
	assert.Error(t, err)
}

func TestPlanEndpointsAreZeroGain(t *testing.T) {
	req := baseRequest()
	env, err := Plan(req)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, env.At(0))
	assert.Equal(t, 0.0, env.At(req.EpisodeDuration))
}

func TestPlanCollapsesToTriangleWhenSpanTooShortForFades(t *testing.T) {
	req := baseRequest()
	req.IntroStart, req.IntroEnd, req.FadeSeconds = 10, 10.3, 0.5
	env, err := Plan(req)
	assert.NoError(t, err)

	mid := (req.IntroStart + req.IntroEnd) / 2
	assert.InDelta(t, req.DuckDB, env.At(mid), 1e-9)
	assert.Equal(t, 0.0, env.At(req.IntroStart))
	assert.Equal(t, 0.0, env.At(req.IntroEnd))
}

func TestPlanHoldsPlateauBetweenFades(t *testing.T) {
	req := baseRequest()
	env, err := Plan(req)
	assert.NoError(t, err)

	assert.InDelta(t, req.DuckDB, env.At(req.IntroStart+req.FadeSeconds), 1e-9)
	assert.InDelta(t, req.DuckDB, env.At(req.IntroEnd-req.FadeSeconds), 1e-9)
	assert.InDelta(t, req.DuckDB, env.At((req.IntroStart+req.IntroEnd)/2), 1e-9)
}

func TestPlanTargetLUFSFallsBackToFixedWhenUndefined(t *testing.T) {
	req := baseRequest()
	req.Mode = TargetLUFS
	req.TargetLUFS = -16
	req.IntroLoudness = nil

	env, err := Plan(req)
	assert.NoError(t, err)
	assert.InDelta(t, req.DuckDB, env.At((req.IntroStart+req.IntroEnd)/2), 1e-9)
}

func TestPlanTargetLUFSClampsToRange(t *testing.T) {
	req := baseRequest()
	req.Mode = TargetLUFS
	loud := -5.0
	req.IntroLoudness = &loud
	req.TargetLUFS = -40 // would want a plateau far below clampMin

	env, err := Plan(req)
	assert.NoError(t, err)
	plateau := env.At((req.IntroStart + req.IntroEnd) / 2)
	assert.GreaterOrEqual(t, plateau, clampMin)
	assert.LessOrEqual(t, plateau, clampMax)
}

func TestEnvelopeAtIsContinuous(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		req := baseRequest()
		req.FadeSeconds = rapid.Float64Range(0.02, 5).Draw(t, "fade")
		req.IntroEnd = req.IntroStart + rapid.Float64Range(0.05, 60).Draw(t, "span")

		env, err := Plan(req)
		if err != nil {
			return
		}

		var prev float64
		first := true
		for tt := 0.0; tt <= req.EpisodeDuration; tt += req.EpisodeDuration / 200 {
			v := env.At(tt)
			if !first && math.Abs(v-prev) > 40 {
				t.Fatalf("discontinuity near t=%f: %f -> %f", tt, prev, v)
			}
			prev = v
			first = false
		}
	})
}

func TestLinearGainUnityAtZeroDB(t *testing.T) {
	assert.InDelta(t, 1.0, LinearGain(0), 1e-9)
}

func TestLinearGainMatchesFormula(t *testing.T) {
	for _, db := range []float64{-20, -10, -6, -3, 0} {
		assert.InDelta(t, math.Pow(10, db/20), LinearGain(db), 1e-9)
	}
}
