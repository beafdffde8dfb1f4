// Package gainplan turns a detected or manual interval, the episode's
// and intro's loudness, and a duck mode into a piecewise-linear Gain
// Envelope with click-free fades.
package gainplan

import (
	"fmt"
	"math"

	"github.com/linuxmatters/intronaut/internal/introerr"
)

// Mode selects how the plateau gain is derived.
type Mode int

const (
	// FixedDB uses DuckDB directly as the plateau gain.
	FixedDB Mode = iota
	// TargetLUFS derives the plateau from TargetLUFS - intro loudness.
	TargetLUFS
)

// MinFadeSeconds prevents clicks at the ramp edges (spec.md §4.6).
const MinFadeSeconds = 0.02

// clampMin/clampMax bound the target-LUFS plateau (spec.md §4.6).
const (
	clampMin = -24.0
	clampMax = 0.0
)

// Request bundles the inputs to Plan.
type Request struct {
	IntroStart      float64
	IntroEnd        float64
	EpisodeDuration float64
	Mode            Mode
	FadeSeconds     float64
	DuckDB          float64
	TargetLUFS      float64
	IntroLoudness   *float64 // nil if undefined (spec.md §4.5 fallback)
}

// Breakpoint is one (t, gain_db) point of a Gain Envelope.
type Breakpoint struct {
	T      float64
	GainDB float64
}

// Envelope is the Gain Envelope of spec.md §3: a piecewise-linear
// function held at the endpoint value outside its first and last
// breakpoints.
type Envelope struct {
	Breakpoints []Breakpoint
}

// At evaluates the envelope at time t.
func (e *Envelope) At(t float64) float64 {
	bps := e.Breakpoints
	if len(bps) == 0 {
		return 0
	}
	if t <= bps[0].T {
		return bps[0].GainDB
	}
	if t >= bps[len(bps)-1].T {
		return bps[len(bps)-1].GainDB
	}
	for i := 0; i < len(bps)-1; i++ {
		a, b := bps[i], bps[i+1]
		if t >= a.T && t <= b.T {
			if b.T == a.T {
				return b.GainDB
			}
			frac := (t - a.T) / (b.T - a.T)
			return a.GainDB + frac*(b.GainDB-a.GainDB)
		}
	}
	return bps[len(bps)-1].GainDB
}

// Plan produces a Gain Envelope per spec.md §4.6.
func Plan(req Request) (*Envelope, error) {
	fade := req.FadeSeconds
	if fade < MinFadeSeconds {
		return nil, introerr.New(introerr.KindInvalidInterval, "gainplan",
			fmt.Errorf("fade %.4fs below minimum %.4fs", fade, MinFadeSeconds))
	}
	if req.IntroStart < 0 {
		return nil, introerr.New(introerr.KindInvalidInterval, "gainplan",
			fmt.Errorf("intro_start %.3f is negative", req.IntroStart))
	}
	if req.IntroEnd > req.EpisodeDuration {
		return nil, introerr.New(introerr.KindInvalidInterval, "gainplan",
			fmt.Errorf("intro_end %.3f exceeds episode duration %.3f", req.IntroEnd, req.EpisodeDuration))
	}
	if req.IntroEnd <= req.IntroStart {
		return nil, introerr.New(introerr.KindInvalidInterval, "gainplan",
			fmt.Errorf("intro_end %.3f must be after intro_start %.3f", req.IntroEnd, req.IntroStart))
	}

	plateau, err := resolvePlateau(req)
	if err != nil {
		return nil, err
	}

	start, end := req.IntroStart, req.IntroEnd
	span := end - start

	if 2*fade >= span {
		mid := (start + end) / 2
		return &Envelope{Breakpoints: []Breakpoint{
			{T: 0, GainDB: 0},
			{T: start, GainDB: 0},
			{T: mid, GainDB: plateau},
			{T: end, GainDB: 0},
		}}, nil
	}

	return &Envelope{Breakpoints: []Breakpoint{
		{T: 0, GainDB: 0},
		{T: start, GainDB: 0},
		{T: start + fade, GainDB: plateau},
		{T: end - fade, GainDB: plateau},
		{T: end, GainDB: 0},
	}}, nil
}

func resolvePlateau(req Request) (float64, error) {
	if req.Mode == TargetLUFS && req.IntroLoudness != nil {
		plateau := req.TargetLUFS - *req.IntroLoudness
		if plateau > clampMax {
			plateau = clampMax
		}
		if plateau < clampMin {
			plateau = clampMin
		}
		return plateau, nil
	}

	// Fixed-dB mode, or target-LUFS falling back because intro loudness
	// is undefined (spec.md §4.5/§8 mode-fallback property).
	if req.DuckDB > 0 {
		return 0, introerr.New(introerr.KindInvalidInterval, "gainplan",
			fmt.Errorf("duck_db %.2f is positive (amplification not supported)", req.DuckDB))
	}
	return req.DuckDB, nil
}

// LinearGain converts a dB gain to a linear amplitude multiplier.
func LinearGain(db float64) float64 {
	return math.Pow(10, db/20)
}
