// Package filtergraph serializes a Gain Envelope into the filter
// expression consumed by the external renderer: a single algebraic
// expression of linear-in-dB segments keyed on playback time, plus the
// stream-copy directives that keep video and subtitles untouched.
package filtergraph

import (
	"fmt"
	"strings"

	"github.com/linuxmatters/intronaut/internal/gainplan"
)

// Graph is the synthesized filtergraph description handed to the
// renderer invocation.
type Graph struct {
	// VolumeExpr is an ffmpeg volume= eval=frame expression: evaluating
	// it at any playback time t yields 10^(envelope(t)/20).
	VolumeExpr string
	// DurationSeconds is the episode duration, recorded alongside the
	// expression (spec.md §4.7).
	DurationSeconds float64
	// StreamCopyArgs are the -c:v copy -c:s copy style directives that
	// pass video/subtitle streams through untouched.
	StreamCopyArgs []string
}

// Synthesize builds a Graph from env, covering an episode of the given
// duration.
func Synthesize(env *gainplan.Envelope, durationSeconds float64) *Graph {
	return &Graph{
		VolumeExpr:      buildExpr(env),
		DurationSeconds: durationSeconds,
		StreamCopyArgs:  []string{"-c:v", "copy", "-c:s", "copy"},
	}
}

// buildExpr emits a nested if()-chain over the envelope's breakpoints, in
// ffmpeg's volume filter expression syntax. Each segment ramps linearly
// in dB between consecutive breakpoints and exponentiates back to linear
// gain via pow(10,x/20), matching the linear-in-dB fade the Gain Envelope
// defines between nodes.
func buildExpr(env *gainplan.Envelope) string {
	bps := env.Breakpoints
	if len(bps) == 0 {
		return "1"
	}
	if len(bps) == 1 {
		return fmt.Sprintf("%.6f", gainplan.LinearGain(bps[0].GainDB))
	}

	expr := fmt.Sprintf("%.6f", gainplan.LinearGain(bps[len(bps)-1].GainDB))
	for i := len(bps) - 2; i >= 0; i-- {
		a, b := bps[i], bps[i+1]
		ga := gainplan.LinearGain(a.GainDB)

		var segment string
		if b.T == a.T {
			segment = fmt.Sprintf("%.6f", gainplan.LinearGain(b.GainDB))
		} else {
			slopeDB := (b.GainDB - a.GainDB) / (b.T - a.T)
			segment = fmt.Sprintf("pow(10,(%.6f+(t-%.6f)*%.6f)/20)", a.GainDB, a.T, slopeDB)
		}

		expr = fmt.Sprintf("if(lt(t,%.6f),%.6f,if(lt(t,%.6f),%s,%s))", a.T, ga, b.T, segment, expr)
	}
	return expr
}

// RenderArgs builds the full ffmpeg argument list for applying this
// graph to inputPath, writing outputPath, per spec.md §4.7.
func (g *Graph) RenderArgs(inputPath, outputPath string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-af", fmt.Sprintf("volume=eval=frame:volume='%s'", g.VolumeExpr),
	}
	args = append(args, g.StreamCopyArgs...)
	args = append(args, "-y", outputPath)
	return args
}

// String renders the volume filter with its expression and the recorded
// duration, for reports and debugging.
func (g *Graph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "volume=eval=frame:volume='%s' (duration=%.3fs)", g.VolumeExpr, g.DurationSeconds)
	return b.String()
}
