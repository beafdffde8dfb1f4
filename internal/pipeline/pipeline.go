// Package pipeline ties the core components into the single
// straight-line request spec.md §5 describes: ingest, features, match,
// meter, plan, synthesize, render.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/linuxmatters/intronaut/internal/audio"
	"github.com/linuxmatters/intronaut/internal/features"
	"github.com/linuxmatters/intronaut/internal/filtergraph"
	"github.com/linuxmatters/intronaut/internal/fingerprint"
	"github.com/linuxmatters/intronaut/internal/gainplan"
	"github.com/linuxmatters/intronaut/internal/introerr"
	"github.com/linuxmatters/intronaut/internal/loudness"
	"github.com/linuxmatters/intronaut/internal/match"
	"github.com/linuxmatters/intronaut/internal/report"
	"github.com/linuxmatters/intronaut/internal/subprocess"
)

// RenderTimeout is the renderer subprocess's default deadline
// (spec.md §5).
const RenderTimeout = 30 * time.Minute

// Request is the Processing Request of spec.md §3.
type Request struct {
	EpisodePath     string
	OutputPath      string
	FingerprintPath string // not read when ManualStart/ManualEnd are set
	Mode            gainplan.Mode
	DuckDB          float64
	TargetLUFS      float64
	FadeSeconds     float64
	ManualStart     *float64
	ManualEnd       *float64
	RequireMatch    bool
	MatchConfig     match.Config
	FeaturesConfig  features.Config

	// OnStage, if set, is called as Analyze passes through each stage of
	// spec.md §5's pipeline ("ingest", "match", "meter", "plan"). Batch
	// mode uses it to drive the TUI's per-file progress display.
	OnStage func(stage string)
}

func (r Request) reportStage(stage string) {
	if r.OnStage != nil {
		r.OnStage(stage)
	}
}

// Result bundles everything a caller (CLI or batch worker) needs to emit
// a report and render the output.
type Result struct {
	Buffer   *audio.Buffer
	Detected report.Detected
	Envelope *gainplan.Envelope
	Graph    *filtergraph.Graph
	Loudness report.Loudness
}

// Analyze runs ingest → features → (match or manual interval) → meter →
// plan → synthesize, without invoking the renderer. process/analyze/batch
// all share this.
func Analyze(ctx context.Context, req Request) (*Result, error) {
	featCfg := req.FeaturesConfig
	if featCfg.SampleRate == 0 {
		featCfg = features.DefaultConfig()
	}

	req.reportStage("ingest")
	buf, err := audio.Decode(ctx, req.EpisodePath, featCfg.SampleRate)
	if err != nil {
		return nil, err
	}

	duration := buf.Duration()

	req.reportStage("match")
	var detected report.Detected
	if req.ManualStart != nil && req.ManualEnd != nil {
		detected = report.Detected{
			Start:  *req.ManualStart,
			End:    *req.ManualEnd,
			Score:  1.0,
			Source: "manual",
		}
	} else {
		candidate, err := features.Extract(buf, featCfg)
		if err != nil {
			return nil, err
		}

		ref, err := fingerprint.LoadCompatible(req.FingerprintPath, featCfg)
		if err != nil {
			return nil, err
		}

		mcfg := req.MatchConfig
		if mcfg.MinScore == 0 {
			mcfg = match.DefaultConfig()
		}

		result, err := match.Find(candidate, ref, mcfg)
		if err != nil {
			// NoMatch handling (skip vs. fatal) is a batch/CLI-level
			// concern; Analyze always surfaces the error and lets the
			// caller decide per spec.md §7.
			return nil, err
		}
		detected = report.Detected{
			Start:  result.StartSeconds,
			End:    result.EndSeconds,
			Score:  result.Score,
			Source: "fingerprint",
		}
	}

	req.reportStage("meter")
	episodeLUFS, err := loudness.MeasureInterval(buf, 0, duration)
	if err != nil {
		return nil, err
	}

	introLUFS, introErr := loudness.MeasureInterval(buf, detected.Start, detected.End)
	var introLoudness *float64
	if introErr == nil {
		introLoudness = &introLUFS
	}

	req.reportStage("plan")
	plan, err := gainplan.Plan(gainplan.Request{
		IntroStart:      detected.Start,
		IntroEnd:        detected.End,
		EpisodeDuration: duration,
		Mode:            req.Mode,
		FadeSeconds:     req.FadeSeconds,
		DuckDB:          req.DuckDB,
		TargetLUFS:      req.TargetLUFS,
		IntroLoudness:   introLoudness,
	})
	if err != nil {
		return nil, err
	}

	graph := filtergraph.Synthesize(plan, duration)

	var introAfter *float64
	if introLoudness != nil {
		after := *introLoudness + plan.At((detected.Start+detected.End)/2)
		introAfter = &after
	}

	loud := report.Loudness{
		EpisodeLUFS:     episodeLUFS,
		IntroLUFSBefore: valueOr(introLoudness, 0),
		IntroLUFSAfter:  introAfter,
	}

	return &Result{
		Buffer:   buf,
		Detected: detected,
		Envelope: plan,
		Graph:    graph,
		Loudness: loud,
	}, nil
}

// Render invokes the external renderer with the synthesized graph,
// mapping subprocess failures onto RendererError and removing any
// partial output on cancellation.
func Render(ctx context.Context, graph *filtergraph.Graph, inputPath, outputPath string) error {
	spec := subprocess.Spec{
		Name:    "ffmpeg",
		Args:    graph.RenderArgs(inputPath, outputPath),
		Timeout: RenderTimeout,
	}
	_, err := subprocess.Run(ctx, spec, "renderer", introerr.KindRenderer)
	if err != nil {
		subprocess.RemovePartial(outputPath)
		return fmt.Errorf("render %s: %w", outputPath, err)
	}
	return nil
}

func valueOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
