package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/intronaut/internal/audio"
	"github.com/linuxmatters/intronaut/internal/batch"
	"github.com/linuxmatters/intronaut/internal/cli"
	"github.com/linuxmatters/intronaut/internal/features"
	"github.com/linuxmatters/intronaut/internal/fingerprint"
	"github.com/linuxmatters/intronaut/internal/gainplan"
	"github.com/linuxmatters/intronaut/internal/introerr"
	"github.com/linuxmatters/intronaut/internal/logging"
	"github.com/linuxmatters/intronaut/internal/match"
	"github.com/linuxmatters/intronaut/internal/pipeline"
	"github.com/linuxmatters/intronaut/internal/preset"
	"github.com/linuxmatters/intronaut/internal/report"
	"github.com/linuxmatters/intronaut/internal/timecode"
	"github.com/linuxmatters/intronaut/internal/ui"
)

// version is set via ldflags at build time.
var version = "dev"

// Exit codes per spec.md §6.
const (
	exitSuccess       = 0
	exitGenericError  = 1
	exitDetectFailure = 2
	exitInvalidArgs   = 3
	exitExternalTool  = 4
)

// CLI is the top-level command tree.
type CLI struct {
	Version bool `short:"v" help:"Show version information"`
	Debug   bool `short:"d" help:"Enable debug logging to stderr"`

	Process     ProcessCmd     `cmd:"" help:"Detect the intro and render a ducked output file."`
	Analyze     AnalyzeCmd     `cmd:"" help:"Detect the intro and print the result; writes no file."`
	Batch       BatchCmd       `cmd:"" help:"Detect the intro in every recognized file in a directory and report each result; writes no files."`
	Fingerprint FingerprintCmd `cmd:"" help:"Build a reference fingerprint from a labeled intro."`
}

// ProcessCmd implements `process <file>`.
type ProcessCmd struct {
	File string `arg:"" type:"existingfile" help:"Episode to process."`

	Preset          string `help:"Named preset to load (fingerprint path + defaults)."`
	FingerprintPath string `name:"fingerprint" help:"Reference fingerprint path (overrides --preset)."`

	IntroStart string `name:"intro-start" help:"Manual intro start (HH:MM:SS.fff)."`
	IntroEnd   string `name:"intro-end" help:"Manual intro end (HH:MM:SS.fff)."`

	DuckDB          *float64 `name:"duck-db" help:"Fixed-dB plateau gain (negative)."`
	TargetIntroLUFS *float64 `name:"target-intro-lufs" help:"Target LUFS mode plateau."`
	Fade            float64  `name:"fade" default:"0.5" help:"Fade duration in seconds."`

	Output     string `name:"output" help:"Output path (default: <input>-ducked<ext>)."`
	ReportJSON bool   `name:"report-json" help:"Print the JSON report to stdout."`
}

// AnalyzeCmd implements `analyze <file> --preset NAME`.
type AnalyzeCmd struct {
	File         string `arg:"" type:"existingfile" help:"Episode to analyze."`
	Preset       string `required:"" help:"Named preset identifying the reference fingerprint."`
	RequireMatch bool   `name:"require-match" help:"No effect here: analyze always exits with code 2 on NoMatch."`
}

// BatchCmd implements `batch <dir> --preset NAME [--recursive]`.
type BatchCmd struct {
	Dir          string `arg:"" type:"existingdir" help:"Directory to walk."`
	Preset       string `required:"" help:"Named preset to apply to every file."`
	Recursive    bool   `help:"Walk subdirectories."`
	Workers      int    `help:"Bounded worker pool size (default: number of CPUs)."`
	RequireMatch bool   `name:"require-match" help:"Escalate NoMatch from skip to fatal."`
}

// FingerprintCmd implements `fingerprint build`.
type FingerprintCmd struct {
	Build FingerprintBuildCmd `cmd:"" help:"Build a fingerprint from a labeled reference episode."`
}

// FingerprintBuildCmd builds a Reference Fingerprint from a labeled interval.
type FingerprintBuildCmd struct {
	File  string `arg:"" type:"existingfile" help:"Reference episode."`
	Start string `required:"" help:"Labeled intro start (HH:MM:SS.fff)."`
	End   string `required:"" help:"Labeled intro end (HH:MM:SS.fff)."`
	Label string `help:"Free-form label stored with the fingerprint."`
	Out   string `required:"" help:"Output fingerprint path."`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("intronaut"),
		kong.Description("Intro detection and loudness-matched ducking"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(exitSuccess)
	}

	logging.SetDebug(cliArgs.Debug)

	var err error
	switch ctx.Command() {
	case "process <file>":
		err = runProcess(cliArgs.Process)
	case "analyze <file>":
		err = runAnalyze(cliArgs.Analyze)
	case "batch <dir>":
		err = runBatch(cliArgs.Batch)
	case "fingerprint build <file>":
		err = runFingerprintBuild(cliArgs.Fingerprint.Build)
	default:
		cli.PrintError("unrecognized command")
		os.Exit(exitInvalidArgs)
	}

	if err == nil {
		os.Exit(exitSuccess)
	}

	kind, ok := introerr.As(err)
	if !ok {
		cli.PrintError(err.Error())
		os.Exit(exitGenericError)
	}

	switch kind {
	case introerr.KindNoMatch:
		cli.PrintError(err.Error())
		os.Exit(exitDetectFailure)
	case introerr.KindInvalidInterval, introerr.KindFingerprintIncompatible, introerr.KindFingerprintEmpty:
		cli.PrintError(err.Error())
		os.Exit(exitInvalidArgs)
	case introerr.KindDecode, introerr.KindRenderer, introerr.KindTimeout:
		cli.PrintError(err.Error())
		os.Exit(exitExternalTool)
	default:
		cli.PrintError(err.Error())
		os.Exit(exitGenericError)
	}
}

func resolveFingerprintPath(presetName, explicitPath string) (string, *preset.Preset, error) {
	if explicitPath != "" {
		return explicitPath, nil, nil
	}
	if presetName == "" {
		return "", nil, fmt.Errorf("either --preset or --fingerprint is required")
	}
	p, err := preset.Load(presetName)
	if err != nil {
		return "", nil, err
	}
	return p.FingerprintPath, p, nil
}

func buildRequest(file, fpPath string, p *preset.Preset, duckDB, targetLUFS *float64, fade float64, start, end *float64, requireMatch bool) pipeline.Request {
	req := pipeline.Request{
		EpisodePath:     file,
		FingerprintPath: fpPath,
		FadeSeconds:     fade,
		ManualStart:     start,
		ManualEnd:       end,
		RequireMatch:    requireMatch,
		MatchConfig:     match.DefaultConfig(),
		FeaturesConfig:  features.DefaultConfig(),
	}

	switch {
	case targetLUFS != nil:
		req.Mode = gainplan.TargetLUFS
		req.TargetLUFS = *targetLUFS
	case duckDB != nil:
		req.Mode = gainplan.FixedDB
		req.DuckDB = *duckDB
	case p != nil:
		if p.TargetLUFS != nil {
			req.Mode = gainplan.TargetLUFS
			req.TargetLUFS = *p.TargetLUFS
		} else {
			req.Mode = gainplan.FixedDB
			req.DuckDB = p.DuckDB
		}
	default:
		req.Mode = gainplan.FixedDB
		req.DuckDB = preset.DefaultDuckDB
	}
	return req
}

func parseManualInterval(startStr, endStr string) (*float64, *float64, error) {
	if startStr == "" && endStr == "" {
		return nil, nil, nil
	}
	start, err := timecode.Parse(startStr)
	if err != nil {
		return nil, nil, err
	}
	end, err := timecode.Parse(endStr)
	if err != nil {
		return nil, nil, err
	}
	return &start, &end, nil
}

func runProcess(cmd ProcessCmd) error {
	fpPath, p, err := resolveFingerprintPath(cmd.Preset, cmd.FingerprintPath)
	if err != nil && (cmd.IntroStart == "" || cmd.IntroEnd == "") {
		return err
	}

	start, end, err := parseManualInterval(cmd.IntroStart, cmd.IntroEnd)
	if err != nil {
		return err
	}

	req := buildRequest(cmd.File, fpPath, p, cmd.DuckDB, cmd.TargetIntroLUFS, cmd.Fade, start, end, false)

	output := cmd.Output
	if output == "" {
		output = defaultOutputPath(cmd.File)
	}
	req.OutputPath = output

	ctx := context.Background()
	result, err := pipeline.Analyze(ctx, req)
	if err != nil {
		return err
	}

	if err := pipeline.Render(ctx, result.Graph, cmd.File, output); err != nil {
		return err
	}

	if cmd.ReportJSON {
		r := &report.Report{
			Input:           cmd.File,
			Output:          output,
			Detected:        result.Detected,
			Loudness:        result.Loudness,
			Envelope:        report.FromEnvelope(result.Envelope),
			DurationSeconds: result.Buffer.Duration(),
			Preset:          cmd.Preset,
		}
		data, err := report.Marshal(r)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		size := ""
		if info, statErr := os.Stat(output); statErr == nil {
			size = ", " + cli.FormatBytes(info.Size())
		}
		cli.PrintSuccess(fmt.Sprintf("wrote %s (intro %.1fs-%.1fs, score %.2f%s)", output, result.Detected.Start, result.Detected.End, result.Detected.Score, size))
	}

	return nil
}

func runAnalyze(cmd AnalyzeCmd) error {
	fpPath, p, err := resolveFingerprintPath(cmd.Preset, "")
	if err != nil {
		return err
	}

	req := buildRequest(cmd.File, fpPath, p, nil, nil, preset.DefaultFadeSeconds, nil, nil, cmd.RequireMatch)

	result, err := pipeline.Analyze(context.Background(), req)
	if err != nil {
		return err
	}

	cli.PrintSection("Detection Result")
	cli.PrintInfo("intro_start", fmt.Sprintf("%.3f", result.Detected.Start))
	cli.PrintInfo("intro_end", fmt.Sprintf("%.3f", result.Detected.End))
	cli.PrintInfo("score", fmt.Sprintf("%.3f", result.Detected.Score))
	return nil
}

func runBatch(cmd BatchCmd) error {
	p, err := preset.Load(cmd.Preset)
	if err != nil {
		return err
	}

	paths, err := batch.Walk(cmd.Dir, cmd.Recursive)
	if err != nil {
		return err
	}

	cli.PrintBanner()

	model := ui.NewModel(paths)
	program := tea.NewProgram(model, tea.WithAltScreen())

	var items []batch.Item
	start := time.Now()

	go func() {
		items = batch.Run(context.Background(), paths, batch.Options{
			Workers:      cmd.Workers,
			RequireMatch: cmd.RequireMatch,
			BuildRequest: func(path string) pipeline.Request {
				return buildRequest(path, p.FingerprintPath, p, nil, nil, p.FadeSeconds, nil, nil, cmd.RequireMatch)
			},
			OnStage: func(index int, stage string) {
				program.Send(ui.ProgressMsg{FileIndex: index, Stage: stage})
			},
		})

		for i, item := range items {
			program.Send(ui.FileStartMsg{FileIndex: i, FileName: item.Path})
			msg := ui.FileCompleteMsg{FileIndex: i, Error: item.Err}
			if item.Report != nil {
				msg.IntroStart = item.Report.Detected.Start
				msg.IntroEnd = item.Report.Detected.End
				msg.Score = item.Report.Detected.Score
				msg.EpisodeLUFS = item.Report.Loudness.EpisodeLUFS
				msg.IntroLUFSBefore = item.Report.Loudness.IntroLUFSBefore
			}
			program.Send(msg)
		}
		program.Send(ui.AllCompleteMsg{})
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("batch UI: %w", err)
	}

	skipped, failed := 0, 0
	for _, item := range items {
		if item.Err == nil {
			continue
		}
		if kind, ok := introerr.As(item.Err); ok && kind == introerr.KindNoMatch && !cmd.RequireMatch {
			skipped++
			continue
		}
		failed++
	}
	if skipped > 0 {
		cli.PrintWarning(fmt.Sprintf("%d file(s) skipped: no intro match above threshold", skipped))
	}
	cli.PrintBatchSummary(len(items), failed, cli.FormatDuration(time.Since(start)))

	if batch.ExitCode(items, cmd.RequireMatch) != 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(items))
	}
	return nil
}

func runFingerprintBuild(cmd FingerprintBuildCmd) error {
	start, err := timecode.Parse(cmd.Start)
	if err != nil {
		return err
	}
	end, err := timecode.Parse(cmd.End)
	if err != nil {
		return err
	}

	cfg := features.DefaultConfig()
	ctx := context.Background()

	buf, err := audio.Decode(ctx, cmd.File, cfg.SampleRate)
	if err != nil {
		return err
	}

	hopSeconds := cfg.HopMs / 1000
	startFrame := int(start / hopSeconds)
	endFrame := int(end / hopSeconds)

	matrix, err := features.Extract(buf, cfg)
	if err != nil {
		return err
	}
	if endFrame > matrix.NumFrames() {
		endFrame = matrix.NumFrames()
	}
	trimmed := matrix.Slice(startFrame, endFrame)

	fp, err := fingerprint.Build(trimmed, start, end, cmd.Label)
	if err != nil {
		return err
	}

	if err := fingerprint.Save(cmd.Out, fp); err != nil {
		return err
	}

	cli.PrintSuccess(fmt.Sprintf("wrote %s (%d frames)", cmd.Out, fp.NumFrames))
	return nil
}

func defaultOutputPath(input string) string {
	ext := ""
	for i := len(input) - 1; i >= 0; i-- {
		if input[i] == '.' {
			ext = input[i:]
			input = input[:i]
			break
		}
	}
	return input + "-ducked" + ext
}
