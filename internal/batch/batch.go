// Package batch walks a directory for recognized media files and farms
// them out to a bounded pool of workers, per spec.md §5: each worker
// owns its own PCM and Feature Matrix, and the only shared state is the
// read-only Reference Fingerprint.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/linuxmatters/intronaut/internal/introerr"
	"github.com/linuxmatters/intronaut/internal/pipeline"
	"github.com/linuxmatters/intronaut/internal/report"
)

// recognizedExtensions are the media container extensions batch mode
// will pick up during a walk.
var recognizedExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".mov": true, ".avi": true, ".m4v": true,
	".ts": true, ".webm": true,
}

// Item is one file discovered by Walk, with its outcome after
// processing.
type Item struct {
	Path   string
	Report *report.Report
	Err    error
}

// Walk enumerates recognized media files under root in lexical order.
// If recursive is false, only root's immediate children are considered.
func Walk(root string, recursive bool) ([]string, error) {
	var found []string

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if recognizedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				found = append(found, filepath.Join(root, e.Name()))
			}
		}
		sort.Strings(found)
		return found, nil
	}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if recognizedExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}

// Options configures a batch run.
type Options struct {
	Workers      int // 0 means runtime.NumCPU()
	RequireMatch bool
	BuildRequest func(path string) pipeline.Request

	// OnStage, if set, is called whenever item index i's pipeline.Request
	// enters a new stage ("ingest", "match", "meter", "plan").
	OnStage func(index int, stage string)
}

// Run processes every file found by Walk through the pipeline, bounded
// to Options.Workers concurrent requests. Each item's error (if any) is
// recorded rather than aborting the run; the caller aggregates the final
// exit code.
func Run(ctx context.Context, paths []string, opts Options) []Item {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items := make([]Item, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			req := opts.BuildRequest(path)
			if opts.OnStage != nil {
				req.OnStage = func(stage string) { opts.OnStage(i, stage) }
			}
			result, err := pipeline.Analyze(gctx, req)

			item := Item{Path: path}
			if err != nil {
				item.Err = err
			} else {
				r := &report.Report{
					Input:           path,
					Detected:        result.Detected,
					Loudness:        result.Loudness,
					Envelope:        report.FromEnvelope(result.Envelope),
					DurationSeconds: result.Buffer.Duration(),
				}
				item.Report = r
			}

			mu.Lock()
			items[i] = item
			mu.Unlock()
			return nil // batch items never abort the group; errors are per-item
		})
	}

	_ = g.Wait()
	return items
}

// ExitCode aggregates spec.md §7's batch exit-code rule: a NoMatch is
// non-fatal (skip) unless the caller required matches, so it does not by
// itself flip the aggregate; any other per-item error does.
func ExitCode(items []Item, requireMatch bool) int {
	for _, it := range items {
		if it.Err == nil {
			continue
		}
		if kind, ok := introerr.As(it.Err); ok && kind == introerr.KindNoMatch && !requireMatch {
			continue
		}
		return 1
	}
	return 0
}
