package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linuxmatters/intronaut/internal/introerr"
	"github.com/linuxmatters/intronaut/internal/pipeline"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{}, 0o644))
}

func TestWalkNonRecursiveFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.mkv")
	touch(t, dir, "a.mp4")
	touch(t, dir, "notes.txt")
	assert.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	found, err := Walk(dir, false)
	assert.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.mp4"),
		filepath.Join(dir, "b.mkv"),
	}, found)
}

func TestWalkRecursiveDescendsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "season1")
	assert.NoError(t, os.Mkdir(sub, 0o755))
	touch(t, dir, "top.mp4")
	touch(t, sub, "nested.mkv")

	found, err := Walk(dir, true)
	assert.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Contains(t, found, filepath.Join(sub, "nested.mkv"))
	assert.Contains(t, found, filepath.Join(dir, "top.mp4"))
}

func TestWalkNonRecursiveIgnoresSubdirectoryFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "season1")
	assert.NoError(t, os.Mkdir(sub, 0o755))
	touch(t, sub, "nested.mkv")

	found, err := Walk(dir, false)
	assert.NoError(t, err)
	assert.Empty(t, found)
}

func TestExitCodeZeroOnNoErrors(t *testing.T) {
	items := []Item{{Path: "a.mp4"}, {Path: "b.mp4"}}
	assert.Equal(t, 0, ExitCode(items, false))
}

func TestExitCodeIgnoresNoMatchWhenNotRequired(t *testing.T) {
	items := []Item{
		{Path: "a.mp4", Err: introerr.New(introerr.KindNoMatch, "matcher", errors.New("below threshold"))},
	}
	assert.Equal(t, 0, ExitCode(items, false))
}

func TestExitCodeFlipsOnNoMatchWhenRequired(t *testing.T) {
	items := []Item{
		{Path: "a.mp4", Err: introerr.New(introerr.KindNoMatch, "matcher", errors.New("below threshold"))},
	}
	assert.Equal(t, 1, ExitCode(items, true))
}

func TestExitCodeFlipsOnOtherErrors(t *testing.T) {
	items := []Item{
		{Path: "a.mp4", Err: introerr.New(introerr.KindDecode, "ingestor", errors.New("bad file"))},
	}
	assert.Equal(t, 1, ExitCode(items, false))
}

func TestRunProducesOneItemPerPathAndNeverAborts(t *testing.T) {
	paths := []string{"missing-a.mp4", "missing-b.mp4"}
	opts := Options{
		Workers: 2,
		BuildRequest: func(path string) pipeline.Request {
			return pipeline.Request{EpisodePath: path}
		},
	}

	items := Run(context.Background(), paths, opts)
	assert.Len(t, items, len(paths))
	for i, it := range items {
		assert.Equal(t, paths[i], it.Path)
		assert.Error(t, it.Err)
	}
}
