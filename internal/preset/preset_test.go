package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	target := -16.0
	p := &Preset{
		Name:            "drama-intro",
		FingerprintPath: "drama.fp",
		DuckDB:          -8,
		FadeSeconds:     0.75,
		TargetLUFS:      &target,
	}

	path := filepath.Join(t.TempDir(), "preset.yaml")
	assert.NoError(t, Save(path, p))

	loaded, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, p.Name, loaded.Name)
	assert.Equal(t, p.FingerprintPath, loaded.FingerprintPath)
	assert.Equal(t, p.DuckDB, loaded.DuckDB)
	assert.Equal(t, p.FadeSeconds, loaded.FadeSeconds)
	assert.NotNil(t, loaded.TargetLUFS)
	assert.Equal(t, *p.TargetLUFS, *loaded.TargetLUFS)
}

func TestLoadFillsDefaultFadeSeconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yaml")
	content := []byte("name: bare\nfingerprint_path: bare.fp\nduck_db: -10\n")
	assert.NoError(t, os.WriteFile(path, content, 0o644))

	p, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, DefaultFadeSeconds, p.FadeSeconds)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
