package audio

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
}

func TestDecodeProducesNormalizedMonoBuffer(t *testing.T) {
	requireFFmpeg(t)

	path := writeTestWAV(t, 1.0, 44100, 440)
	buf, err := Decode(context.Background(), path, DefaultSampleRate)
	assert.NoError(t, err)
	assert.Equal(t, DefaultSampleRate, buf.SampleRate)
	assert.InDelta(t, 1.0, buf.Duration(), 0.05)

	for _, s := range buf.Samples {
		assert.LessOrEqual(t, s, float32(1.0))
		assert.GreaterOrEqual(t, s, float32(-1.0))
	}
}

func TestDecodeMissingFileFails(t *testing.T) {
	requireFFmpeg(t)

	_, err := Decode(context.Background(), "/nonexistent/path/does-not-exist.wav", DefaultSampleRate)
	assert.Error(t, err)
}

func TestDecodeWithTimeoutRespectsContextDeadline(t *testing.T) {
	requireFFmpeg(t)

	path := writeTestWAV(t, 1.0, 44100, 220)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()

	_, err := DecodeWithTimeout(ctx, path, DefaultSampleRate, time.Nanosecond)
	assert.Error(t, err)
}

func TestFullScaleKnownBitDepths(t *testing.T) {
	assert.Equal(t, 128.0, fullScale(8))
	assert.Equal(t, 32768.0, fullScale(16))
	assert.Equal(t, 8388608.0, fullScale(24))
	assert.Equal(t, 2147483648.0, fullScale(32))
}

func TestBufferDurationZeroSampleRate(t *testing.T) {
	b := &Buffer{Samples: make([]float32, 10), SampleRate: 0}
	assert.Equal(t, 0.0, b.Duration())
}
