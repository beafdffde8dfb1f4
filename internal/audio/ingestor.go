// Package audio decodes an episode's audio track to a mono PCM Buffer at
// a fixed analysis sample rate, via a subprocess invocation of the
// external decoder (ffmpeg). Decoding, downmixing, and resampling are
// all delegated to that subprocess: spec.md treats the demuxer/decoder
// as an external collaborator and only specifies the core at its
// interface.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"time"

	wav "github.com/go-audio/wav"

	"github.com/linuxmatters/intronaut/internal/introerr"
	"github.com/linuxmatters/intronaut/internal/subprocess"
)

// DefaultSampleRate is SR from spec.md §3.
const DefaultSampleRate = 22050

// DefaultDecodeTimeout is the per-subprocess deadline from spec.md §5.
const DefaultDecodeTimeout = 10 * time.Minute

// Buffer is the PCM Buffer of spec.md §3: an ordered sequence of 32-bit
// float samples, single channel, normalized to [-1.0, +1.0].
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the buffer's length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Decode reads the audio track of path, downmixes to mono, and resamples
// to sampleRate, returning the full decoded PCM Buffer. It fails with a
// DecodeError if the file has no audio stream or ffmpeg exits non-zero.
func Decode(ctx context.Context, path string, sampleRate int) (*Buffer, error) {
	return DecodeWithTimeout(ctx, path, sampleRate, DefaultDecodeTimeout)
}

// DecodeWithTimeout is Decode with an explicit subprocess deadline.
func DecodeWithTimeout(ctx context.Context, path string, sampleRate int, timeout time.Duration) (*Buffer, error) {
	spec := subprocess.Spec{
		Name: "ffmpeg",
		Args: []string{
			"-hide_banner", "-loglevel", "error",
			"-i", path,
			"-vn", "-sn",
			"-ac", "1",
			"-ar", fmt.Sprintf("%d", sampleRate),
			"-f", "wav",
			"-",
		},
		Timeout: timeout,
	}

	result, err := subprocess.Run(ctx, spec, "ingestor", introerr.KindDecode)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(bytes.NewReader(result.Stdout))
	if !decoder.IsValidFile() {
		return nil, introerr.New(introerr.KindDecode, "ingestor",
			fmt.Errorf("ffmpeg produced no valid audio stream for %s", path))
	}

	pcmBuf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, introerr.New(introerr.KindDecode, "ingestor", fmt.Errorf("decode wav: %w", err))
	}
	if pcmBuf.Format == nil || pcmBuf.Format.NumChannels == 0 {
		return nil, introerr.New(introerr.KindDecode, "ingestor", fmt.Errorf("no audio stream found in %s", path))
	}

	channels := pcmBuf.Format.NumChannels
	bitDepth := decoder.BitDepth
	maxVal := fullScale(bitDepth)

	nFrames := pcmBuf.NumFrames()
	samples := make([]float32, nFrames)

	// Equal-weight downmix: sum channels then scale by 1/channels. ffmpeg
	// was already asked for -ac 1, so this is normally a no-op pass-through,
	// but it keeps the contract correct if an upstream ffmpeg build ever
	// ignores -ac for a given codec.
	data := pcmBuf.Data
	for i := 0; i < nFrames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			if idx < len(data) {
				sum += float64(data[idx])
			}
		}
		samples[i] = float32(sum / float64(channels) / maxVal)
	}

	return &Buffer{Samples: samples, SampleRate: sampleRate}, nil
}

func fullScale(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}
