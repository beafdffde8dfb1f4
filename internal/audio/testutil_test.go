package audio

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeTestWAV creates a temporary mono 16-bit WAV file containing a sine
// tone, returning its path. Mirrors the synthetic-fixture approach used
// elsewhere in the corpus for exercising ffmpeg-backed decode paths
// without checking binary audio fixtures into the repository.
func writeTestWAV(t *testing.T, seconds float64, sampleRate int, freq float64) string {
	t.Helper()

	n := int(seconds * float64(sampleRate))
	samples := make([]int16, n)
	for i := range samples {
		v := 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		samples[i] = int16(v * math.MaxInt16)
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp wav: %v", err)
	}
	defer f.Close()

	const bitsPerSample = 16
	byteRate := sampleRate * bitsPerSample / 8
	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	write := func(v interface{}) {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			t.Fatalf("write wav: %v", err)
		}
	}

	f.Write([]byte("RIFF"))
	write(uint32(fileSize))
	f.Write([]byte("WAVE"))
	f.Write([]byte("fmt "))
	write(uint32(16))
	write(uint16(1))
	write(uint16(1))
	write(uint32(sampleRate))
	write(uint32(byteRate))
	write(uint16(bitsPerSample / 8))
	write(uint16(bitsPerSample))
	f.Write([]byte("data"))
	write(uint32(dataSize))
	for _, s := range samples {
		write(s)
	}

	return path
}
