// Package features converts a mono PCM buffer into a sequence of
// MFCC-based frame descriptors suitable for fingerprint comparison:
// Hann-windowed FFT, a mel filter bank, DCT-II compression, and
// per-column z-normalization across time.
package features

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/linuxmatters/intronaut/internal/audio"
)

// Config holds the Feature Extractor's parameters as an explicit value
// threaded into each request, rather than process-level state, so
// parallel batch workers never race over shared configuration.
type Config struct {
	SampleRate int
	WindowMs   float64
	HopMs      float64
	NMels      int
	NMFCC      int
}

// DefaultConfig matches spec.md §4.2: window_ms=25, hop_ms=20, n_mels=40,
// n_mfcc=20, at the Ingestor's default sample rate.
func DefaultConfig() Config {
	return Config{
		SampleRate: audio.DefaultSampleRate,
		WindowMs:   25,
		HopMs:      20,
		NMels:      40,
		NMFCC:      20,
	}
}

func (c Config) windowSamples() int {
	return int(math.Round(c.WindowMs / 1000 * float64(c.SampleRate)))
}

// HopSamples is the frame hop size in samples, rounded the same way for
// every caller that needs to reason about a fingerprint's hop (the
// extractor itself and Fingerprint Store compatibility checks).
func (c Config) HopSamples() int {
	return int(math.Round(c.HopMs / 1000 * float64(c.SampleRate)))
}

// Matrix is the Feature Matrix of spec.md §3: an ordered sequence of
// Feature Frames, rows are frames, columns are feature dimensions.
type Matrix struct {
	Data       *mat.Dense // n_frames x D
	SampleRate int
	HopSamples int
	NMFCC      int
}

// NumFrames returns the row count.
func (m *Matrix) NumFrames() int {
	if m.Data == nil {
		return 0
	}
	r, _ := m.Data.Dims()
	return r
}

// Dim returns the column count (D).
func (m *Matrix) Dim() int {
	if m.Data == nil {
		return 0
	}
	_, c := m.Data.Dims()
	return c
}

// Row returns a copy of frame i's feature vector.
func (m *Matrix) Row(i int) []float64 {
	d := m.Dim()
	row := make([]float64, d)
	mat.Row(row, i, m.Data)
	return row
}

// Slice returns a view-as-copy Matrix over frames [start, end).
func (m *Matrix) Slice(start, end int) *Matrix {
	sub := mat.DenseCopyOf(m.Data.Slice(start, end, 0, m.Dim()))
	return &Matrix{Data: sub, SampleRate: m.SampleRate, HopSamples: m.HopSamples, NMFCC: m.NMFCC}
}

// Extract runs the full pipeline: Hann window, FFT, mel filter bank,
// log energy, DCT-II, truncate to NMFCC, then per-column z-normalization.
// For identical PCM and Config this is bit-identical across runs: no
// goroutines, no map iteration, and a fixed-order float64 pipeline.
func Extract(buf *audio.Buffer, cfg Config) (*Matrix, error) {
	windowSize := cfg.windowSamples()
	hopSize := cfg.HopSamples()
	n := len(buf.Samples)

	nFrames := 0
	if n >= windowSize {
		nFrames = (n-windowSize)/hopSize + 1
	}
	if nFrames == 0 {
		// gonum cannot represent a zero-row Dense; a nil Data reports zero frames.
		return &Matrix{SampleRate: cfg.SampleRate, HopSamples: hopSize, NMFCC: cfg.NMFCC}, nil
	}

	raw := mat.NewDense(maxInt(nFrames, 0), cfg.NMels, nil)
	window := hannWindow(windowSize)
	melBank := melFilterbank(cfg.NMels, windowSize, cfg.SampleRate)

	for f := 0; f < nFrames; f++ {
		start := f * hopSize
		frame := make([]float64, windowSize)
		for i := 0; i < windowSize; i++ {
			frame[i] = float64(buf.Samples[start+i]) * window[i]
		}

		spectrum := fft.FFTReal(frame)
		power := make([]float64, windowSize/2+1)
		for i := range power {
			re := real(spectrum[i])
			im := imag(spectrum[i])
			power[i] = re*re + im*im
		}

		for band := 0; band < cfg.NMels; band++ {
			var energy float64
			for i, w := range melBank[band] {
				energy += w * power[i]
			}
			if energy < 1e-10 {
				energy = 1e-10
			}
			raw.Set(f, band, math.Log(energy))
		}
	}

	mfcc := mat.NewDense(maxInt(nFrames, 0), cfg.NMFCC, nil)
	dct := dctIIMatrix(cfg.NMels, cfg.NMFCC)
	for f := 0; f < nFrames; f++ {
		logE := raw.RawRowView(f)
		for k := 0; k < cfg.NMFCC; k++ {
			var sum float64
			for band := 0; band < cfg.NMels; band++ {
				sum += dct[k][band] * logE[band]
			}
			mfcc.Set(f, k, sum)
		}
	}

	zNormalizeColumns(mfcc)

	return &Matrix{
		Data:       mfcc,
		SampleRate: cfg.SampleRate,
		HopSamples: hopSize,
		NMFCC:      cfg.NMFCC,
	}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// zNormalizeColumns subtracts the column mean and divides by the column
// stddev in place, using 1.0 in place of any stddev below 1e-6.
func zNormalizeColumns(m *mat.Dense) {
	rows, cols := m.Dims()
	if rows == 0 {
		return
	}
	col := make([]float64, rows)
	for c := 0; c < cols; c++ {
		mat.Col(col, c, m)
		mean, std := stat.MeanStdDev(col, nil)
		if std < 1e-6 {
			std = 1.0
		}
		for r := 0; r < rows; r++ {
			m.Set(r, c, (m.At(r, c)-mean)/std)
		}
	}
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// melFilterbank builds nMels triangular filters over the power spectrum
// bins of an FFT of size windowSize, spanning [0, sampleRate/2].
func melFilterbank(nMels, windowSize, sampleRate int) [][]float64 {
	nBins := windowSize/2 + 1
	fMin, fMax := 0.0, float64(sampleRate)/2

	melMin := hzToMel(fMin)
	melMax := hzToMel(fMax)

	points := make([]float64, nMels+2)
	for i := range points {
		points[i] = melMin + (melMax-melMin)*float64(i)/float64(nMels+1)
	}
	hzPoints := make([]float64, nMels+2)
	for i, m := range points {
		hzPoints[i] = melToHz(m)
	}
	binPoints := make([]int, nMels+2)
	for i, hz := range hzPoints {
		binPoints[i] = int(math.Floor((float64(windowSize) + 1) * hz / float64(sampleRate)))
	}

	bank := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		filt := make([]float64, nBins)
		left, center, right := binPoints[m], binPoints[m+1], binPoints[m+2]
		for k := left; k < center && k < nBins; k++ {
			if center > left {
				filt[k] = float64(k-left) / float64(center-left)
			}
		}
		for k := center; k < right && k < nBins; k++ {
			if right > center {
				filt[k] = float64(right-k) / float64(right-center)
			}
		}
		bank[m] = filt
	}
	return bank
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// dctIIMatrix returns the nOut x nIn orthonormal-ish DCT-II basis used to
// compress log mel energies into cepstral coefficients; row 0 is the
// DC/energy term, retained per spec.md §4.2.
func dctIIMatrix(nIn, nOut int) [][]float64 {
	basis := make([][]float64, nOut)
	for k := 0; k < nOut; k++ {
		row := make([]float64, nIn)
		for n := 0; n < nIn; n++ {
			row[n] = math.Cos(math.Pi / float64(nIn) * (float64(n) + 0.5) * float64(k))
		}
		basis[k] = row
	}
	return basis
}
