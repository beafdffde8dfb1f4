// Package loudness computes EBU R128 / ITU BS.1770-4 integrated loudness
// over an arbitrary interval of PCM: K-weighting pre-filter, 400 ms
// mean-square blocks at 75% overlap, absolute and relative gating.
package loudness

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/linuxmatters/intronaut/internal/audio"
	"github.com/linuxmatters/intronaut/internal/introerr"
)

const (
	kWeightingShelfFreq = 1500.0
	kWeightingShelfGain = 4.0
	kWeightingHpfFreq   = 38.0

	blockDuration = 0.4 // seconds, spec.md §4.5
	blockOverlap  = 0.75
	blockStep     = 1.0 - blockOverlap

	absThreshold = -70.0
	relThreshold = -10.0

	// MinIntervalSeconds is the shortest interval a gated measurement can
	// be taken over; shorter intervals return LoudnessUndefined.
	MinIntervalSeconds = blockDuration
)

// Meter is a single-channel BS.1770-4 K-weighting loudness meter.
type Meter struct {
	sampleRate float64
	shelf      *biquad.Section
	hpf        *biquad.Section

	blockSamples     int
	blockStepSamples int

	history       []float64
	writeIdx      int
	runningSum    float64
	samplesInStep int

	blocks []float64
}

// NewMeter builds a meter for the given sample rate.
func NewMeter(sampleRate float64) *Meter {
	q := 1.0 / math.Sqrt2
	shelfCoeffs := design.HighShelf(kWeightingShelfFreq, kWeightingShelfGain, q, sampleRate)
	hpfCoeffs := design.Highpass(kWeightingHpfFreq, q, sampleRate)

	m := &Meter{
		sampleRate:       sampleRate,
		shelf:            biquad.NewSection(shelfCoeffs),
		hpf:              biquad.NewSection(hpfCoeffs),
		blockSamples:     int(math.Round(blockDuration * sampleRate)),
		blockStepSamples: max(int(math.Round(blockDuration*blockStep*sampleRate)), 1),
	}
	m.history = make([]float64, m.blockSamples)
	return m
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ProcessSample K-weights one sample and feeds it into the sliding 400ms window,
// emitting a gating block every blockStepSamples per the 75% overlap.
func (m *Meter) ProcessSample(sample float64) {
	val := m.shelf.ProcessSample(sample)
	val = m.hpf.ProcessSample(val)
	sq := val * val

	old := m.history[m.writeIdx]
	m.history[m.writeIdx] = sq
	m.runningSum += sq - old
	if m.runningSum < 0 {
		m.runningSum = 0
	}
	m.writeIdx = (m.writeIdx + 1) % m.blockSamples

	m.samplesInStep++
	if m.samplesInStep >= m.blockStepSamples {
		m.samplesInStep = 0
		m.blocks = append(m.blocks, m.runningSum/float64(m.blockSamples))
	}
}

// Integrated applies BS.1770-4's two-stage gating to the accumulated
// blocks and returns the integrated loudness in LUFS, or -Inf if every
// block is gated out.
func (m *Meter) Integrated() float64 {
	if len(m.blocks) == 0 {
		return math.Inf(-1)
	}

	var absGated []float64
	var absGatedSum float64
	for _, b := range m.blocks {
		if toLUFS(b) > absThreshold {
			absGated = append(absGated, b)
			absGatedSum += b
		}
	}
	if len(absGated) == 0 {
		return math.Inf(-1)
	}

	gammaRel := toLUFS(absGatedSum/float64(len(absGated))) + relThreshold

	var relGatedSum float64
	var relGatedCount int
	for _, b := range absGated {
		if toLUFS(b) > gammaRel {
			relGatedSum += b
			relGatedCount++
		}
	}
	if relGatedCount == 0 {
		return math.Inf(-1)
	}

	return toLUFS(relGatedSum / float64(relGatedCount))
}

func toLUFS(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return -120.0
	}
	return -0.691 + 10*math.Log10(meanSquare)
}

// MeasureInterval computes the integrated LUFS of buf over
// [startSeconds, endSeconds]. Fails with LoudnessUndefined if the
// interval is shorter than the 400ms gating window.
func MeasureInterval(buf *audio.Buffer, startSeconds, endSeconds float64) (float64, error) {
	if endSeconds-startSeconds < MinIntervalSeconds {
		return 0, introerr.New(introerr.KindLoudnessUndefined, "loudness",
			fmt.Errorf("interval %.3fs shorter than %.3fs gating window", endSeconds-startSeconds, MinIntervalSeconds))
	}

	sr := float64(buf.SampleRate)
	startIdx := int(startSeconds * sr)
	endIdx := int(endSeconds * sr)
	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > len(buf.Samples) {
		endIdx = len(buf.Samples)
	}
	if endIdx <= startIdx {
		return 0, introerr.New(introerr.KindLoudnessUndefined, "loudness", fmt.Errorf("empty sample interval"))
	}

	meter := NewMeter(sr)
	for i := startIdx; i < endIdx; i++ {
		meter.ProcessSample(float64(buf.Samples[i]))
	}

	value := meter.Integrated()
	if math.IsInf(value, -1) {
		return 0, introerr.New(introerr.KindLoudnessUndefined, "loudness", fmt.Errorf("all gating blocks were gated out"))
	}
	return value, nil
}
