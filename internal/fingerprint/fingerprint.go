// Package fingerprint persists and loads a Reference Fingerprint: the
// feature matrix of a labeled intro plus the metadata needed to validate
// it against a Feature Extractor configuration at load time.
package fingerprint

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/linuxmatters/intronaut/internal/features"
	"github.com/linuxmatters/intronaut/internal/introerr"
)

// Fingerprint is the on-disk Reference Fingerprint of spec.md §3/§6:
// a feature matrix of the reference intro plus SR/D/hop and the
// source interval it was built from.
type Fingerprint struct {
	Features   [][]float64 // n_frames x D, row-major for gob portability
	NumFrames  int
	Dim        int
	SampleRate int
	HopSamples int
	NMFCC      int
	StartTime  float64
	EndTime    float64
	Label      string
}

// record is the gob wire type; kept distinct from Fingerprint so field
// renames on the public type don't change the on-disk format silently.
type record struct {
	Features   [][]float64
	SampleRate int
	HopSamples int
	NMFCC      int
	StartTime  float64
	EndTime    float64
	Label      string
}

// Build constructs a Fingerprint from a Feature Matrix already trimmed to
// the reference interval [startTime, endTime]. Fails with FingerprintEmpty
// if the matrix has zero rows.
func Build(m *features.Matrix, startTime, endTime float64, label string) (*Fingerprint, error) {
	if m.NumFrames() == 0 {
		return nil, introerr.New(introerr.KindFingerprintEmpty, "fingerprint", fmt.Errorf("reference interval produced zero frames"))
	}
	rows := make([][]float64, m.NumFrames())
	for i := range rows {
		rows[i] = m.Row(i)
	}
	return &Fingerprint{
		Features:   rows,
		NumFrames:  m.NumFrames(),
		Dim:        m.Dim(),
		SampleRate: m.SampleRate,
		HopSamples: m.HopSamples,
		NMFCC:      m.NMFCC,
		StartTime:  startTime,
		EndTime:    endTime,
		Label:      label,
	}, nil
}

// Matrix reconstructs the gonum Feature Matrix view of this fingerprint.
func (f *Fingerprint) Matrix() *features.Matrix {
	dense := mat.NewDense(f.NumFrames, f.Dim, nil)
	for i, row := range f.Features {
		for j, v := range row {
			dense.Set(i, j, v)
		}
	}
	return &features.Matrix{
		Data:       dense,
		SampleRate: f.SampleRate,
		HopSamples: f.HopSamples,
		NMFCC:      f.NMFCC,
	}
}

// Save writes the Fingerprint to path as a gob-encoded record. No
// third-party named-array container (npy/hdf5/msgpack) appears anywhere
// in the retrieved corpus, so the container is encoding/gob; see
// DESIGN.md.
func Save(path string, f *Fingerprint) error {
	r := record{
		Features:   f.Features,
		SampleRate: f.SampleRate,
		HopSamples: f.HopSamples,
		NMFCC:      f.NMFCC,
		StartTime:  f.StartTime,
		EndTime:    f.EndTime,
		Label:      f.Label,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&r); err != nil {
		return fmt.Errorf("encode fingerprint: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Load reads a Fingerprint from path. It does not validate compatibility
// with an extractor configuration; use LoadCompatible for that.
func Load(path string) (*Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fingerprint: %w", err)
	}
	var r record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode fingerprint: %w", err)
	}
	dim := 0
	if len(r.Features) > 0 {
		dim = len(r.Features[0])
	}
	return &Fingerprint{
		Features:   r.Features,
		NumFrames:  len(r.Features),
		Dim:        dim,
		SampleRate: r.SampleRate,
		HopSamples: r.HopSamples,
		NMFCC:      r.NMFCC,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Label:      r.Label,
	}, nil
}

// LoadCompatible loads a Fingerprint and validates that its SR, D, and
// hop match cfg, failing with FingerprintIncompatible on mismatch, per
// spec.md §4.3.
func LoadCompatible(path string, cfg features.Config) (*Fingerprint, error) {
	fp, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := checkCompatible(fp, cfg); err != nil {
		return nil, err
	}
	return fp, nil
}

func checkCompatible(fp *Fingerprint, cfg features.Config) error {
	if fp.NumFrames == 0 {
		return introerr.New(introerr.KindFingerprintEmpty, "fingerprint", fmt.Errorf("reference fingerprint has zero frames"))
	}
	wantHop := cfg.HopSamples()
	if fp.SampleRate != cfg.SampleRate || fp.Dim != cfg.NMFCC || fp.HopSamples != wantHop {
		return introerr.New(introerr.KindFingerprintIncompatible, "fingerprint", fmt.Errorf(
			"reference (sr=%d, d=%d, hop=%d) incompatible with extractor (sr=%d, d=%d, hop=%d)",
			fp.SampleRate, fp.Dim, fp.HopSamples, cfg.SampleRate, cfg.NMFCC, wantHop))
	}
	return nil
}
