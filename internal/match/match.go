// Package match locates the best temporal alignment of a reference
// fingerprint against a candidate episode's Feature Matrix, using a
// two-pass coarse-then-refine search over cosine similarity.
package match

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/linuxmatters/intronaut/internal/features"
	"github.com/linuxmatters/intronaut/internal/fingerprint"
	"github.com/linuxmatters/intronaut/internal/introerr"
)

var (
	errEmptyReference = errors.New("reference fingerprint has zero frames")
	errTooShort       = errors.New("candidate shorter than reference")
	errBelowThreshold = errors.New("best score below min_score threshold")
)

// Config tunes the search; defaults match spec.md §4.4.
type Config struct {
	Stride   int     // coarse-pass stride in frames, default 25 (~0.5s at 20ms hop)
	TopK     int     // number of coarse candidates carried into refine, default 8
	MinScore float64 // acceptance threshold in [0,1], default 0.55
}

// DefaultConfig returns the spec.md §4.4 defaults.
func DefaultConfig() Config {
	return Config{Stride: 25, TopK: 8, MinScore: 0.55}
}

// Result is the Match Result of spec.md §3.
type Result struct {
	StartSeconds float64
	EndSeconds   float64
	Score        float64 // in [0,1]
	BestOffset   int     // frames
}

// Find searches candidate for the best alignment of ref, per spec.md
// §4.4. Returns NoMatch if N_c < N_r or the best mapped score is below
// cfg.MinScore; FingerprintEmpty if the reference has zero frames.
func Find(candidate *features.Matrix, ref *fingerprint.Fingerprint, cfg Config) (*Result, error) {
	if ref.NumFrames == 0 {
		return nil, introerr.New(introerr.KindFingerprintEmpty, "matcher", errEmptyReference)
	}

	refMat := ref.Matrix()
	nr := refMat.NumFrames()
	nc := candidate.NumFrames()

	if nc < nr {
		return nil, introerr.New(introerr.KindNoMatch, "matcher", errTooShort)
	}

	maxOffset := nc - nr
	refRows := rowsOf(refMat)

	stride := cfg.Stride
	if stride < 1 {
		stride = 1
	}

	type candScore struct {
		offset int
		score  float64
	}

	var coarse []candScore
	for k := 0; k <= maxOffset; k += stride {
		coarse = append(coarse, candScore{offset: k, score: similarityAt(candidate, refRows, k)})
	}
	// Always evaluate the final offset so the coarse pass covers the tail.
	if len(coarse) == 0 || coarse[len(coarse)-1].offset != maxOffset {
		coarse = append(coarse, candScore{offset: maxOffset, score: similarityAt(candidate, refRows, maxOffset)})
	}

	sort.SliceStable(coarse, func(i, j int) bool { return coarse[i].score > coarse[j].score })

	topK := cfg.TopK
	if topK < 1 {
		topK = 1
	}
	if topK > len(coarse) {
		topK = len(coarse)
	}

	bestOffset := coarse[0].offset
	bestScore := coarse[0].score

	for _, c := range coarse[:topK] {
		lo := c.offset - stride
		if lo < 0 {
			lo = 0
		}
		hi := c.offset + stride
		if hi > maxOffset {
			hi = maxOffset
		}
		for k := lo; k <= hi; k++ {
			s := similarityAt(candidate, refRows, k)
			if s > bestScore || (s == bestScore && k < bestOffset) {
				bestScore = s
				bestOffset = k
			}
		}
	}

	mapped := (bestScore + 1) / 2
	if mapped < cfg.MinScore {
		return nil, introerr.New(introerr.KindNoMatch, "matcher", errBelowThreshold)
	}

	hopSeconds := float64(ref.HopSamples) / float64(ref.SampleRate)
	start := float64(bestOffset) * hopSeconds
	end := start + (ref.EndTime - ref.StartTime)

	return &Result{
		StartSeconds: start,
		EndSeconds:   end,
		Score:        mapped,
		BestOffset:   bestOffset,
	}, nil
}

func rowsOf(m *features.Matrix) [][]float64 {
	rows := make([][]float64, m.NumFrames())
	for i := range rows {
		rows[i] = m.Row(i)
	}
	return rows
}

// similarityAt computes s(k) = (1/N_r) * sum_i cos(R[i], C[k+i]).
func similarityAt(candidate *features.Matrix, refRows [][]float64, k int) float64 {
	var sum float64
	row := make([]float64, candidate.Dim())
	for i, r := range refRows {
		mat.Row(row, k+i, candidate.Data)
		sum += cosineSimilarity(r, row)
	}
	return sum / float64(len(refRows))
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
