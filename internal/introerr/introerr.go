// Package introerr models the failure taxonomy as a tagged result rather
// than ad-hoc sentinel errors, so every stage of the pipeline can report
// what went wrong without callers having to string-match messages.
package introerr

import (
	"errors"
	"fmt"
)

// Kind identifies a category of failure from the intro-detection and
// loudness-shaping core.
type Kind int

const (
	// KindDecode covers decoder subprocess failures or a file with no
	// audio stream.
	KindDecode Kind = iota
	// KindFingerprintIncompatible covers a reference fingerprint whose
	// SR/D/hop do not match the current extractor's parameters.
	KindFingerprintIncompatible
	// KindFingerprintEmpty covers a zero-length reference fingerprint.
	KindFingerprintEmpty
	// KindNoMatch covers a best score below min_score.
	KindNoMatch
	// KindLoudnessUndefined covers an interval too short for gated
	// integration (< 400ms).
	KindLoudnessUndefined
	// KindInvalidInterval covers a manual or detected interval that
	// violates the Gain Planner's bounds.
	KindInvalidInterval
	// KindRenderer covers a downstream renderer subprocess failure.
	KindRenderer
	// KindTimeout covers a stage exceeding its deadline.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "DecodeError"
	case KindFingerprintIncompatible:
		return "FingerprintIncompatible"
	case KindFingerprintEmpty:
		return "FingerprintEmpty"
	case KindNoMatch:
		return "NoMatch"
	case KindLoudnessUndefined:
		return "LoudnessUndefined"
	case KindInvalidInterval:
		return "InvalidInterval"
	case KindRenderer:
		return "RendererError"
	case KindTimeout:
		return "TimeoutError"
	default:
		return "UnknownError"
	}
}

// Error is the single exported error type for the pipeline. Stage is the
// component that raised it (e.g. "ingestor", "matcher"), which the CLI
// layer and batch reports surface alongside Kind.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a Kind and the stage that produced it.
func New(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// Is reports whether target has the same Kind, so callers can write
// errors.Is(err, introerr.KindOnly(introerr.KindNoMatch)) style checks
// against a Kind-only sentinel.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) && other.Err == nil {
		return e.Kind == other.Kind
	}
	return false
}

// KindOnly returns a sentinel *Error usable with errors.Is to test for a
// Kind regardless of stage or wrapped cause.
func KindOnly(kind Kind) *Error {
	return &Error{Kind: kind}
}

// As extracts the Kind of err if it is (or wraps) an *Error.
func As(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
