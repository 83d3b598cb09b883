package confirm

import "errors"

var (
	// ErrInvalidTrimPolicy reports an unrecognized trim policy. The
	// TrimPolicy constructors in this package never return it; a
	// non-positive duration yields ErrNonPositiveTrimSeconds instead.
	ErrInvalidTrimPolicy = errors.New("confirm: invalid trim policy")

	// ErrNonPositiveTrimSeconds is returned when a trim policy is
	// constructed with a non-positive duration.
	ErrNonPositiveTrimSeconds = errors.New("confirm: trim duration must be positive")

	// ErrNilRecognizer is returned when a processor is constructed without
	// a recognizer collaborator.
	ErrNilRecognizer = errors.New("confirm: recognizer is nil")

	// ErrNilTokenizer is returned when a processor is constructed without a
	// tokenizer collaborator but a sentence trim policy requires one.
	ErrNilTokenizer = errors.New("confirm: tokenizer is nil")

	// ErrNilVAD is returned when a VacProcessor is constructed without a
	// voice activity detector.
	ErrNilVAD = errors.New("confirm: voice activity detector is nil")

	// ErrNonPositiveChunkSize is returned when VacProcessor is constructed
	// with a non-positive online chunk size.
	ErrNonPositiveChunkSize = errors.New("confirm: online chunk size must be positive")
)
