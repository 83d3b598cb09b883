// Package confirm implements the streaming confirmation core of a
// real-time speech-to-text pipeline: HypothesisBuffer, OnlineProcessor and
// VacProcessor turn a sequence of overlapping, re-transcribed hypotheses
// into a monotonically growing stream of confirmed words.
package confirm

import "context"

// Sample is one PCM audio sample, 16 kHz mono, in [-1, 1].
type Sample = float32

// SampleRate is the sample rate every component in this package assumes.
const SampleRate = 16000

// TimedWord is a single word (or token) anchored to a time range, in
// whatever clock the caller is using — window-local for a fresh
// recognizer result, absolute once it has passed through a processor.
type TimedWord struct {
	Begin float64
	End   float64
	Text  string
}

// RecognitionResult is an opaque handle returned by Recognizer.Transcribe.
// The core never inspects it directly — only through TimedWords and
// SegmentEndTimestamps.
type RecognitionResult any

// Recognizer is the black-box transcription collaborator. Implementations
// live under pkg/providers/recognizer.
type Recognizer interface {
	// Transcribe runs the recognizer over samples, using initPrompt (if
	// non-empty) as prior context to bias decoding at the window start.
	Transcribe(ctx context.Context, samples []Sample, initPrompt string) (RecognitionResult, error)

	// TimedWords extracts the word-level hypothesis from a result, in
	// window-local time (seconds from the start of the transcribed window).
	TimedWords(result RecognitionResult) []TimedWord

	// SegmentEndTimestamps extracts recognizer-internal segment boundaries
	// (window-local), used by the segment trim policy.
	SegmentEndTimestamps(result RecognitionResult) []float64

	// Separator is the string used to join words back into prose (" " for
	// most languages).
	Separator() string
}

// Tokenizer is the black-box sentence-boundary collaborator. Implementations
// live under pkg/providers/tokenizer.
type Tokenizer interface {
	// Tokenize splits texts (one string per committed word, in order) into
	// sentence strings. The concatenation of the returned sentences, once
	// whitespace-normalized, must reconstruct the input.
	Tokenize(texts []string) []string
}

// VadEventKind tags the two possible VAD boundary events. Never represent
// this as a map with optional "start"/"end" keys — the sum type is closed
// and each kind has exactly one valid shape.
type VadEventKind int

const (
	VadSpeechStart VadEventKind = iota
	VadSpeechEnd
)

// VadEvent is a single detected speech boundary, in samples from the start
// of the stream the VAD has been fed.
type VadEvent struct {
	Kind  VadEventKind
	Frame int64
}

// VoiceActivityDetector is the black-box VAD collaborator. Implementations
// live under pkg/providers/vad. Process is called once per inserted chunk
// and returns the boundary events detected within it, in frame order — zero
// when voice/silence simply continues, one for an ordinary start or end,
// two when a whole utterance starts and ends inside a single chunk.
type VoiceActivityDetector interface {
	Process(chunk []Sample) ([]VadEvent, error)
}

// Result is the output of one ProcessIter/Finish call. Begin and End are
// nil exactly when Text is empty, signaling "nothing new confirmed this
// iteration" — never an error.
type Result struct {
	Begin *float64
	End   *float64
	Text  string
}

// Empty reports whether r carries no new confirmation.
func (r Result) Empty() bool {
	return r.Begin == nil && r.End == nil && r.Text == ""
}

func floatPtr(v float64) *float64 {
	return &v
}
