package recognizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/lokutor-ai/streamconfirm/internal/sherpa"
	"github.com/lokutor-ai/streamconfirm/pkg/confirm"
)

// defaultWordDuration is used when the underlying model reports only a
// start timestamp per token (no explicit end): the on-device Whisper
// models sherpa-onnx ships emit one timestamp per token, not a
// begin/end pair, so the end of one word is approximated as the start of
// the next (or this fallback for the last word in a window).
const defaultWordDuration = 0.2

// SherpaConfig configures a local, on-device recognizer backed by
// sherpa-onnx's offline (batch) Whisper recognizer.
type SherpaConfig struct {
	Encoder    string
	Decoder    string
	Tokens     string
	Language   string
	Provider   string // "cpu", "cuda", "coreml"...
	NumThreads int
}

// SherpaRecognizer runs recognition entirely on-device through sherpa-onnx,
// trading network latency for local compute. One OfflineStream is created
// per Transcribe call since OnlineProcessor re-transcribes the whole
// window each iteration rather than streaming into a single stream.
type SherpaRecognizer struct {
	mu         sync.Mutex
	recognizer *sherpa.OfflineRecognizer
}

// NewSherpaRecognizer loads the configured Whisper model. The returned
// recognizer owns native resources and must be closed with Close.
func NewSherpaRecognizer(cfg SherpaConfig) (*SherpaRecognizer, error) {
	recCfg := &sherpa.OfflineRecognizerConfig{}
	recCfg.ModelConfig.Whisper.Encoder = cfg.Encoder
	recCfg.ModelConfig.Whisper.Decoder = cfg.Decoder
	recCfg.ModelConfig.Whisper.Language = cfg.Language
	recCfg.ModelConfig.Whisper.Task = "transcribe"
	recCfg.ModelConfig.Whisper.TailPaddings = -1
	recCfg.ModelConfig.Tokens = cfg.Tokens
	recCfg.ModelConfig.NumThreads = cfg.NumThreads
	recCfg.ModelConfig.Provider = cfg.Provider
	recCfg.DecodingMethod = "greedy_search"

	rec := sherpa.NewOfflineRecognizer(recCfg)
	if rec == nil {
		return nil, fmt.Errorf("sherpa recognizer: failed to load model")
	}
	return &SherpaRecognizer{recognizer: rec}, nil
}

// Close releases the native recognizer.
func (s *SherpaRecognizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(s.recognizer)
		s.recognizer = nil
	}
}

// Transcribe decodes samples in one offline pass. initPrompt is not passed
// to the model.
func (s *SherpaRecognizer) Transcribe(ctx context.Context, samples []confirm.Sample, initPrompt string) (confirm.RecognitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recognizer == nil {
		return nil, fmt.Errorf("sherpa recognizer: closed")
	}

	stream := sherpa.NewOfflineStream(s.recognizer)
	if stream == nil {
		return nil, fmt.Errorf("sherpa recognizer: failed to create stream")
	}
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(confirm.SampleRate, samples)
	s.recognizer.Decode(stream)

	result := stream.GetResult()
	return &result, nil
}

func (s *SherpaRecognizer) TimedWords(result confirm.RecognitionResult) []confirm.TimedWord {
	r := result.(*sherpa.OfflineRecognizerResult)
	n := len(r.Tokens)
	if n == 0 {
		return nil
	}
	words := make([]confirm.TimedWord, n)
	for i, tok := range r.Tokens {
		begin := 0.0
		if i < len(r.Timestamps) {
			begin = float64(r.Timestamps[i])
		}
		end := begin + defaultWordDuration
		if i+1 < len(r.Timestamps) {
			end = float64(r.Timestamps[i+1])
		}
		words[i] = confirm.TimedWord{Begin: begin, End: end, Text: tok}
	}
	return words
}

// SegmentEndTimestamps is empty: the offline recognizer decodes one window
// as a single segment, so this adapter is only ever usable with a
// confirm.NewSentenceTrimPolicy, not the segment policy.
func (s *SherpaRecognizer) SegmentEndTimestamps(result confirm.RecognitionResult) []float64 {
	return nil
}

func (s *SherpaRecognizer) Separator() string { return "" }
