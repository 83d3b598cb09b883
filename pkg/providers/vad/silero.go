package vad

import (
	"fmt"
	"sync"

	"github.com/lokutor-ai/streamconfirm/internal/sherpa"
	"github.com/lokutor-ai/streamconfirm/pkg/confirm"
)

// SileroConfig configures the on-device Silero VAD model bundled with
// sherpa-onnx.
type SileroConfig struct {
	ModelPath          string
	Threshold          float32
	MinSilenceDuration float32
	MinSpeechDuration  float32
	WindowSize         int
	NumThreads         int
}

// Silero wraps sherpa-onnx's VoiceActivityDetector, translating its
// frame-by-frame IsSpeech() state into confirm.VadEvent start/end
// transitions. Unlike RMS, speech/silence classification comes from a
// trained model rather than an amplitude threshold.
type Silero struct {
	mu      sync.Mutex
	vad     *sherpa.VoiceActivityDetector
	frame   int64
	talking bool
}

// NewSilero loads the configured Silero model. bufferSeconds bounds how
// much audio the native detector keeps internally.
func NewSilero(cfg SileroConfig, bufferSeconds float32) (*Silero, error) {
	modelCfg := &sherpa.VadModelConfig{}
	modelCfg.SileroVad.Model = cfg.ModelPath
	modelCfg.SileroVad.Threshold = cfg.Threshold
	modelCfg.SileroVad.MinSilenceDuration = cfg.MinSilenceDuration
	modelCfg.SileroVad.MinSpeechDuration = cfg.MinSpeechDuration
	modelCfg.SileroVad.WindowSize = cfg.WindowSize
	modelCfg.SampleRate = confirm.SampleRate
	modelCfg.NumThreads = cfg.NumThreads

	v := sherpa.NewVoiceActivityDetector(modelCfg, bufferSeconds)
	if v == nil {
		return nil, fmt.Errorf("silero vad: failed to load model %q", cfg.ModelPath)
	}
	return &Silero{vad: v}, nil
}

// Close releases the native detector.
func (s *Silero) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vad != nil {
		sherpa.DeleteVoiceActivityDetector(s.vad)
		s.vad = nil
	}
}

func (s *Silero) Process(chunk []confirm.Sample) ([]confirm.VadEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vad == nil {
		return nil, fmt.Errorf("silero vad: closed")
	}

	startFrame := s.frame
	s.frame += int64(len(chunk))

	s.vad.AcceptWaveform(chunk)
	speaking := s.vad.IsSpeech()

	var events []confirm.VadEvent
	switch {
	case speaking && !s.talking:
		events = append(events, confirm.VadEvent{Kind: confirm.VadSpeechStart, Frame: startFrame})
	case !speaking && s.talking:
		events = append(events, confirm.VadEvent{Kind: confirm.VadSpeechEnd, Frame: s.frame})
	}
	s.talking = speaking

	// Drain any segments the native detector has fully bounded on its own
	// so its internal ring buffer doesn't grow unbounded between our own
	// start/end bookkeeping above.
	for !s.vad.IsEmpty() {
		s.vad.Pop()
	}

	return events, nil
}
