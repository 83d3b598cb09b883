package confirm

import (
	"context"

	"github.com/lokutor-ai/streamconfirm/pkg/audio"
)

// lookbackSeconds is how much trailing silence VacProcessor keeps buffered
// while waiting for a voice-activity start, so the OnlineProcessor's window
// gets a little context before the first confirmed word rather than
// starting exactly on the detected onset.
const lookbackSeconds = 1.0

// VacProcessor wraps an OnlineProcessor with voice-activity gating: audio is
// only handed to the recognizer while the VAD reports speech, and the
// wrapped OnlineProcessor's uncommitted hypothesis is finalized (via Finish,
// without another recognizer call) as soon as speech ends rather than
// waiting for the next scheduled chunk. This lowers latency on
// end-of-utterance confirmation, and avoids transcribing silence at all.
//
// Not safe for concurrent use.
type VacProcessor struct {
	online *OnlineProcessor
	vad    VoiceActivityDetector
	logger Logger

	onlineChunkSamples int
	chunkAccumulated   int

	buf               *audio.Ring
	bufferOffsetFrame int64
	voiceActive       bool
	pendingFinal      bool
}

// NewVacProcessor wraps online with VAD gating. onlineChunkSizeSeconds
// bounds how much voice audio accumulates between forced OnlineProcessor
// iterations while speech continues uninterrupted.
func NewVacProcessor(online *OnlineProcessor, vad VoiceActivityDetector, onlineChunkSizeSeconds float64, opts ...Option) (*VacProcessor, error) {
	if online == nil {
		return nil, ErrNilRecognizer
	}
	if vad == nil {
		return nil, ErrNilVAD
	}
	if onlineChunkSizeSeconds <= 0 {
		return nil, ErrNonPositiveChunkSize
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &VacProcessor{
		online:             online,
		vad:                vad,
		logger:             o.logger,
		onlineChunkSamples: int(onlineChunkSizeSeconds * SampleRate),
		buf:                audio.NewRing(),
	}, nil
}

// InsertAudioChunk feeds samples through the VAD, routes voice audio to the
// wrapped OnlineProcessor, and arms a forced finalization when speech ends.
func (v *VacProcessor) InsertAudioChunk(ctx context.Context, samples []Sample) error {
	events, err := v.vad.Process(samples)
	v.buf.Append(samples)
	if err != nil {
		return err
	}

	if len(events) > 0 {
		v.handleEvents(events)
		v.bufferOffsetFrame += int64(v.buf.Len())
		v.buf.Reset()
		return nil
	}

	if v.voiceActive {
		v.online.InsertAudioChunk(v.buf.Samples())
		v.chunkAccumulated += v.buf.Len()
		v.bufferOffsetFrame += int64(v.buf.Len())
		v.buf.Reset()
		return nil
	}

	lookbackSamples := int(lookbackSeconds * SampleRate)
	if drop := v.buf.Len() - lookbackSamples; drop > 0 {
		v.buf.DropFront(drop)
		v.bufferOffsetFrame += int64(drop)
	}
	return nil
}

// handleEvents walks the VAD events detected within the currently buffered
// chunk in order, routing exactly the voice-active spans to the wrapped
// OnlineProcessor. A single chunk can hold both a start and an end, so the
// loop tracks a cursor and forwards only the samples between them rather
// than draining the full buffer at each event.
func (v *VacProcessor) handleEvents(events []VadEvent) {
	cursor := 0
	for _, ev := range events {
		local := int(ev.Frame - v.bufferOffsetFrame)
		if local < 0 {
			local = 0
		}
		if local > v.buf.Len() {
			local = v.buf.Len()
		}

		switch ev.Kind {
		case VadSpeechStart:
			v.online.Init(float64(ev.Frame) / SampleRate)
			v.voiceActive = true
			v.chunkAccumulated = 0
			cursor = local
		case VadSpeechEnd:
			if v.voiceActive {
				v.online.InsertAudioChunk(v.buf.Samples()[cursor:local])
				v.chunkAccumulated += local - cursor
			}
			v.voiceActive = false
			v.pendingFinal = true
			cursor = local
		}
	}

	if v.voiceActive {
		tail := v.buf.Samples()[cursor:]
		v.online.InsertAudioChunk(tail)
		v.chunkAccumulated += len(tail)
	}
}

// ProcessIter delegates to the wrapped OnlineProcessor's Finish once speech
// has just ended, to OnlineProcessor.ProcessIter once enough voice audio has
// accumulated since the last iteration, or otherwise does nothing (returns
// an empty Result) since there is nothing new to transcribe — running the
// recognizer on unchanged audio would waste work and risk spurious
// re-confirmation noise.
//
// On forced finalization, only Finish is called — not a fresh ProcessIter —
// so an utterance whose accumulated voice audio never crossed
// onlineChunkSamples before speech ended is flushed from whatever is
// already in the hypothesis buffer, exactly as the original algorithm does;
// it does not trigger one last recognizer call first.
func (v *VacProcessor) ProcessIter(ctx context.Context) (Result, error) {
	if v.pendingFinal {
		v.pendingFinal = false
		return v.online.Finish(), nil
	}
	if v.chunkAccumulated > v.onlineChunkSamples {
		v.chunkAccumulated = 0
		return v.online.ProcessIter(ctx)
	}
	v.logger.Debug("no online update, VAD only")
	return Result{}, nil
}

// Finish flushes the wrapped OnlineProcessor's remaining uncommitted
// hypothesis.
func (v *VacProcessor) Finish() Result {
	return v.online.Finish()
}

// Pending returns the wrapped OnlineProcessor's current uncommitted
// hypothesis without consuming it.
func (v *VacProcessor) Pending() Result {
	return v.online.Pending()
}
