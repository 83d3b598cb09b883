package confirm

import (
	"context"
	"strings"

	"github.com/lokutor-ai/streamconfirm/pkg/audio"
)

// promptCharLimit bounds how much already-committed text gets handed back
// to the recognizer as prior context ahead of each window.
const promptCharLimit = 200

// Option configures an OnlineProcessor or VacProcessor at construction.
type Option func(*options)

type options struct {
	logger Logger
}

func defaultOptions() *options {
	return &options{logger: NoOpLogger{}}
}

// WithLogger injects a Logger. The default is NoOpLogger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// OnlineProcessor owns the sliding audio window, drives the Recognizer over
// it, and reconciles successive hypotheses through a HypothesisBuffer into
// a monotonically growing committed transcript. Not safe for concurrent
// use — exactly one goroutine should drive InsertAudioChunk/ProcessIter.
type OnlineProcessor struct {
	recognizer Recognizer
	tokenizer  Tokenizer
	policy     TrimPolicy
	logger     Logger

	audioBuf    *audio.Ring
	hyp         *HypothesisBuffer
	bufferStart float64 // stream time, seconds, of audioBuf's first sample
	committed   []TimedWord
}

// NewOnlineProcessor constructs a processor. recognizer must be non-nil;
// tokenizer must be non-nil when policy requires sentence boundaries.
func NewOnlineProcessor(recognizer Recognizer, tokenizer Tokenizer, policy TrimPolicy, opts ...Option) (*OnlineProcessor, error) {
	if recognizer == nil {
		return nil, ErrNilRecognizer
	}
	if policy.needsTokenizer() && tokenizer == nil {
		return nil, ErrNilTokenizer
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if policy.MaxSeconds() > warnTrimSecondsThreshold {
		o.logger.Warn("trim policy max seconds is unusually large", "maxSeconds", policy.MaxSeconds())
	}

	p := &OnlineProcessor{
		recognizer: recognizer,
		tokenizer:  tokenizer,
		policy:     policy,
		logger:     o.logger,
		audioBuf:   audio.NewRing(),
		hyp:        NewHypothesisBuffer(),
	}
	p.Init(0)
	return p, nil
}

// Init resets the processor's state, anchoring its stream clock at offset.
func (p *OnlineProcessor) Init(offset float64) {
	p.audioBuf.Reset()
	p.bufferStart = offset
	p.hyp.Init(offset)
	p.committed = nil
}

// InsertAudioChunk appends samples to the end of the live audio window.
func (p *OnlineProcessor) InsertAudioChunk(samples []Sample) {
	p.audioBuf.Append(samples)
}

// ProcessIter transcribes the current window, reconciles the result against
// the previous hypothesis, trims the buffer as the trim policy directs (see
// maybeTrim), and returns whatever new text got confirmed.
func (p *OnlineProcessor) ProcessIter(ctx context.Context) (Result, error) {
	prompt, _ := p.prompt()
	p.logger.Debug("transcribing window", "bufferSeconds", p.bufferSeconds(), "promptChars", len(prompt))

	res, err := p.recognizer.Transcribe(ctx, p.audioBuf.Samples(), prompt)
	if err != nil {
		return Result{}, err
	}

	words := p.recognizer.TimedWords(res)
	p.hyp.Insert(words, p.bufferStart)
	committedNow := p.hyp.Flush()
	p.committed = append(p.committed, committedNow...)

	p.maybeTrim(res)

	return p.toFlush(committedNow), nil
}

// Finish flushes whatever uncommitted hypothesis remains in the buffer,
// without waiting for a matching follow-up transcription to confirm it.
func (p *OnlineProcessor) Finish() Result {
	return p.toFlush(p.hyp.Complete())
}

// Pending returns the current uncommitted hypothesis without consuming it,
// for display purposes (e.g. a live "still being confirmed" line).
func (p *OnlineProcessor) Pending() Result {
	return p.toFlush(p.hyp.Complete())
}

// ChunkAt discards audio and committed-word bookkeeping before absolute
// stream time t, advancing the window start to t. A t earlier than the
// current window start is a no-op.
func (p *OnlineProcessor) ChunkAt(t float64) {
	if t < p.bufferStart {
		return
	}
	p.hyp.PopCommitted(t)
	cutSeconds := t - p.bufferStart
	if cutSeconds > 0 {
		p.audioBuf.DropFront(int(cutSeconds * SampleRate))
	}
	p.bufferStart = t
}

func (p *OnlineProcessor) bufferSeconds() float64 {
	return float64(p.audioBuf.Len()) / SampleRate
}

// prompt returns (prompt, nonPrompt): prompt is the shortest run of trailing
// whole committed words before the current window start whose length
// (counting one separator per word) reaches promptCharLimit, or all of them
// if there are fewer, handed to the recognizer as prior context;
// nonPrompt is the committed text inside the current window, kept only for
// diagnostics.
func (p *OnlineProcessor) prompt() (prompt string, nonPrompt string) {
	k := len(p.committed)
	for k > 0 && p.committed[k-1].End > p.bufferStart {
		k--
	}

	sep := p.recognizer.Separator()

	var picked []string
	length := 0
	for i := k - 1; i >= 0 && length < promptCharLimit; i-- {
		text := p.committed[i].Text
		length += len(text) + 1
		picked = append(picked, text)
	}
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}

	rest := make([]string, 0, len(p.committed)-k)
	for _, w := range p.committed[k:] {
		rest = append(rest, w.Text)
	}

	return strings.Join(picked, sep), strings.Join(rest, sep)
}

// maybeTrim attempts a sentence-boundary trim on every call when the policy
// is sentence-based, then — independent of that, and independent of policy
// kind — forces a segment-boundary trim once the buffer has grown past the
// policy's threshold. The segment trim is a fallback: a sentence policy
// still needs its window bounded even on audio with no sentence boundary
// yet, which chunkCompletedSentence alone can't guarantee.
func (p *OnlineProcessor) maybeTrim(res RecognitionResult) {
	if p.policy.kind == trimSentence {
		p.chunkCompletedSentence()
	}
	if p.bufferSeconds() > p.policy.MaxSeconds() {
		if p.policy.kind == trimSentence {
			p.logger.Warn("buffer exceeded trim seconds with no sentence boundary found, forcing segment trim", "maxSeconds", p.policy.MaxSeconds())
		}
		p.chunkCompletedSegment(res)
	}
}

// chunkCompletedSentence advances the window to the end of the second-to-last
// sentence of the committed text, so the last (possibly incomplete) sentence
// stays in the live window for the recognizer to re-confirm against.
func (p *OnlineProcessor) chunkCompletedSentence() {
	if len(p.committed) == 0 {
		return
	}
	sentences := p.wordsToSentences(p.committed)
	if len(sentences) < 2 {
		return
	}
	for len(sentences) > 2 {
		sentences = sentences[1:]
	}
	p.ChunkAt(sentences[len(sentences)-2].End)
}

// chunkCompletedSegment advances the window to the recognizer's second-to-
// last reported segment boundary, as long as that boundary doesn't cut into
// the most recently committed word.
func (p *OnlineProcessor) chunkCompletedSegment(res RecognitionResult) {
	if len(p.committed) == 0 {
		return
	}
	ends := p.recognizer.SegmentEndTimestamps(res)
	if len(ends) < 2 {
		return
	}

	lastCommittedEnd := p.committed[len(p.committed)-1].End

	e := ends[len(ends)-2] + p.bufferStart
	for len(ends) > 2 && e > lastCommittedEnd {
		ends = ends[:len(ends)-1]
		e = ends[len(ends)-2] + p.bufferStart
	}
	if e <= lastCommittedEnd {
		p.ChunkAt(e)
	}
}

// wordsToSentences groups committed words into sentences using the
// tokenizer, re-anchoring each returned sentence to the begin/end time of
// the words it spans.
func (p *OnlineProcessor) wordsToSentences(words []TimedWord) []TimedWord {
	if p.tokenizer == nil || len(words) == 0 {
		return nil
	}

	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	sentenceTexts := p.tokenizer.Tokenize(texts)

	var sentences []TimedWord
	wi := 0
	for _, sentence := range sentenceTexts {
		target := strings.Join(strings.Fields(sentence), "")
		var acc strings.Builder
		begin := words[wi].Begin
		var end float64
		for wi < len(words) {
			acc.WriteString(words[wi].Text)
			end = words[wi].End
			wi++
			if strings.Join(strings.Fields(acc.String()), "") == target {
				break
			}
		}
		sentences = append(sentences, TimedWord{Begin: begin, End: end, Text: sentence})
	}
	return sentences
}

// toFlush joins a run of committed words into a single Result, spanning
// from the first word's Begin to the last word's End.
func (p *OnlineProcessor) toFlush(words []TimedWord) Result {
	if len(words) == 0 {
		return Result{}
	}
	sep := p.recognizer.Separator()
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	return Result{
		Begin: floatPtr(words[0].Begin),
		End:   floatPtr(words[len(words)-1].End),
		Text:  strings.Join(texts, sep),
	}
}
