package confirm

// HypothesisBuffer reconciles successive, overlapping transcription
// hypotheses of a growing audio window into a stream of confirmed words.
// It holds three word lists in absolute stream time:
//
//   - committedInBuffer: words already confirmed and still inside the
//     current hypothesis window (kept for n-gram boundary comparison).
//   - buffer: the previous hypothesis, not yet reconciled against new.
//   - new: the just-inserted hypothesis.
//
// It is not safe for concurrent use — callers drive it from a single
// goroutine, matching OnlineProcessor's own concurrency contract.
type HypothesisBuffer struct {
	committedInBuffer []TimedWord
	buffer            []TimedWord
	new               []TimedWord

	lastCommittedTime float64
	lastCommittedText string
}

// NewHypothesisBuffer returns an empty buffer. Call Init before first use
// to set the starting commit clock.
func NewHypothesisBuffer() *HypothesisBuffer {
	return &HypothesisBuffer{}
}

// Init resets the buffer and anchors its commit clock at startOffset.
func (h *HypothesisBuffer) Init(startOffset float64) {
	h.committedInBuffer = nil
	h.buffer = nil
	h.new = nil
	h.lastCommittedTime = startOffset
	h.lastCommittedText = ""
}

// Insert folds a freshly transcribed hypothesis (window-local timestamps)
// into the buffer, shifted into absolute time by offset. Words that begin
// before the last commit (with a 0.1s grace window) are dropped as
// already-settled history; a short run of words that exactly reproduces
// the tail of committedInBuffer is treated as the recognizer re-emitting
// words it already confirmed last time, and is dropped rather than
// re-committed.
func (h *HypothesisBuffer) Insert(words []TimedWord, offset float64) {
	shifted := make([]TimedWord, len(words))
	for i, w := range words {
		shifted[i] = TimedWord{Begin: w.Begin + offset, End: w.End + offset, Text: w.Text}
	}

	h.new = h.new[:0]
	for _, w := range shifted {
		if w.Begin > h.lastCommittedTime-0.1 {
			h.new = append(h.new, w)
		}
	}

	if len(h.new) == 0 {
		return
	}

	if abs(h.new[0].Begin-h.lastCommittedTime) >= 1 {
		return
	}
	if len(h.committedInBuffer) == 0 {
		return
	}

	cn := len(h.committedInBuffer)
	nn := len(h.new)
	bound := cn
	if nn < bound {
		bound = nn
	}
	if bound > 5 {
		bound = 5
	}

	for i := 1; i <= bound; i++ {
		if h.tailMatches(i) {
			h.new = h.new[i:]
			break
		}
	}
}

// tailMatches reports whether the last i words of committedInBuffer equal
// the first i words of new, text-for-text.
func (h *HypothesisBuffer) tailMatches(i int) bool {
	cn := len(h.committedInBuffer)
	for j := 0; j < i; j++ {
		if h.committedInBuffer[cn-i+j].Text != h.new[j].Text {
			return false
		}
	}
	return true
}

// Flush commits the longest common prefix of buffer (the previous
// hypothesis) and new (the current one), matched word-for-word on text. It
// replaces buffer with whatever of new didn't commit, and returns the
// newly committed words (absolute time, already folded into
// committedInBuffer for future Insert calls).
func (h *HypothesisBuffer) Flush() []TimedWord {
	var commit []TimedWord

	for len(h.new) > 0 && len(h.buffer) > 0 {
		if h.new[0].Text != h.buffer[0].Text {
			break
		}
		commit = append(commit, h.new[0])
		h.lastCommittedText = h.new[0].Text
		h.lastCommittedTime = h.new[0].End
		h.buffer = h.buffer[1:]
		h.new = h.new[1:]
	}

	h.buffer = append([]TimedWord(nil), h.new...)
	h.new = nil
	h.committedInBuffer = append(h.committedInBuffer, commit...)
	return commit
}

// PopCommitted discards entries of committedInBuffer that end at or before
// t — called after the owning processor trims its audio buffer past t, so
// n-gram comparisons no longer need words outside the live window.
func (h *HypothesisBuffer) PopCommitted(t float64) {
	i := 0
	for i < len(h.committedInBuffer) && h.committedInBuffer[i].End <= t {
		i++
	}
	h.committedInBuffer = h.committedInBuffer[i:]
}

// Complete returns the words held in buffer — the most recent hypothesis
// that hasn't (yet) been confirmed by a matching follow-up.
func (h *HypothesisBuffer) Complete() []TimedWord {
	return append([]TimedWord(nil), h.buffer...)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
