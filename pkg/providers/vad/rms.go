// Package vad provides concrete confirm.VoiceActivityDetector
// implementations.
package vad

import (
	"math"
	"time"

	"github.com/lokutor-ai/streamconfirm/pkg/confirm"
)

// RMS is a simple root-mean-square voice activity detector: lightweight,
// no model to load, good enough as a default and for tests.
type RMS struct {
	threshold    float64
	silenceLimit time.Duration
	minConfirmed int

	frame             int64
	isSpeaking        bool
	consecutiveFrames int
	silenceStart      time.Time
	lastRMS           float64
}

// NewRMS constructs an RMS detector. threshold is compared against each
// chunk's RMS amplitude (samples already normalized to [-1, 1]);
// silenceLimit is how long the signal must stay below threshold before a
// SpeechEnd event fires.
func NewRMS(threshold float64, silenceLimit time.Duration) *RMS {
	return &RMS{
		threshold:    threshold,
		silenceLimit: silenceLimit,
		minConfirmed: 7,
	}
}

// SetMinConfirmed sets how many consecutive above-threshold chunks are
// needed to confirm a speech start, filtering out brief spikes.
func (v *RMS) SetMinConfirmed(count int) {
	v.minConfirmed = count
}

// LastRMS returns the RMS amplitude of the most recently processed chunk.
func (v *RMS) LastRMS() float64 {
	return v.lastRMS
}

func (v *RMS) Process(chunk []confirm.Sample) ([]confirm.VadEvent, error) {
	rms := calculateRMS(chunk)
	v.lastRMS = rms
	startFrame := v.frame
	v.frame += int64(len(chunk))

	if rms > v.threshold {
		v.consecutiveFrames++
		v.silenceStart = time.Time{}
		if !v.isSpeaking && v.consecutiveFrames >= v.minConfirmed {
			v.isSpeaking = true
			return []confirm.VadEvent{{Kind: confirm.VadSpeechStart, Frame: startFrame}}, nil
		}
		return nil, nil
	}

	v.consecutiveFrames = 0
	if !v.isSpeaking {
		return nil, nil
	}

	if v.silenceStart.IsZero() {
		v.silenceStart = time.Now()
		return nil, nil
	}
	if time.Since(v.silenceStart) >= v.silenceLimit {
		v.isSpeaking = false
		v.silenceStart = time.Time{}
		return []confirm.VadEvent{{Kind: confirm.VadSpeechEnd, Frame: v.frame}}, nil
	}
	return nil, nil
}

func calculateRMS(chunk []confirm.Sample) float64 {
	if len(chunk) == 0 {
		return 0
	}
	var sum float64
	for _, s := range chunk {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(chunk)))
}
