//go:build linux

// Package sherpa re-exports the platform-specific sherpa-onnx bindings
// behind a single, platform-independent name so the rest of this module
// never imports k2-fsa/sherpa-onnx-go-linux or -macos directly.
package sherpa

import (
	impl "github.com/k2-fsa/sherpa-onnx-go-linux"
)

// Type aliases for VAD.

type VoiceActivityDetector = impl.VoiceActivityDetector
type VadModelConfig = impl.VadModelConfig
type SpeechSegment = impl.SpeechSegment

// Type aliases for the offline (batch) recognizer used against each
// OnlineProcessor window.

type OfflineRecognizer = impl.OfflineRecognizer
type OfflineRecognizerConfig = impl.OfflineRecognizerConfig
type OfflineStream = impl.OfflineStream
type OfflineRecognizerResult = impl.OfflineRecognizerResult

// VAD functions.

var NewVoiceActivityDetector = impl.NewVoiceActivityDetector
var DeleteVoiceActivityDetector = impl.DeleteVoiceActivityDetector

// Offline recognizer functions.

var NewOfflineRecognizer = impl.NewOfflineRecognizer
var DeleteOfflineRecognizer = impl.DeleteOfflineRecognizer
var NewOfflineStream = impl.NewOfflineStream
var DeleteOfflineStream = impl.DeleteOfflineStream
