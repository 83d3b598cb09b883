// Package recognizer provides concrete confirm.Recognizer implementations.
package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/lokutor-ai/streamconfirm/pkg/audio"
	"github.com/lokutor-ai/streamconfirm/pkg/confirm"
)

// verboseResult is the shape shared by Groq's and OpenAI's Whisper
// verbose_json response, once word-level timestamps are requested.
type verboseResult struct {
	Text     string `json:"text"`
	Segments []struct {
		End float64 `json:"end"`
	} `json:"segments"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

func (r *verboseResult) timedWords() []confirm.TimedWord {
	words := make([]confirm.TimedWord, len(r.Words))
	for i, w := range r.Words {
		words[i] = confirm.TimedWord{Begin: w.Start, End: w.End, Text: w.Word}
	}
	return words
}

func (r *verboseResult) segmentEndTimestamps() []float64 {
	ends := make([]float64, len(r.Segments))
	for i, s := range r.Segments {
		ends[i] = s.End
	}
	return ends
}

// GroqRecognizer transcribes audio windows through Groq's hosted Whisper
// endpoint, requesting word-level timestamps.
type GroqRecognizer struct {
	apiKey     string
	url        string
	model      string
	sampleRate int
}

// NewGroqRecognizer constructs a GroqRecognizer. An empty model defaults to
// "whisper-large-v3-turbo".
func NewGroqRecognizer(apiKey string, model string) *GroqRecognizer {
	if model == "" {
		model = "whisper-large-v3-turbo"
	}
	return &GroqRecognizer{
		apiKey:     apiKey,
		url:        "https://api.groq.com/openai/v1/audio/transcriptions",
		model:      model,
		sampleRate: confirm.SampleRate,
	}
}

func (g *GroqRecognizer) Transcribe(ctx context.Context, samples []confirm.Sample, initPrompt string) (confirm.RecognitionResult, error) {
	wavData := audio.NewWavBuffer(audio.FloatSamplesToPCM16(samples), g.sampleRate)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", g.model); err != nil {
		return nil, err
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, err
	}
	if err := writer.WriteField("timestamp_granularities[]", "word"); err != nil {
		return nil, err
	}
	if err := writer.WriteField("timestamp_granularities[]", "segment"); err != nil {
		return nil, err
	}
	if initPrompt != "" {
		if err := writer.WriteField("prompt", initPrompt); err != nil {
			return nil, err
		}
	}

	part, err := writer.CreateFormFile("file", "window.wav")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, bytes.NewReader(wavData)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("groq recognizer error (status %d): %v", resp.StatusCode, errResp)
	}

	var result verboseResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *GroqRecognizer) TimedWords(result confirm.RecognitionResult) []confirm.TimedWord {
	return result.(*verboseResult).timedWords()
}

func (g *GroqRecognizer) SegmentEndTimestamps(result confirm.RecognitionResult) []float64 {
	return result.(*verboseResult).segmentEndTimestamps()
}

func (g *GroqRecognizer) Separator() string { return " " }
