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

// OpenAIRecognizer transcribes audio windows through OpenAI's
// audio/transcriptions endpoint, requesting word-level timestamps.
type OpenAIRecognizer struct {
	apiKey     string
	url        string
	model      string
	sampleRate int
}

// NewOpenAIRecognizer constructs an OpenAIRecognizer. An empty model
// defaults to "whisper-1".
func NewOpenAIRecognizer(apiKey string, model string) *OpenAIRecognizer {
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAIRecognizer{
		apiKey:     apiKey,
		url:        "https://api.openai.com/v1/audio/transcriptions",
		model:      model,
		sampleRate: confirm.SampleRate,
	}
}

func (o *OpenAIRecognizer) Transcribe(ctx context.Context, samples []confirm.Sample, initPrompt string) (confirm.RecognitionResult, error) {
	wavData := audio.NewWavBuffer(audio.FloatSamplesToPCM16(samples), o.sampleRate)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", o.model); err != nil {
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
	if _, err := part.Write(wavData); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai recognizer error: %s (status %d)", string(respBody), resp.StatusCode)
	}

	var result verboseResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (o *OpenAIRecognizer) TimedWords(result confirm.RecognitionResult) []confirm.TimedWord {
	return result.(*verboseResult).timedWords()
}

func (o *OpenAIRecognizer) SegmentEndTimestamps(result confirm.RecognitionResult) []float64 {
	return result.(*verboseResult).segmentEndTimestamps()
}

func (o *OpenAIRecognizer) Separator() string { return " " }
