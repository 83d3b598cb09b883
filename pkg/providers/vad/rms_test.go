package vad

import (
	"testing"
	"time"

	"github.com/lokutor-ai/streamconfirm/pkg/confirm"
)

func loudChunk(n int) []confirm.Sample {
	c := make([]confirm.Sample, n)
	for i := range c {
		c[i] = 0.9
	}
	return c
}

func silentChunk(n int) []confirm.Sample {
	return make([]confirm.Sample, n)
}

func TestRMSDetectsSpeechStartAfterMinConfirmed(t *testing.T) {
	v := NewRMS(0.1, 200*time.Millisecond)
	v.SetMinConfirmed(3)

	for i := 0; i < 2; i++ {
		events, err := v.Process(loudChunk(160))
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		if len(events) != 0 {
			t.Fatalf("Process() call %d = %+v, want no event yet", i, events)
		}
	}

	events, err := v.Process(loudChunk(160))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(events) != 1 || events[0].Kind != confirm.VadSpeechStart {
		t.Fatalf("Process() = %+v, want one VadSpeechStart event", events)
	}
}

func TestRMSDetectsSpeechEndAfterSilenceLimit(t *testing.T) {
	v := NewRMS(0.1, 1*time.Millisecond)
	v.SetMinConfirmed(1)

	if events, err := v.Process(loudChunk(160)); err != nil || len(events) != 1 {
		t.Fatalf("Process(loud) = %+v, %v", events, err)
	}

	// First silent chunk only arms the silence timer.
	if events, err := v.Process(silentChunk(160)); err != nil || len(events) != 0 {
		t.Fatalf("Process(silent #1) = %+v, %v, want no event", events, err)
	}

	time.Sleep(2 * time.Millisecond)

	events, err := v.Process(silentChunk(160))
	if err != nil {
		t.Fatalf("Process(silent #2): %v", err)
	}
	if len(events) != 1 || events[0].Kind != confirm.VadSpeechEnd {
		t.Fatalf("Process(silent #2) = %+v, want one VadSpeechEnd event", events)
	}
}

func TestRMSIgnoresSilenceBeforeSpeech(t *testing.T) {
	v := NewRMS(0.1, 50*time.Millisecond)
	events, err := v.Process(silentChunk(160))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Process(silence with no prior speech) = %+v, want no event", events)
	}
}
