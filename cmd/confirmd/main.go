// Command confirmd wires a VacProcessor to live microphone capture and
// prints (and optionally broadcasts) the confirmed transcript as it's
// produced.
package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/joho/godotenv"

	"github.com/lokutor-ai/streamconfirm/pkg/confirm"
	"github.com/lokutor-ai/streamconfirm/pkg/providers/recognizer"
	"github.com/lokutor-ai/streamconfirm/pkg/providers/tokenizer"
	"github.com/lokutor-ai/streamconfirm/pkg/providers/vad"
	"github.com/lokutor-ai/streamconfirm/pkg/transcript"
)

const sampleRate = confirm.SampleRate

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	groqKey := os.Getenv("GROQ_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")

	recognizerName := os.Getenv("RECOGNIZER_PROVIDER")
	if recognizerName == "" {
		recognizerName = "groq"
	}

	var rec confirm.Recognizer
	switch recognizerName {
	case "openai":
		if openaiKey == "" {
			log.Fatal("Error: OPENAI_API_KEY must be set for openai recognizer")
		}
		rec = recognizer.NewOpenAIRecognizer(openaiKey, "whisper-1")
	case "groq":
		fallthrough
	default:
		if groqKey == "" {
			log.Fatal("Error: GROQ_API_KEY must be set for groq recognizer")
		}
		rec = recognizer.NewGroqRecognizer(groqKey, "")
	}

	policy, err := confirm.NewSentenceTrimPolicy(15)
	if err != nil {
		log.Fatal(err)
	}
	online, err := confirm.NewOnlineProcessor(rec, tokenizer.NewNaive(), policy)
	if err != nil {
		log.Fatal(err)
	}

	detector := vad.NewRMS(0.02, 500*time.Millisecond)
	vac, err := confirm.NewVacProcessor(online, detector, 5.0)
	if err != nil {
		log.Fatal(err)
	}

	broadcaster := transcript.NewBroadcaster()
	addr := os.Getenv("CONFIRMD_LISTEN_ADDR")
	if addr == "" {
		addr = ":8089"
	}
	go func() {
		log.Printf("transcript websocket listening on %s", addr)
		if err := http.ListenAndServe(addr, broadcaster); err != nil {
			log.Printf("websocket server stopped: %v", err)
		}
	}()

	fmt.Printf("Confirmation core started: recognizer=%s sampleRate=%dHz\n", recognizerName, sampleRate)
	fmt.Println("Press Ctrl+C to exit")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer mctx.Uninit()

	var rmsMu sync.Mutex
	lastRMS := 0.0

	onSamples := func(pOutput, pInput []byte, frameCount uint32) {
		if pInput == nil {
			return
		}
		samples := pcm16ToFloat32(pInput)

		var sum float64
		for _, s := range samples {
			f := float64(s)
			sum += f * f
		}
		rms := math.Sqrt(sum / float64(len(samples)))
		rmsMu.Lock()
		lastRMS = rms
		rmsMu.Unlock()

		if err := vac.InsertAudioChunk(ctx, samples); err != nil {
			log.Printf("InsertAudioChunk: %v", err)
			return
		}
		result, err := vac.ProcessIter(ctx)
		if err != nil {
			log.Printf("ProcessIter: %v", err)
			return
		}
		if !result.Empty() {
			fmt.Printf("\r\033[K[CONFIRMED] %s\n", result.Text)
			broadcaster.Publish(ctx, result)
		}
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = sampleRate
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		log.Fatal(err)
	}

	go func() {
		for {
			rmsMu.Lock()
			level := lastRMS
			rmsMu.Unlock()
			meter := ""
			dots := int(level * 500)
			if dots > 40 {
				dots = 40
			}
			for i := 0; i < dots; i++ {
				meter += "|"
			}
			fmt.Printf("\r[MIC ENERGY: %-40s] RMS: %.5f", meter, level)
			time.Sleep(100 * time.Millisecond)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	final := vac.Finish()
	if !final.Empty() {
		fmt.Printf("\n[FINAL] %s\n", final.Text)
		broadcaster.Publish(ctx, final)
	}
	fmt.Println("\nShutting down...")
}

func pcm16ToFloat32(pcm []byte) []confirm.Sample {
	out := make([]confirm.Sample, len(pcm)/2)
	for i := range out {
		sample := int16(pcm[i*2]) | (int16(pcm[i*2+1]) << 8)
		out[i] = float32(sample) / 32768.0
	}
	return out
}
