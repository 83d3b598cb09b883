// Command confirmtui replays a WAV file through the confirmation pipeline
// and renders committed and pending text live in a terminal UI, so the
// HypothesisBuffer/VacProcessor reconciliation behavior can be watched
// chunk by chunk instead of read off a log.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/lokutor-ai/streamconfirm/pkg/audio"
	"github.com/lokutor-ai/streamconfirm/pkg/confirm"
	"github.com/lokutor-ai/streamconfirm/pkg/providers/recognizer"
	"github.com/lokutor-ai/streamconfirm/pkg/providers/tokenizer"
	"github.com/lokutor-ai/streamconfirm/pkg/providers/vad"
)

// replayChunkSeconds is how much audio is handed to the VacProcessor per
// tick. Small enough to make the VAD's frame-by-frame behavior visible,
// large enough that a multi-minute WAV file doesn't take forever to walk.
const replayChunkSeconds = 0.2

var (
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))

	committedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#bbf7d0"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52525b"))

	urgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fca5a5"))
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <wav-file>\n", os.Args[0])
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	samples, rate, err := loadWav(os.Args[1])
	if err != nil {
		log.Fatalf("loading %s: %v", os.Args[1], err)
	}
	if rate != confirm.SampleRate {
		log.Fatalf("%s is %d Hz, want %d Hz mono", os.Args[1], rate, confirm.SampleRate)
	}

	vac, err := buildPipeline()
	if err != nil {
		log.Fatal(err)
	}

	m := newModel(samples, vac)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

func loadWav(path string) ([]confirm.Sample, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	return audio.ReadWavMono(data)
}

func buildPipeline() (*confirm.VacProcessor, error) {
	recognizerName := os.Getenv("RECOGNIZER_PROVIDER")
	if recognizerName == "" {
		recognizerName = "groq"
	}

	var rec confirm.Recognizer
	switch recognizerName {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY must be set for openai recognizer")
		}
		rec = recognizer.NewOpenAIRecognizer(key, "whisper-1")
	case "groq":
		fallthrough
	default:
		key := os.Getenv("GROQ_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("GROQ_API_KEY must be set for groq recognizer")
		}
		rec = recognizer.NewGroqRecognizer(key, "")
	}

	policy, err := confirm.NewSentenceTrimPolicy(15)
	if err != nil {
		return nil, err
	}
	online, err := confirm.NewOnlineProcessor(rec, tokenizer.NewNaive(), policy)
	if err != nil {
		return nil, err
	}

	detector := vad.NewRMS(0.02, 500*time.Millisecond)
	return confirm.NewVacProcessor(online, detector, 5.0)
}

// ── Bubble Tea model ─────────────────────────────────────────────

type chunkTickMsg struct{}

type iterResultMsg struct {
	result Result
	err    error
}

// Result mirrors confirm.Result so the model doesn't need to import confirm
// types into its message plumbing directly — kept identical for clarity.
type Result = confirm.Result

type model struct {
	vac *confirm.VacProcessor

	samples []confirm.Sample
	cursor  int
	chunk   int

	committed []string
	pending   string
	finished  bool
	err       error

	width, height int
}

func newModel(samples []confirm.Sample, vac *confirm.VacProcessor) model {
	return model{
		vac:     vac,
		samples: samples,
		chunk:   int(replayChunkSeconds * confirm.SampleRate),
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(20*time.Millisecond, func(time.Time) tea.Msg {
		return chunkTickMsg{}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case chunkTickMsg:
		if m.finished {
			return m, nil
		}
		if m.cursor >= len(m.samples) {
			final := m.vac.Finish()
			m.finished = true
			if !final.Empty() {
				m.committed = append(m.committed, final.Text)
			}
			m.pending = ""
			return m, nil
		}
		end := m.cursor + m.chunk
		if end > len(m.samples) {
			end = len(m.samples)
		}
		chunk := m.samples[m.cursor:end]
		m.cursor = end
		return m, m.processChunk(chunk)
	case iterResultMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tickCmd()
		}
		if !msg.result.Empty() {
			m.committed = append(m.committed, msg.result.Text)
		}
		m.pending = m.vac.Pending().Text
		return m, tickCmd()
	}
	return m, nil
}

func (m model) processChunk(chunk []confirm.Sample) tea.Cmd {
	vac := m.vac
	return func() tea.Msg {
		ctx := context.Background()
		if err := vac.InsertAudioChunk(ctx, chunk); err != nil {
			return iterResultMsg{err: err}
		}
		result, err := vac.ProcessIter(ctx)
		return iterResultMsg{result: result, err: err}
	}
}

func (m model) View() string {
	var b string
	b += bannerStyle.Render("confirmtui — replaying WAV through the confirmation core") + "\n\n"

	for _, line := range m.committed {
		b += committedStyle.Render(line) + "\n"
	}
	if m.pending != "" {
		b += pendingStyle.Render(m.pending) + "\n"
	}
	if m.err != nil {
		b += "\n" + urgentStyle.Render("error: "+m.err.Error()) + "\n"
	}

	progress := 100
	if len(m.samples) > 0 {
		progress = m.cursor * 100 / len(m.samples)
	}
	status := fmt.Sprintf("%d%% played", progress)
	if m.finished {
		status = "done — press q to quit"
	}
	b += "\n" + hintStyle.Render(status)

	return b
}
