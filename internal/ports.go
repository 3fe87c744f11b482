package internal

import "context"

// Embedder converts text to a fixed-dimension vector. Implementations load
// lazily and stay resident for the process lifetime.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Device() string
	Close() error
}

// Generator streams text for a prompt. onToken is invoked synchronously for
// each token, in generation order, before the next token is produced. The
// returned string is the accumulated text, which is valid even when err is
// non-nil (partial output).
type Generator interface {
	Generate(ctx context.Context, prompt string, onToken func(token string)) (string, error)
}

// Transcriber converts captured audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context) (string, error)
}

// Synthesizer plays text as audio, returning once playback completes.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Detection is one object found in a camera frame.
type Detection struct {
	Label      string
	Confidence float32
	Box        [4]int
}

// Detector runs object detection on the current camera frame. An empty slice
// means nothing detected, which is a valid outcome, not an error.
type Detector interface {
	Detect(ctx context.Context) ([]Detection, error)
}

// Display renders the UI for the current mode. Render must be idempotent and
// tolerate rapid repeated calls: the pipeline refreshes it per token.
type Display interface {
	Render(mode Mode, content string) error
}
