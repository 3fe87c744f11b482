package internal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Reference collaborators for running the assistant on a plain terminal,
// without microphone, speaker, camera, or panel attached. They implement the
// same ports the hardware drivers do.

var _ Display = (*TerminalDisplay)(nil)

// TerminalDisplay writes mode and content as lines to a writer. Repeated
// renders of the same state are suppressed so token streaming does not flood
// the terminal with duplicate mode banners.
type TerminalDisplay struct {
	mu   sync.Mutex
	w    io.Writer
	last string
}

func NewTerminalDisplay(w io.Writer) *TerminalDisplay {
	return &TerminalDisplay{w: w}
}

func (d *TerminalDisplay) Render(mode Mode, content string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	line := fmt.Sprintf("[%s] %s", mode.String(), content)
	if line == d.last {
		return nil
	}
	d.last = line

	_, err := fmt.Fprintln(d.w, line)
	return err
}

var _ Synthesizer = (*PrintSynthesizer)(nil)

// PrintSynthesizer "speaks" by printing. Playback is instantaneous.
type PrintSynthesizer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrintSynthesizer(w io.Writer) *PrintSynthesizer {
	return &PrintSynthesizer{w: w}
}

func (s *PrintSynthesizer) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "speak> %s\n", text)
	return err
}

var _ Transcriber = (*NoopTranscriber)(nil)

// NoopTranscriber stands in when no microphone is attached; every capture
// fails, exercising the transcription fallback path.
type NoopTranscriber struct{}

func (NoopTranscriber) Transcribe(ctx context.Context) (string, error) {
	return "", fmt.Errorf("no microphone attached: %w", ErrTranscriptionFailed)
}

var _ Detector = (*StaticDetector)(nil)

// StaticDetector reports a fixed set of labels, for exercising the detection
// path without a camera. An empty label list reports nothing detected.
type StaticDetector struct {
	Labels []string
}

func (d StaticDetector) Detect(ctx context.Context) ([]Detection, error) {
	out := make([]Detection, 0, len(d.Labels))
	for _, label := range d.Labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		out = append(out, Detection{Label: label, Confidence: 1})
	}
	return out, nil
}
