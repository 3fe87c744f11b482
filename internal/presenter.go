package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Presenter pushes mode and text updates to the display, absorbing display
// failures so the pipeline never stalls on a broken screen. After the retry
// budget is spent the presenter goes log-only for the rest of the process.
//
// mu guards only the token buffer; display writes are serialized by renderMu
// and the retry backoff sleeps with neither held, so buffer updates and state
// queries never wait behind a failing screen.
type Presenter struct {
	mu       sync.Mutex
	renderMu sync.Mutex
	display  Display
	retries  int
	backoff  time.Duration
	degraded atomic.Bool
	buffer   strings.Builder
	log      *slog.Logger
}

func NewPresenter(display Display, cfg DisplayConfig, log *slog.Logger) *Presenter {
	if log == nil {
		log = slog.Default()
	}
	return &Presenter{
		display: display,
		retries: cfg.RetryLimit,
		backoff: time.Duration(cfg.RetryBackoffMs) * time.Millisecond,
		log:     log.With("component", "presenter"),
	}
}

// ShowState renders the current mode with no text content.
func (p *Presenter) ShowState(mode Mode) {
	p.render(mode, "")
}

// ShowText renders text under the given mode.
func (p *Presenter) ShowText(mode Mode, text string) {
	p.render(mode, text)
}

// AppendToken adds a streamed token to the buffer and re-renders the
// accumulated text so the answer grows on screen as it is generated.
func (p *Presenter) AppendToken(mode Mode, token string) {
	p.mu.Lock()
	p.buffer.WriteString(token)
	content := p.buffer.String()
	p.mu.Unlock()

	p.render(mode, content)
}

// Reset clears the token buffer ahead of a new generation.
func (p *Presenter) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer.Reset()
}

func (p *Presenter) Degraded() bool {
	return p.degraded.Load()
}

func (p *Presenter) render(mode Mode, content string) {
	if p.degraded.Load() || p.display == nil {
		p.log.Debug("display unavailable", "mode", mode.String(), "content", content)
		return
	}

	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(p.backoff)
		}

		p.renderMu.Lock()
		err = p.display.Render(mode, content)
		p.renderMu.Unlock()

		if err == nil {
			return
		}
		if p.degraded.Load() {
			// Another caller already spent the retry budget.
			return
		}
	}

	if p.degraded.CompareAndSwap(false, true) {
		p.log.Warn("display failed, continuing without it", "err", fmt.Errorf("%v: %w", err, ErrPresentation))
	}
}

// Animator drives the idle animation. It only draws while the machine is
// actually idle, so a frame scheduled just before a transition cannot
// overwrite the new state for longer than one tick.
type Animator struct {
	machine   *Machine
	presenter *Presenter
	fps       int
	frames    []string
}

func NewAnimator(machine *Machine, presenter *Presenter, fps int) *Animator {
	if fps <= 0 {
		fps = 20
	}
	return &Animator{
		machine:   machine,
		presenter: presenter,
		fps:       fps,
		frames:    []string{"( - _ - )", "( o _ o )", "( ^ _ ^ )", "( o _ o )"},
	}
}

// Run blocks until ctx is done.
func (a *Animator) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(a.fps))
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.machine.Current() != ModeIdle {
				continue
			}
			a.presenter.ShowText(ModeIdle, a.frames[frame%len(a.frames)])
			frame++
		}
	}
}
