package internal

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
)

// Controller is the single consumer of the event queue. It owns the mode
// machine: every transition happens on this goroutine, and every interaction
// ends back in Idle no matter which stage degraded along the way.
//
// Producers deliver triggers through Trigger, which tests the request gate at
// arrival time: a trigger that lands while a request is in flight is dropped
// on the spot, never queued behind it.
type Controller struct {
	queue       *EventQueue
	gate        *RequestGate
	machine     *Machine
	store       *MemoryStore
	retriever   *Retriever
	pipeline    *Pipeline
	presenter   *Presenter
	embedder    Embedder
	transcriber Transcriber
	synthesizer Synthesizer
	detector    Detector
	speech      SpeechConfig
	knowledgeK  int
	detectMode  atomic.Bool
	log         *slog.Logger
}

type ControllerParams struct {
	Queue       *EventQueue
	Gate        *RequestGate
	Machine     *Machine
	Store       *MemoryStore
	Retriever   *Retriever
	Pipeline    *Pipeline
	Presenter   *Presenter
	Embedder    Embedder
	Transcriber Transcriber
	Synthesizer Synthesizer
	Detector    Detector
	Speech      SpeechConfig
	KnowledgeK  int
}

func NewController(p ControllerParams, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	if p.KnowledgeK <= 0 {
		p.KnowledgeK = 3
	}
	return &Controller{
		queue:       p.Queue,
		gate:        p.Gate,
		machine:     p.Machine,
		store:       p.Store,
		retriever:   p.Retriever,
		pipeline:    p.Pipeline,
		presenter:   p.Presenter,
		embedder:    p.Embedder,
		transcriber: p.Transcriber,
		synthesizer: p.Synthesizer,
		detector:    p.Detector,
		speech:      p.Speech,
		knowledgeK:  p.KnowledgeK,
		log:         log.With("component", "controller"),
	}
}

// Trigger admits an event from a producer. The gate is tested here, at
// arrival: if a request is already in flight the trigger is dropped and
// Trigger reports false. An accepted trigger holds the gate until its
// request finishes.
func (c *Controller) Trigger(event Event) bool {
	if !c.gate.TryAcquire() {
		c.log.Debug("busy, dropping event", "event", eventName(event))
		return false
	}
	if !c.queue.Enqueue(event) {
		c.gate.Release()
		return false
	}
	return true
}

// Run consumes events until the queue is closed and drained.
func (c *Controller) Run(ctx context.Context) {
	for {
		event, ok := c.queue.Dequeue()
		if !ok {
			return
		}
		c.handle(ctx, event)
	}
}

// handle processes one admitted event. The gate was acquired by Trigger when
// the event arrived; it is released here once the request has fully unwound.
func (c *Controller) handle(ctx context.Context, event Event) {
	defer c.gate.Release()
	defer c.toIdle()

	switch e := event.(type) {
	case ButtonPressed:
		c.runDetect(ctx)
	case ButtonHeld:
		c.runChat(ctx, "")
	case VoiceCommand:
		switch {
		case c.switchMode(e.Text):
			// Acknowledged; nothing else happens this turn.
		case c.isDetectPhrase(e.Text):
			c.runDetect(ctx)
		default:
			c.runChat(ctx, e.Text)
		}
	default:
		c.log.Warn("unknown event", "event", eventName(event))
	}
}

// runChat handles a conversational turn: listen, retrieve, generate, speak.
// query may already carry text (voice command); empty means capture audio.
func (c *Controller) runChat(ctx context.Context, query string) {
	if !c.transition(ModeListening) {
		return
	}

	if query == "" {
		query = c.listen(ctx)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		c.presenter.ShowText(ModeListening, c.speech.TranscriptionFallback)
		c.speak(ctx, c.speech.TranscriptionFallback)
		return
	}

	if !c.transition(ModeRetrieving) {
		return
	}
	c.presenter.ShowState(ModeRetrieving)

	memory := c.retriever.Retrieve(ctx, query, KindConversation)
	knowledge := c.retriever.RetrieveKnowledge(ctx, query, c.knowledgeK)
	prompt := BuildPrompt(query, memory, knowledge)

	session, ok := c.generate(ctx, prompt)
	if !ok {
		return
	}

	c.say(ctx, session.Output)

	if !session.Fallback && !session.Partial {
		c.remember(ctx, KindConversation, query, session.Output)
	}
}

// runDetect handles an object-identification turn.
func (c *Controller) runDetect(ctx context.Context) {
	if !c.transition(ModeDetecting) {
		return
	}
	c.presenter.ShowState(ModeDetecting)

	detections, err := c.detect(ctx)
	if err != nil {
		c.log.Warn("detection unavailable", "err", err)
	}

	if len(detections) == 0 {
		// Nothing to explain; speak the canned phrase and unwind through
		// the normal stages without touching the model or the store.
		if !c.transition(ModeGenerating) {
			return
		}
		session := c.pipeline.Static(c.speech.NoObjectText)
		c.presenter.ShowText(ModeGenerating, session.Output)
		c.say(ctx, session.Output)
		return
	}

	labels := make([]string, 0, len(detections))
	for _, d := range detections {
		labels = append(labels, d.Label)
	}
	input := strings.Join(labels, ", ")
	prompt := "Explain these detected objects in a natural, conversational way: " + input

	session, ok := c.generate(ctx, prompt)
	if !ok {
		return
	}

	c.say(ctx, session.Output)

	if !session.Fallback && !session.Partial {
		c.remember(ctx, KindDetection, input, session.Output)
	}
}

// generate moves into Generating and streams the answer to the display.
// A false return means the transition itself failed; generation errors are
// absorbed into the session.
func (c *Controller) generate(ctx context.Context, prompt string) (GenerationSession, bool) {
	if !c.transition(ModeGenerating) {
		return GenerationSession{}, false
	}

	c.presenter.Reset()
	c.presenter.ShowState(ModeGenerating)

	session, err := c.pipeline.Run(ctx, prompt, func(token string) {
		c.presenter.AppendToken(ModeGenerating, token)
	})
	if err != nil {
		c.log.Warn("generation degraded", "tokens", session.Tokens, "err", err)
		if session.Fallback {
			c.presenter.ShowText(ModeGenerating, session.Output)
		}
	}

	return session, true
}

// say moves into Speaking and plays the text.
func (c *Controller) say(ctx context.Context, text string) {
	if !c.transition(ModeSpeaking) {
		return
	}
	c.presenter.ShowText(ModeSpeaking, text)
	c.speak(ctx, text)
}

func (c *Controller) listen(ctx context.Context) string {
	if c.transcriber == nil {
		return ""
	}
	text, err := c.transcriber.Transcribe(ctx)
	if err != nil {
		c.log.Warn("transcription failed", "err", err)
		return ""
	}
	return text
}

func (c *Controller) speak(ctx context.Context, text string) {
	if c.synthesizer == nil {
		return
	}
	if err := c.synthesizer.Speak(ctx, text); err != nil {
		c.log.Warn("speech playback failed", "err", err)
	}
}

func (c *Controller) detect(ctx context.Context) ([]Detection, error) {
	if c.detector == nil {
		return nil, ErrDetectionUnavailable
	}
	return c.detector.Detect(ctx)
}

// remember embeds and stores a completed exchange. Embedding failure stores
// the record without a vector; store failure is already absorbed inside
// Insert.
func (c *Controller) remember(ctx context.Context, kind RecordKind, input, output string) {
	var embedding []float32
	if c.embedder != nil {
		vec, err := c.embedder.Embed(ctx, input+" "+output)
		if err != nil {
			c.log.Warn("embedding failed, storing record without vector", "err", err)
		} else {
			embedding = vec
		}
	}

	mode := "chat"
	if kind == KindDetection {
		mode = "detect"
	}

	c.store.Insert(ctx, MemoryRecord{
		Kind:      kind,
		Input:     input,
		Output:    output,
		Embedding: embedding,
		Mode:      mode,
	})
}

// DetectionMode reports whether the persistent interaction mode is
// detection rather than chat.
func (c *Controller) DetectionMode() bool {
	return c.detectMode.Load()
}

// switchMode recognizes voice mode-switch commands ahead of any other
// routing. A recognized command flips the persistent mode, acknowledges on
// the display, and consumes the turn.
func (c *Controller) switchMode(text string) bool {
	lowered := strings.ToLower(text)

	for _, phrase := range c.speech.ChatModePhrases {
		if strings.Contains(lowered, phrase) {
			c.detectMode.Store(false)
			c.presenter.ShowText(ModeIdle, "Mode: Chat Mode")
			c.log.Info("interaction mode changed", "mode", "chat")
			return true
		}
	}
	for _, phrase := range c.speech.DetectModePhrases {
		if strings.Contains(lowered, phrase) {
			c.detectMode.Store(true)
			c.presenter.ShowText(ModeIdle, "Mode: Detection Mode")
			c.log.Info("interaction mode changed", "mode", "detection")
			return true
		}
	}
	return false
}

// Bare verbs only count as detection triggers while detection mode is
// active; in chat mode they are ordinary conversation.
var detectModeTriggers = []string{"detect", "identify"}

func (c *Controller) isDetectPhrase(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range c.speech.DetectPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	if c.detectMode.Load() {
		for _, phrase := range detectModeTriggers {
			if strings.Contains(lowered, phrase) {
				return true
			}
		}
	}
	return false
}

func (c *Controller) transition(target Mode) bool {
	if err := c.machine.Transition(target); err != nil {
		c.log.Error("illegal transition", "from", c.machine.Current().String(), "to", target.String(), "err", err)
		return false
	}
	return true
}

// toIdle walks the machine back to Idle along legal edges from wherever the
// interaction stopped.
func (c *Controller) toIdle() {
	for c.machine.Current() != ModeIdle {
		var next Mode
		switch c.machine.Current() {
		case ModeListening, ModeGenerating, ModeSpeaking:
			next = ModeIdle
		case ModeRetrieving, ModeDetecting:
			next = ModeGenerating
		default:
			return
		}
		if err := c.machine.Transition(next); err != nil {
			c.log.Error("cannot unwind to idle", "from", c.machine.Current().String(), "err", err)
			return
		}
	}
}

func eventName(event Event) string {
	switch event.(type) {
	case ButtonPressed:
		return "button_pressed"
	case ButtonHeld:
		return "button_held"
	case VoiceCommand:
		return "voice_command"
	default:
		return "unknown"
	}
}
