package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aura-assistant/aura/internal"
	"github.com/spf13/cobra"
)

func NewRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the assistant event loop",
		Long: `Run the interactive assistant. Each line on stdin becomes a voice
command; "/detect" triggers object detection; Ctrl-D or Ctrl-C stops after
draining pending events.`,
		RunE: makeRunRunner(a),
	}

	cmd.Flags().Bool("watch", false, "Re-index the knowledge base when its files change")
	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for knowledge re-indexing")
	return cmd
}

func makeRunRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue := internal.NewEventQueue()
		machine := internal.NewMachine(func(mode internal.Mode) {
			a.log.Debug("mode", "now", mode.String())
		})

		presenter := internal.NewPresenter(
			internal.NewTerminalDisplay(cmd.OutOrStdout()),
			a.cfg.Display,
			a.log,
		)

		store := a.openStore(ctx)
		knowledge := a.knowledgeIndex(ctx)
		embedder := a.embedder()

		controller := internal.NewController(internal.ControllerParams{
			Queue:       queue,
			Gate:        internal.NewRequestGate(),
			Machine:     machine,
			Store:       store,
			Retriever:   a.retriever(store, knowledge),
			Pipeline:    a.pipeline(ctx),
			Presenter:   presenter,
			Embedder:    embedder,
			Transcriber: internal.NoopTranscriber{},
			Synthesizer: internal.NewPrintSynthesizer(cmd.OutOrStdout()),
			Detector:    internal.StaticDetector{},
			Speech:      a.cfg.Speech,
			KnowledgeK:  a.cfg.Knowledge.TopK,
		}, a.log)

		animator := internal.NewAnimator(machine, presenter, a.cfg.Display.IdleFPS)
		go animator.Run(ctx)

		if watch && embedder != nil && knowledge != nil {
			kb := internal.NewKnowledgeBase(a.data.KnowledgePath(), embedder, knowledge, a.cfg.Knowledge, a.log)
			go func() {
				if err := kb.Watch(ctx, debounce); err != nil {
					a.log.Warn("knowledge watch stopped", "err", err)
				}
			}()
		}

		go produceFromStdin(controller, queue)

		go func() {
			<-ctx.Done()
			queue.Close()
		}()

		fmt.Fprintln(cmd.OutOrStdout(), "aura ready. Type a question, /detect to look around, Ctrl-D to quit.")
		controller.Run(ctx)
		return nil
	}
}

// produceFromStdin turns terminal input into triggers. This is the
// development stand-in for the hardware button poller and wake-word trigger.
// Lines typed while a request is in flight are dropped by Trigger, the same
// way a second wake word is ignored on device.
func produceFromStdin(controller *internal.Controller, queue *internal.EventQueue) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/detect":
			controller.Trigger(internal.ButtonPressed{ID: 1})
		case strings.HasPrefix(line, "/hold"):
			controller.Trigger(internal.ButtonHeld{ID: 1, Duration: time.Second})
		default:
			controller.Trigger(internal.VoiceCommand{Text: line})
		}
	}
	queue.Close()
}
