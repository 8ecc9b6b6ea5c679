package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	moodanalysis "github.com/zhouzirui/moodflow/backend/internal/analysis/mood"
	"github.com/zhouzirui/moodflow/backend/internal/controller"
	"github.com/zhouzirui/moodflow/backend/internal/model/content"
	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

var (
	chatDelay        time.Duration
	chatMood         string
	chatFlushTimeout time.Duration
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a guided mood session",
	Long: `Start an interactive guided session. Pick a mood, step through the
scripted guidance, and complete the session to record it.

Navigation never waits for the API; if the server is unreachable the
session continues locally and an error is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, cfg, err := newAPIClient()
		if err != nil {
			return err
		}

		delay := cfg.CompleteDelay
		if cmd.Flags().Changed("delay") {
			delay = chatDelay
		}

		out := &lockedWriter{w: cmd.OutOrStdout()}
		board := controller.NewStatusBoard(controller.WithListener(func(n controller.Notification) {
			renderNotification(out, n)
		}))

		contents := content.NewMemoryStore(content.Seed())
		ctrl := controller.New(api, contents,
			controller.WithNotifier(board),
			controller.WithLogger(logger),
			controller.WithCompleteDelay(delay))

		w := &wizard{ctrl: ctrl, moods: contents.Moods(), out: out}
		if chatMood != "" {
			mood, err := session.ParseMood(chatMood)
			if err != nil {
				return err
			}
			if err := ctrl.SelectMood(mood); err != nil {
				return err
			}
		}

		runErr := w.run(cmd.Context(), cmd.InOrStdin())

		// Let in-flight updates reach the server before exiting.
		flushCtx, cancel := context.WithTimeout(context.Background(), chatFlushTimeout)
		defer cancel()
		if err := ctrl.Wait(flushCtx); err != nil {
			logger.Warn("pending session updates did not finish", zap.Error(err))
		}
		return runErr
	},
}

type wizard struct {
	ctrl  *controller.Controller
	moods []session.Mood
	out   io.Writer
}

// run reads one command per line until quit or end of input.
func (w *wizard) run(ctx context.Context, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}
	scanner := bufio.NewScanner(in)
	w.render()

	for scanner.Scan() {
		input := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if input == "" {
			continue
		}
		if input == "q" || input == "quit" {
			fmt.Fprintln(w.out, hintStyle.Render("Goodbye."))
			return nil
		}

		if w.ctrl.State().Phase == controller.PhaseIdle {
			w.handleMood(input)
		} else if err := w.handleStep(ctx, input); err != nil {
			return err
		}
		w.render()
	}
	return scanner.Err()
}

func (w *wizard) render() {
	snap := w.ctrl.State()
	if snap.Phase == controller.PhaseIdle {
		fmt.Fprintln(w.out)
		renderMoodPrompt(w.out, w.moods)
		return
	}
	renderStep(w.out, snap)
}

func (w *wizard) handleMood(input string) {
	mood, err := session.ParseMood(input)
	if err != nil {
		if n, convErr := strconv.Atoi(input); convErr == nil && n >= 1 && n <= len(w.moods) {
			mood = w.moods[n-1]
		} else if decision := moodanalysis.Infer(input); decision.OK() {
			mood = decision.Mood
			fmt.Fprintln(w.out, hintStyle.Render("Sounds like you're feeling "+string(mood)+"."))
		} else {
			fmt.Fprintln(w.out, errorStyle.Render("Unknown mood "+strconv.Quote(input)))
			return
		}
	}
	if err := w.ctrl.SelectMood(mood); err != nil {
		fmt.Fprintln(w.out, errorStyle.Render(err.Error()))
	}
}

func (w *wizard) handleStep(ctx context.Context, input string) error {
	switch input {
	case "n", "next":
		if errors.Is(w.ctrl.Advance(), controller.ErrInvalidTransition) {
			fmt.Fprintln(w.out, hintStyle.Render("This is the last step. Type c to complete."))
		}
	case "b", "back":
		if errors.Is(w.ctrl.Retreat(), controller.ErrInvalidTransition) {
			fmt.Fprintln(w.out, hintStyle.Render("This is the first step."))
		}
	case "c", "complete":
		reset, err := w.ctrl.Complete()
		if err != nil {
			if errors.Is(err, controller.ErrNoSession) {
				fmt.Fprintln(w.out, errorStyle.Render("The session has not been recorded yet. Try again in a moment or type r to restart."))
			}
			return nil
		}
		// Wait for the automatic return to mood selection, not for the server.
		select {
		case <-reset:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	case "l", "log":
		_ = w.ctrl.LogSession()
	case "r", "restart":
		w.ctrl.Restart()
	default:
		fmt.Fprintln(w.out, errorStyle.Render("Unknown command "+strconv.Quote(input)))
	}
	return nil
}

func init() {
	chatCmd.Flags().DurationVar(&chatDelay, "delay", controller.DefaultCompleteDelay, "Pause before returning to mood selection after completing")
	chatCmd.Flags().StringVarP(&chatMood, "mood", "m", "", "Start immediately with this mood")
	chatCmd.Flags().DurationVar(&chatFlushTimeout, "flush-timeout", 5*time.Second, "How long to wait for pending session updates on exit")
	rootCmd.AddCommand(chatCmd)
}
