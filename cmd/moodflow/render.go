package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/moodflow/backend/internal/controller"
	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			PaddingLeft(2)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Italic(true).
			PaddingLeft(6)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// lockedWriter serialises writes from the prompt loop and notification callbacks.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func renderMoodPrompt(w io.Writer, moods []session.Mood) {
	fmt.Fprintln(w, headerStyle.Render("How are you feeling today?"))
	for i, mood := range moods {
		fmt.Fprintf(w, "  %d) %s\n", i+1, mood)
	}
	fmt.Fprintln(w, hintStyle.Render("Type a mood or its number, or q to quit."))
}

func renderStep(w io.Writer, snap controller.Snapshot) {
	mood := ""
	if snap.Mood != nil {
		mood = string(*snap.Mood)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Step %d of %d · %s", snap.Step, session.StepLast, mood)))
	renderMessages(w, snap.Messages)
	fmt.Fprintln(w, hintStyle.Render("[n]ext  [b]ack  [c]omplete  [l]og  [r]estart  [q]uit"))
}

func renderMessages(w io.Writer, msgs []*schema.Message) {
	for _, msg := range msgs {
		for _, line := range strings.Split(msg.Content, "\n") {
			if msg.Role == schema.User {
				fmt.Fprintln(w, userStyle.Render("› "+line))
			} else {
				fmt.Fprintln(w, systemStyle.Render(line))
			}
		}
	}
}

func renderNotification(w io.Writer, n controller.Notification) {
	switch n.Kind {
	case controller.KindSuccess:
		fmt.Fprintln(w, successStyle.Render("✓ "+n.Text))
	case controller.KindError:
		fmt.Fprintln(w, errorStyle.Render("✗ "+n.Text))
	default:
		fmt.Fprintln(w, hintStyle.Render(n.Text))
	}
}

func renderSessionTable(w io.Writer, sessions []session.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, headerStyle.Render("No sessions found"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Found %d session(s)", len(sessions))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("Mood")+"\t"+titleStyle.Render("Step")+"\t"+titleStyle.Render("Completed")+"\t"+titleStyle.Render("Updated")+"\t")
	for _, s := range sessions {
		step := "—"
		if s.Step != nil {
			step = fmt.Sprintf("%d", *s.Step)
		}
		done := "no"
		if s.Completed {
			done = successStyle.Render("yes")
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", s.ID, s.Mood, step, done, dateStyle.Render(formatTime(s.TimestampUpdated)))
	}
	_ = tw.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	local := t.Local()
	if time.Since(local) < 24*time.Hour {
		return local.Format("Today 15:04")
	}
	return local.Format("2006-01-02 15:04")
}
