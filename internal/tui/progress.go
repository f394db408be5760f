// internal/tui/progress.go

// Package tui shows progress for long-running model calls, as a spinner when
// attached to a terminal and as plain lines otherwise.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ReportFunc is handed to work so it can publish progress. done counts
// finished steps, label describes the step and err is non-nil when it failed.
type ReportFunc func(done int, label string, err error)

// WorkFunc performs the tracked work.
type WorkFunc func(ctx context.Context, report ReportFunc) error

// Options configures a progress display.
type Options struct {
	Title string
	Total int
	// Interactive selects the spinner view; otherwise one line per step is written.
	Interactive bool
	Out         io.Writer
}

// ProgressMsg reports one finished step.
type ProgressMsg struct {
	Done  int
	Label string
	Err   error
}

// DoneMsg is sent once the work returns.
type DoneMsg struct {
	Err error
}

type progressModel struct {
	spinner  spinner.Model
	title    string
	total    int
	done     int
	failures []string
	label    string
	finished bool
	aborted  bool
	err      error
	cancel   context.CancelFunc
}

func newProgressModel(title string, total int, cancel context.CancelFunc) progressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return progressModel{
		spinner: sp,
		title:   title,
		total:   total,
		label:   "starting...",
		cancel:  cancel,
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.aborted = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case ProgressMsg:
		m.done = msg.Done
		m.label = msg.Label
		if msg.Err != nil {
			m.failures = append(m.failures, fmt.Sprintf("%s: %v", msg.Label, msg.Err))
		}
		return m, nil
	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title) + "\n")

	switch {
	case m.aborted:
		sb.WriteString(warnStyle.Render("  interrupted") + "\n")
	case m.finished && m.err != nil:
		sb.WriteString(errorStyle.Render(fmt.Sprintf("  ✘ %v", m.err)) + "\n")
	case m.finished:
		sb.WriteString(successStyle.Render(fmt.Sprintf("  ✔ %s", m.counter())) + "\n")
	default:
		sb.WriteString(fmt.Sprintf("  %s %s %s\n", m.spinner.View(), m.counter(), dimStyle.Render(m.label)))
	}
	for _, f := range m.failures {
		sb.WriteString(errorStyle.Render("  ✘ "+f) + "\n")
	}
	return sb.String()
}

func (m progressModel) counter() string {
	if m.total > 0 {
		return fmt.Sprintf("%d/%d", m.done, m.total)
	}
	return fmt.Sprintf("%d", m.done)
}

// Run executes work while showing progress and returns work's error. In
// interactive mode pressing q or ctrl+c cancels the context passed to work.
func Run(ctx context.Context, opts Options, work WorkFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !opts.Interactive {
		return runPlain(ctx, opts, work)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	p := tea.NewProgram(newProgressModel(opts.Title, opts.Total, cancel), tea.WithOutput(out), tea.WithContext(ctx))
	errCh := make(chan error, 1)
	go func() {
		err := work(ctx, func(done int, label string, err error) {
			p.Send(ProgressMsg{Done: done, Label: label, Err: err})
		})
		p.Send(DoneMsg{Err: err})
		errCh <- err
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		cancel()
		<-errCh
		return fmt.Errorf("progress display: %w", err)
	}
	return <-errCh
}

func runPlain(ctx context.Context, opts Options, work WorkFunc) error {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintln(out, opts.Title)
	return work(ctx, func(done int, label string, err error) {
		counter := fmt.Sprintf("%d", done)
		if opts.Total > 0 {
			counter = fmt.Sprintf("%d/%d", done, opts.Total)
		}
		if err != nil {
			fmt.Fprintf(out, "  [%s] %s failed: %v\n", counter, label, err)
			return
		}
		fmt.Fprintf(out, "  [%s] %s\n", counter, label)
	})
}
