// Package spinner shows a terminal spinner while a blocking call runs.
package spinner

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrInterrupted is returned when the user presses Ctrl+C before the work
// finishes and the work itself reported no error.
var ErrInterrupted = errors.New("interrupted")

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

type doneMsg struct{ err error }

type model struct {
	spinner     spinner.Model
	title       string
	done        bool
	interrupted bool
}

func newModel(title string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return model{spinner: sp, title: title}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.done || m.interrupted {
		return ""
	}
	return m.spinner.View() + " " + titleStyle.Render(m.title) + "\n"
}

// Options controls where and whether the spinner is drawn.
type Options struct {
	// Output defaults to os.Stderr.
	Output io.Writer
	// Disabled runs fn without drawing anything.
	Disabled bool
	// Input is read for Ctrl+C. Nil disables keyboard handling.
	Input io.Reader
}

// Run calls fn and draws a spinner titled title until it returns. The
// context passed to fn is canceled if the user interrupts.
func Run(ctx context.Context, title string, opts Options, fn func(context.Context) error) error {
	if opts.Disabled {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	programOpts := []tea.ProgramOption{tea.WithOutput(out), tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	} else {
		programOpts = append(programOpts, tea.WithInput(nil))
	}
	p := tea.NewProgram(newModel(title), programOpts...)

	errc := make(chan error, 1)
	go func() {
		err := fn(ctx)
		errc <- err
		p.Send(doneMsg{err: err})
	}()

	final, runErr := p.Run()
	if m, ok := final.(model); ok && m.interrupted {
		cancel()
		if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return ErrInterrupted
	}
	if runErr != nil {
		cancel()
		if err := <-errc; err != nil {
			return err
		}
		return runErr
	}
	return <-errc
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
