// Package progress shows a spinner on stderr while a one-shot command waits
// for the catalog.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
)

type labelMsg string

// Spinner is a non-interactive spinner. A nil *Spinner is valid and does
// nothing, which lets callers skip it when stderr is not a terminal.
type Spinner struct {
	out io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	label   string
}

type spinnerModel struct {
	spinner spinner.Model
	label   string
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case labelMsg:
		m.label = string(msg)
		return m, nil
	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() tea.View {
	if m.label == "" {
		return tea.NewView("")
	}
	return tea.NewView(fmt.Sprintf("%s %s", m.spinner.View(), m.label))
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, label string) *Spinner {
	return &Spinner{out: out, label: label}
}

// Start begins the animation. Starting twice is a no-op.
func (s *Spinner) Start() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program != nil {
		return
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	s.program = tea.NewProgram(spinnerModel{spinner: sp, label: s.label},
		tea.WithoutSignalHandler(),
		tea.WithInput(nil),
		tea.WithOutput(s.out),
	)
	s.done = make(chan struct{})
	go func() {
		_, _ = s.program.Run()
		close(s.done)
	}()
}

// SetLabel changes the text next to the spinner.
func (s *Spinner) SetLabel(label string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	p := s.program
	s.label = label
	s.mu.Unlock()
	if p != nil {
		// Send must not block a loader callback
		go p.Send(labelMsg(label))
	}
}

// Stop ends the animation and clears its line.
func (s *Spinner) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	p, done := s.program, s.done
	s.program = nil
	s.mu.Unlock()
	if p == nil {
		return
	}

	p.Quit()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
	}
	fmt.Fprint(s.out, "\r\033[K")
}
