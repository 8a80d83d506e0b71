// Package picker is the interactive launcher: a query input over a live
// result list. Results, loader progress and errors reach the model as
// messages sent through a Bridge, so the loader and the search engine never
// touch bubbletea state directly.
package picker

import (
	"context"
	"fmt"
	"os"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/loader"
	"github.com/raphi011/appcat/internal/ui/styles"
)

// DefaultHeight is the number of result rows shown.
const DefaultHeight = 10

type (
	resultsMsg   []catalog.Entry
	snapshotMsg  loader.Stage
	noEntriesMsg struct{}
	errorMsg     struct{ err error }
)

// Model is the bubbletea model of the picker.
type Model struct {
	input     textinput.Model
	onQuery   func(string)
	results   []catalog.Entry
	cursor    int
	height    int
	stage     loader.Stage
	empty     bool
	err       error
	selected  *catalog.Entry
	cancelled bool
}

// New creates a picker. onQuery receives the query text every time it
// changes and whenever the catalog changes underneath it.
func New(onQuery func(string), height int) *Model {
	if height <= 0 {
		height = DefaultHeight
	}

	ti := textinput.New()
	ti.Placeholder = "Search applications, contacts or 2+2..."
	ti.Prompt = "> "
	ti.CharLimit = 200
	ti.SetWidth(50)
	s := ti.Styles()
	s.Cursor.Shape = tea.CursorBar
	s.Cursor.Blink = true
	ti.SetStyles(s)
	ti.Focus()

	return &Model{
		input:   ti,
		onQuery: onQuery,
		height:  height,
	}
}

// Selected returns the chosen entry; false if the picker was cancelled.
func (m *Model) Selected() (catalog.Entry, bool) {
	if m.selected == nil {
		return catalog.Entry{}, false
	}
	return *m.selected, true
}

func (m *Model) query() tea.Cmd {
	q := m.input.Value()
	return func() tea.Msg {
		m.onQuery(q)
		return nil
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.query())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			if m.cursor < len(m.results) {
				e := m.results[m.cursor]
				m.selected = &e
			}
			return m, tea.Quit

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n", "tab":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil
		}

	case resultsMsg:
		m.results = msg
		m.cursor = min(m.cursor, max(0, len(m.results)-1))
		return m, nil

	case snapshotMsg:
		m.stage = loader.Stage(msg)
		m.empty = false
		m.err = nil
		// The engine already holds the new catalog; rerun the query on it
		return m, m.query()

	case noEntriesMsg:
		m.empty = true
		return m, nil

	case errorMsg:
		m.err = msg.err
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.cursor = 0
		return m, tea.Batch(cmd, m.query())
	}
	return m, cmd
}

func (m *Model) View() tea.View {
	var sb strings.Builder

	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")

	start, end := window(m.cursor, len(m.results), m.height)
	for i := start; i < end; i++ {
		e := m.results[i]
		line := fmt.Sprintf("%s %s", styles.KindSymbol(e.Kind), e.DisplayLabel())
		if i == m.cursor {
			sb.WriteString(styles.AccentStyle.Render("> " + line))
		} else {
			sb.WriteString("  " + styles.NormalStyle.Render(line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.status())
	sb.WriteString("\n")
	sb.WriteString(styles.MutedStyle.Render("↑/↓ navigate • enter launch • esc cancel"))

	return tea.NewView(sb.String())
}

func (m *Model) status() string {
	switch {
	case m.err != nil:
		return styles.ErrorStyle.Render("Error: " + m.err.Error())
	case m.empty:
		return styles.MutedStyle.Render("No applications found")
	case m.stage == 0:
		return styles.InfoStyle.Render("Loading applications...")
	case m.stage != loader.StageLiveRefined:
		return styles.InfoStyle.Render(fmt.Sprintf("%d results (%s)", len(m.results), m.stage))
	}
	return styles.MutedStyle.Render(fmt.Sprintf("%d results", len(m.results)))
}

// window returns the visible range of n rows of which at most height are
// shown, keeping cursor roughly centered.
func window(cursor, n, height int) (int, int) {
	if n <= height {
		return 0, n
	}
	start := max(0, cursor-height/2)
	end := start + height
	if end > n {
		end = n
		start = end - height
	}
	return start, end
}

// Run shows the picker on stderr until an entry is chosen or the picker is
// cancelled. start is called once the bridge is attached and should kick
// off loading.
func Run(ctx context.Context, m *Model, b *Bridge, start func()) (catalog.Entry, bool, error) {
	// stdout stays free for piping
	profile := colorprofile.Detect(os.Stderr, os.Environ())
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithOutput(os.Stderr),
		tea.WithColorProfile(profile),
	)
	b.Attach(p.Send)
	start()

	final, err := p.Run()
	b.Detach()
	if err != nil {
		return catalog.Entry{}, false, err
	}
	e, ok := final.(*Model).Selected()
	return e, ok, nil
}
