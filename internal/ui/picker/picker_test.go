package picker

import (
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/loader"
)

func results() []catalog.Entry {
	return []catalog.Entry{
		{ID: "firefox.desktop", Kind: catalog.KindApp, Label: "Firefox"},
		{ID: "files.desktop", Kind: catalog.KindApp, Label: "Files"},
		{ID: "web:f", Kind: catalog.KindWebSearch, Label: `Search the web for "f"`, Payload: "f"},
	}
}

func key(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestModel_Navigation(t *testing.T) {
	t.Parallel()

	m := New(func(string) {}, 5)
	m.Update(resultsMsg(results()))

	m.Update(key(tea.KeyDown))
	m.Update(key(tea.KeyDown))
	m.Update(key(tea.KeyDown)) // clamped at the last row
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
	m.Update(key(tea.KeyUp))

	_, cmd := m.Update(key(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("enter should quit")
	}
	e, ok := m.Selected()
	if !ok || e.ID != "files.desktop" {
		t.Errorf("Selected() = %v, %v; want files.desktop", e.ID, ok)
	}
}

func TestModel_Cancel(t *testing.T) {
	t.Parallel()

	m := New(func(string) {}, 5)
	m.Update(resultsMsg(results()))
	m.Update(key(tea.KeyEscape))

	if !m.cancelled {
		t.Error("esc did not cancel")
	}
	if _, ok := m.Selected(); ok {
		t.Error("cancelled picker has a selection")
	}
}

func TestModel_ResultsClampCursor(t *testing.T) {
	t.Parallel()

	m := New(func(string) {}, 5)
	m.Update(resultsMsg(results()))
	m.cursor = 2
	m.Update(resultsMsg(results()[:1]))
	if m.cursor != 0 {
		t.Errorf("cursor = %d after shorter results, want 0", m.cursor)
	}
}

func TestModel_SnapshotRequeries(t *testing.T) {
	t.Parallel()

	var queries []string
	m := New(func(q string) { queries = append(queries, q) }, 5)
	m.input.SetValue("fi")

	_, cmd := m.Update(snapshotMsg(loader.StageLiveFast))
	if cmd == nil {
		t.Fatal("snapshot should rerun the query")
	}
	cmd()
	if len(queries) != 1 || queries[0] != "fi" {
		t.Errorf("queries = %q, want [fi]", queries)
	}
	if m.stage != loader.StageLiveFast {
		t.Errorf("stage = %v", m.stage)
	}
}

func TestModel_Typing(t *testing.T) {
	t.Parallel()

	m := New(func(string) {}, 5)
	m.cursor = 1
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'g', Text: "g"})
	if m.input.Value() != "g" {
		t.Fatalf("input = %q, want g", m.input.Value())
	}
	if cmd == nil {
		t.Error("typing should schedule a query")
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d after typing, want 0", m.cursor)
	}
}

func TestModel_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msgs []tea.Msg
		want string
	}{
		{"loading", nil, "Loading applications"},
		{"empty", []tea.Msg{snapshotMsg(loader.StageLiveFast), noEntriesMsg{}}, "No applications found"},
		{"error", []tea.Msg{errorMsg{errors.New("boom")}}, "Error: boom"},
		{"refined", []tea.Msg{snapshotMsg(loader.StageLiveRefined), resultsMsg(results())}, "3 results"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := New(func(string) {}, 5)
			for _, msg := range tt.msgs {
				m.Update(msg)
			}
			if got := m.View().Content; !strings.Contains(got, tt.want) {
				t.Errorf("view does not contain %q:\n%s", tt.want, got)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cursor, n, height int
		start, end        int
	}{
		{0, 3, 10, 0, 3},
		{0, 20, 10, 0, 10},
		{12, 20, 10, 7, 17},
		{19, 20, 10, 10, 20},
	}
	for _, tt := range tests {
		start, end := window(tt.cursor, tt.n, tt.height)
		if start != tt.start || end != tt.end {
			t.Errorf("window(%d, %d, %d) = %d, %d; want %d, %d",
				tt.cursor, tt.n, tt.height, start, end, tt.start, tt.end)
		}
	}
}

func TestBridge(t *testing.T) {
	t.Parallel()

	b := NewBridge()
	// Dropped before Attach
	b.ShowNoEntries()

	var got []tea.Msg
	b.Attach(func(msg tea.Msg) { got = append(got, msg) })

	b.Results(results())
	if b.VisibleLen() != 2 {
		t.Errorf("VisibleLen() = %d, want 2 app rows", b.VisibleLen())
	}
	b.ShowError(errors.New("x"))
	b.OnInit(loader.Snapshot{Stage: loader.StageStaleCache})

	b.Detach()
	b.ShowNoEntries()

	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	if _, ok := got[0].(resultsMsg); !ok {
		t.Errorf("msg 0 = %T", got[0])
	}
	if s, ok := got[2].(snapshotMsg); !ok || loader.Stage(s) != loader.StageStaleCache {
		t.Errorf("msg 2 = %#v", got[2])
	}
}
