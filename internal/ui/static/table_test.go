package static

import (
	"strings"
	"testing"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/history"
)

func TestEntryTableRow(t *testing.T) {
	t.Parallel()

	row := EntryTableRow(catalog.Entry{ID: "firefox.desktop", Kind: catalog.KindApp, Label: "Firefox"})
	if len(row) != len(EntryHeaders) {
		t.Fatalf("expected %d columns, got %d", len(EntryHeaders), len(row))
	}
	if row[1] != "Firefox" || row[2] != "firefox.desktop" {
		t.Errorf("row = %q", row)
	}
}

func TestEntryTableRow_Unresolved(t *testing.T) {
	t.Parallel()

	row := EntryTableRow(catalog.Entry{ID: "gimp.desktop", Kind: catalog.KindApp})
	if got := lipgloss.Width(row[1]); got != len("gimp.desktop") {
		t.Errorf("NAME width = %d, want the id", got)
	}
	if !strings.Contains(row[1], "gimp.desktop") {
		t.Errorf("NAME = %q, want the id as fallback", row[1])
	}
}

func TestEntryTableRow_Synthetic(t *testing.T) {
	t.Parallel()

	row := EntryTableRow(catalog.Entry{ID: "web:cats", Kind: catalog.KindWebSearch, Label: `Search the web for "cats"`, Payload: "cats"})
	if !strings.Contains(row[2], "web") {
		t.Errorf("ID column = %q, want the kind", row[2])
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	if got := RenderTable(EntryHeaders, nil); got != "" {
		t.Errorf("RenderTable without rows = %q, want empty", got)
	}

	out := RenderTable([]string{"A", "B"}, [][]string{{"x", "long value"}, {"yy", "z"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), out)
	}
	// Columns are aligned
	if strings.Index(lines[1], "long value") != strings.Index(lines[2], "z") {
		t.Errorf("columns not aligned:\n%s", out)
	}
}

func TestHistoryTableRow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := HistoryTableRow(history.Entry{ID: "code.desktop", Count: 3, LastLaunched: now.Add(-2 * time.Hour)}, now)
	want := []string{"code.desktop", "code.desktop", "3", "2h ago"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, row[i], want[i])
		}
	}
}

func TestFormatAge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{-time.Minute, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		if got := FormatAge(tt.d); got != tt.want {
			t.Errorf("FormatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestKeyValues(t *testing.T) {
	t.Parallel()

	out := KeyValues([][2]string{{"fresh", "yes"}, {"entries", "12"}})
	if lipgloss.Width(strings.Split(out, "\n")[0]) != len("entries  yes") {
		t.Errorf("keys not padded:\n%s", out)
	}
}
