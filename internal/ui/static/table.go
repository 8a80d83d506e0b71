// Package static renders non-interactive output: the entry, history and
// cache status tables printed by the appcat commands.
package static

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/history"
	"github.com/raphi011/appcat/internal/ui/styles"
)

// Table headers
var (
	EntryHeaders   = []string{"", "NAME", "ID"}
	HistoryHeaders = []string{"NAME", "ID", "LAUNCHES", "LAST"}
)

// RenderTable creates a borderless table with aligned columns. Returns ""
// without rows.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	return t.String() + "\n"
}

// EntryTableRow returns the cells of e for EntryHeaders. Unresolved labels
// show the id dimmed; synthetic entries show their payload in the id column.
func EntryTableRow(e catalog.Entry) []string {
	name := e.Label
	if name == "" {
		name = styles.MutedStyle.Render(e.ID)
	}
	id := e.ID
	if e.Kind.Synthetic() {
		id = styles.MutedStyle.Render(e.Kind.String())
	}
	return []string{styles.KindSymbol(e.Kind), name, id}
}

// EntryTable renders entries as a table.
func EntryTable(entries []catalog.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = EntryTableRow(e)
	}
	return RenderTable(EntryHeaders, rows)
}

// HistoryTableRow returns the cells of e for HistoryHeaders.
func HistoryTableRow(e history.Entry, now time.Time) []string {
	name := e.Label
	if name == "" {
		name = e.ID
	}
	return []string{name, e.ID, fmt.Sprint(e.Count), FormatAge(now.Sub(e.LastLaunched))}
}

// FormatAge renders d as a short "ago" string.
func FormatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// KeyValues renders pairs as aligned "key  value" lines.
func KeyValues(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0]))
	}
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "%s  %s\n", styles.Bold.Render(fmt.Sprintf("%-*s", width, p[0])), p[1])
	}
	return b.String()
}
