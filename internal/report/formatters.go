package report

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func resultTable(r *Run) table.Writer {
	t := table.NewWriter()
	stats := r.Stats()
	t.SetTitle(fmt.Sprintf("EzyScribe E2E Results (%s, %d passed, %d failed, %d flaky)",
		formatDuration(r.Duration), stats.Passed, stats.Failed, stats.Flaky))
	t.AppendHeader(table.Row{"Suite", "Project", "ID", "Name", "Attempts", "Duration", "Status", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Suite", AutoMerge: true},
		{Name: "Project", AutoMerge: true},
		{Name: "Name", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Attempts", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Error", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})
	for _, res := range r.Snapshot() {
		t.AppendRow(table.Row{
			res.Suite, res.Project, res.ID, res.Name, res.Attempts,
			formatDuration(res.Duration), statusString(res.Status), res.Error,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", stats.Total, formatDuration(r.Duration), "", ""})
	return t
}

func statusString(s Status) string {
	switch s {
	case StatusPassed:
		return "✓ pass"
	case StatusFailed:
		return "✗ fail"
	case StatusFlaky:
		return "~ flaky"
	case StatusSkipped:
		return "- skip"
	}
	return string(s)
}

// WriteTable renders the console summary table
func WriteTable(w io.Writer, r *Run) {
	t := resultTable(r)
	if r.Failed() {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}
	t.SetOutputMirror(w)
	t.Render()
}

// WriteHTML stores a standalone HTML report at path
func WriteHTML(path string, r *Run) error {
	t := resultTable(r)
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>EzyScribe E2E run %s</title>\n", html.EscapeString(r.ID))
	b.WriteString("<style>body{font-family:sans-serif}table{border-collapse:collapse}" +
		"td,th{border:1px solid #ccc;padding:4px 8px}</style>\n</head>\n<body>\n")
	b.WriteString(t.RenderHTML())
	b.WriteString("\n</body>\n</html>\n")
	return writeFile(path, []byte(b.String()))
}

// WriteGitHub emits GitHub Actions workflow commands: one annotation per failed or flaky
// scenario plus a notice with the totals.
func WriteGitHub(w io.Writer, r *Run) {
	for _, res := range r.Snapshot() {
		title := fmt.Sprintf("[%s] %s", res.Project, res.Name)
		switch res.Status {
		case StatusFailed:
			fmt.Fprintf(w, "::error title=%s::%s\n", escapeProperty(title), escapeData(res.Error))
		case StatusFlaky:
			fmt.Fprintf(w, "::warning title=%s::%s\n", escapeProperty(title),
				escapeData(fmt.Sprintf("passed after %d attempts", res.Attempts)))
		}
	}
	s := r.Stats()
	fmt.Fprintf(w, "::notice title=EzyScribe E2E::%s\n", escapeData(fmt.Sprintf(
		"%d passed, %d failed, %d flaky, %d skipped in %s", s.Passed, s.Failed, s.Flaky, s.Skipped, formatDuration(r.Duration))))
}

func escapeData(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}

func escapeProperty(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C").Replace(s)
}
