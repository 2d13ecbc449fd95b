package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/ipsix/logagg/internal/scanner"
)

type styles struct {
	labels map[scanner.Severity]lipgloss.Style
	header lipgloss.Style
	plain  bool
}

func newStyles(w io.Writer, color bool) styles {
	if !color {
		return styles{plain: true}
	}
	r := lipgloss.NewRenderer(w, termenv.WithProfile(termenv.ANSI256))
	r.SetColorProfile(termenv.ANSI256)
	return styles{
		labels: map[scanner.Severity]lipgloss.Style{
			scanner.SeverityError:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
			scanner.SeverityWarning: r.NewStyle().Foreground(lipgloss.Color("220")),
			scanner.SeverityInfo:    r.NewStyle().Foreground(lipgloss.Color("39")),
		},
		header: r.NewStyle().Bold(true),
	}
}

func (s styles) label(sev scanner.Severity, text string) string {
	if s.plain {
		return text
	}
	return s.labels[sev].Render(text)
}

func (s styles) heading(text string) string {
	if s.plain {
		return text
	}
	return s.header.Render(text)
}

// WriteText renders the report for a terminal. Colour is only applied to
// labels so the counts stay easy to grep.
func WriteText(w io.Writer, r Report, color bool) error {
	st := newStyles(w, color)
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %d\n", st.heading("Total entries"), r.TotalEntries)
	for _, sc := range r.Severities {
		fmt.Fprintf(&b, "%s: %d\n", st.label(sc.Severity, sc.Label), sc.Count)
	}

	fmt.Fprintf(&b, "\n%s\n", st.heading("Top errors:"))
	for _, ec := range r.TopErrors {
		fmt.Fprintf(&b, "- \"%s\" (%d occurrences)\n", ec.Key, ec.Count)
	}

	if len(r.Content) > 0 {
		b.WriteByte('\n')
		for _, line := range r.Content {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	fmt.Fprintf(&b, "\n%s %s\n", st.heading("Files processed:"), strings.Join(r.Files, ", "))

	_, err := io.WriteString(w, b.String())
	return err
}

func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteFailures prints one line per file that could not be scanned.
func WriteFailures(w io.Writer, failures []*scanner.FileError) error {
	for _, ferr := range failures {
		if ferr == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "error: %s\n", ferr.Error()); err != nil {
			return err
		}
	}
	return nil
}
