package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"

	"borrowck/internal/source"
)

// Format renders diagnostics into a stable, single-line-per-entry
// representation: "SEVERITY CODE path:line:col message". The same renderer
// backs golden comparisons, the idempotence guarantee and the CLI short
// format, so it must stay byte-deterministic for a given input.
func Format(diags []Diagnostic, tbl *source.Table, includeNotes bool) string {
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(formatLine(d, tbl))
		if includeNotes {
			for _, n := range d.Notes {
				b.WriteByte('\n')
				fmt.Fprintf(&b, "  note %s %s", formatSpan(n.Span, tbl), sanitizeMessage(n.Msg))
			}
		}
	}
	return b.String()
}

var (
	errLabel  = color.New(color.FgRed, color.Bold)
	warnLabel = color.New(color.FgYellow, color.Bold)
	infoLabel = color.New(color.FgCyan)
	noteLabel = color.New(color.Faint)
)

// FormatPretty renders diagnostics for terminal output, coloring severities
// and aligning the code column. Content matches Format line for line; only
// presentation differs.
func FormatPretty(w io.Writer, diags []Diagnostic, tbl *source.Table, includeNotes bool) {
	codeWidth := 0
	for _, d := range diags {
		if n := runewidth.StringWidth(d.Code.ID()); n > codeWidth {
			codeWidth = n
		}
	}
	for _, d := range diags {
		label := infoLabel
		switch d.Severity {
		case SevError:
			label = errLabel
		case SevWarning:
			label = warnLabel
		}
		fmt.Fprintf(w, "%s %s %s %s\n",
			label.Sprintf("%-7s", d.Severity),
			runewidth.FillRight(d.Code.ID(), codeWidth),
			formatSpan(d.Primary, tbl),
			sanitizeMessage(d.Message))
		if includeNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(w, "  %s %s %s\n", noteLabel.Sprint("note"), formatSpan(n.Span, tbl), sanitizeMessage(n.Msg))
			}
		}
	}
}

func formatLine(d Diagnostic, tbl *source.Table) string {
	return fmt.Sprintf("%s %s %s %s", d.Severity, d.Code.ID(), formatSpan(d.Primary, tbl), sanitizeMessage(d.Message))
}

func formatSpan(sp source.Span, tbl *source.Table) string {
	loc, ok := tbl.Resolve(sp)
	if !ok {
		return sp.String()
	}
	if loc.Line == 0 {
		return fmt.Sprintf("%s:%d-%d", loc.Path, sp.Start, sp.End)
	}
	return fmt.Sprintf("%s:%d:%d", loc.Path, loc.Line, loc.Col)
}

// sanitizeMessage collapses newlines and NFC-normalizes the text so that
// rendered output is byte-identical across runs even for messages carrying
// non-ASCII function or domain names.
func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", " ")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return norm.NFC.String(strings.TrimSpace(msg))
}
