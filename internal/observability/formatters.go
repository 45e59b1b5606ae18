// Package observability provides logging, metrics and the formatted output
// used by the CLI in verbose mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/cv-assistant/internal/diff"
	"github.com/jonathan/cv-assistant/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Long lines are
// wrapped on word boundaries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, part := range wrap(line, boxWidth-4) {
			fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, part)
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrap splits line into chunks of at most width runes
func wrap(line string, width int) []string {
	if len([]rune(line)) <= width {
		return []string{line}
	}
	var out []string
	var cur []rune
	for _, word := range strings.Fields(line) {
		w := []rune(word)
		for len(w) > width {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			out = append(out, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(cur) == 0:
			cur = w
		case len(cur)+1+len(w) <= width:
			cur = append(append(cur, ' '), w...)
		default:
			out = append(out, string(cur))
			cur = w
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintRewrite outputs an accepted rewrite with its word diff. Deleted words
// are shown as [-word-] and inserted words as {+word+}.
func (p *Printer) PrintRewrite(res *types.RewriteResult, parts []diff.Part) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Before: %s\n", res.Before))
	sb.WriteString(fmt.Sprintf("After:  %s\n", res.After))
	if res.Rationale != "" {
		sb.WriteString(fmt.Sprintf("Why:    %s\n", res.Rationale))
	}

	if len(parts) > 0 {
		sb.WriteString("\n")
		for _, part := range parts {
			switch part.Type {
			case diff.Delete:
				sb.WriteString("[-" + part.Text + "-]")
			case diff.Insert:
				sb.WriteString("{+" + part.Text + "+}")
			default:
				sb.WriteString(part.Text)
			}
		}
		sb.WriteString("\n")
	}

	p.printBox("REWRITTEN BULLET", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRejection outputs why a rewrite was not accepted.
func (p *Printer) PrintRejection(before, reason, message string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚠ %s (%s)\n", message, reason))
	sb.WriteString(fmt.Sprintf("  %s", truncate(before, 50)))
	p.printBox("REWRITE REJECTED", sb.String())
}

// PrintScore outputs ATS and role-fit scores with the top fix hints.
func (p *Printer) PrintScore(score *types.ScoreResult) {
	if score == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ATS score:      %d/100\n", score.ATSScore))
	sb.WriteString(fmt.Sprintf("Role fit score: %d/100\n", score.RoleFitScore))

	if len(score.Issues) > 0 {
		sb.WriteString("\nIssues:\n")
		count := min(len(score.Issues), maxItemsToShow)
		for i := 0; i < count; i++ {
			issue := score.Issues[i]
			if issue.Path != "" {
				sb.WriteString(fmt.Sprintf("  • %s: %s\n", issue.Path, issue.Message))
			} else {
				sb.WriteString(fmt.Sprintf("  • %s\n", issue.Message))
			}
		}
		if len(score.Issues) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(score.Issues)-maxItemsToShow))
		}
	}

	if len(score.FixHints) > 0 {
		sb.WriteString("\nFix hints:\n")
		count := min(len(score.FixHints), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", truncate(score.FixHints[i], 50)))
		}
		if len(score.FixHints) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(score.FixHints)-3))
		}
	}

	p.printBox("CV SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintGaps outputs the content gaps found in a CV.
func (p *Printer) PrintGaps(gaps *types.GapsResult) {
	if gaps == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d gaps:\n\n", len(gaps.Gaps)))
	count := min(len(gaps.Gaps), maxItemsToShow)
	for i := 0; i < count; i++ {
		g := gaps.Gaps[i]
		sb.WriteString(fmt.Sprintf("• %s", g.Path))
		if g.Severity != "" {
			sb.WriteString(fmt.Sprintf(" [%s]", g.Severity))
		}
		sb.WriteString(fmt.Sprintf("\n  %s\n", truncate(g.Message, 50)))
	}
	if len(gaps.Gaps) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more gaps\n", len(gaps.Gaps)-maxItemsToShow))
	}
	if len(gaps.MissingKeywords) > 0 {
		sb.WriteString("\nMissing keywords: " + strings.Join(gaps.MissingKeywords, ", "))
	}

	p.printBox("CONTENT GAPS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidation outputs the result of validating a document. details is
// empty when the document is valid.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintValidation(name string, details []string) {
	if len(details) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ "+name+" is valid")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d problems:\n\n", len(details)))
	for i, d := range details {
		sb.WriteString(fmt.Sprintf("⚠ %s", d))
		if i < len(details)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("VALIDATION FAILED: "+name, sb.String())
}
