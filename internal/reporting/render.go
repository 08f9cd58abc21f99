package reporting

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// numberPrinter formats numbers with locale grouping.
var numberPrinter = message.NewPrinter(language.English)

var tableHeader = []string{"#", "Model", "Base", "Ability", "Score", "Benchmarks", "Cost"}

func row(e Entry) []string {
	cost := "-"
	if e.Cost != nil {
		cost = numberPrinter.Sprintf("%.3f", *e.Cost)
	}
	return []string{
		fmt.Sprintf("%d", e.Rank),
		e.Model,
		e.Base,
		fmt.Sprintf("%+.3f", e.Ability),
		fmt.Sprintf("%.1f", e.Score),
		numberPrinter.Sprintf("%d", e.Benchmarks),
		cost,
	}
}

// Markdown renders the leaderboard as a GitHub-flavored markdown table.
func Markdown(title string, entries []Entry) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	b.WriteString("| " + strings.Join(tableHeader, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(tableHeader)) + "\n")
	for _, e := range entries {
		cells := row(e)
		for i, c := range cells {
			cells[i] = strings.ReplaceAll(c, "|", "\\|")
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	if len(entries) == 0 {
		b.WriteString("\n_No models meet the benchmark threshold._\n")
	}
	return b.String()
}

// HTML renders markdown to a standalone HTML page.
func HTML(title, markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// WriteTable prints the leaderboard as an aligned terminal table.
func WriteTable(w io.Writer, entries []Entry) {
	rows := [][]string{tableHeader}
	for _, e := range entries {
		rows = append(rows, row(e))
	}

	widths := make([]int, len(tableHeader))
	for _, r := range rows {
		for i, c := range r {
			if cw := runewidth.StringWidth(c); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	for n, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = padRight(c, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")) //nolint:errcheck
		if n == 0 {
			total := 0
			for _, wd := range widths {
				total += wd
			}
			fmt.Fprintln(w, strings.Repeat("─", total+2*(len(widths)-1))) //nolint:errcheck
		}
	}
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// WriteFactorsTable prints cost factors per benchmark, "-" where undefined.
func WriteFactorsTable(w io.Writer, factors map[string]*float64) {
	names := make([]string, 0, len(factors))
	width := len("Benchmark")
	for n := range factors {
		names = append(names, n)
		width = max(width, runewidth.StringWidth(n))
	}
	sort.Strings(names)

	fmt.Fprintf(w, "%s  %s\n", padRight("Benchmark", width), "Factor") //nolint:errcheck
	for _, n := range names {
		f := "-"
		if factors[n] != nil {
			f = fmt.Sprintf("%.6g", *factors[n])
		}
		fmt.Fprintf(w, "%s  %s\n", padRight(n, width), f) //nolint:errcheck
	}
}
