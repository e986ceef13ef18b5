package spotcheck

import (
	"fmt"
	"html"
	"html/template"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/sells-group/project1899/internal/anachronism"
	"github.com/sells-group/project1899/internal/model"
)

const highlightColor = "#ffcccc"

var termHighlight = lipgloss.NewStyle().
	Background(lipgloss.Color(highlightColor)).
	Foreground(lipgloss.Color("#000000")).
	Bold(true)

var termHeading = lipgloss.NewStyle().Bold(true).Underline(true)

var termMeta = lipgloss.NewStyle().Faint(true)

// HighlightHTML escapes text and wraps every modern-term match in a
// highlighted span.
func HighlightHTML(text string) template.HTML {
	out := anachronism.Highlight(text, html.EscapeString, func(t string) string {
		return `<span style="background-color:` + highlightColor + `">` + html.EscapeString(t) + `</span>`
	})
	return template.HTML(out) //nolint:gosec
}

// HighlightTerminal renders text with modern-term matches styled for a
// terminal.
func HighlightTerminal(text string) string {
	return anachronism.Highlight(text, nil, func(t string) string {
		return termHighlight.Render(t)
	})
}

// PrintKept writes sampled kept rows to w.
func PrintKept(w io.Writer, rows []KeptRow) {
	fmt.Fprintln(w, termHeading.Render(fmt.Sprintf("Kept (%d)", len(rows))))
	for _, r := range rows {
		fmt.Fprintln(w, termMeta.Render(fmt.Sprintf("%s | %s | %s", r.Identifier, yearLabel(r.PublicationYear), r.Title)))
		fmt.Fprintln(w, HighlightTerminal(r.Excerpt))
		fmt.Fprintln(w)
	}
}

// PrintRemoved writes sampled rejection entries to w.
func PrintRemoved(w io.Writer, entries []model.AuditEntry) {
	fmt.Fprintln(w, termHeading.Render(fmt.Sprintf("Removed (%d)", len(entries))))
	for _, e := range entries {
		match := "-"
		if e.Match != nil {
			match = *e.Match
		}
		fmt.Fprintln(w, termMeta.Render(fmt.Sprintf("%s | %s | match: %s", yearLabel(e.PublicationDate), e.ShortBookTitle, match)))
		fmt.Fprintln(w, HighlightTerminal(e.Snippet))
		fmt.Fprintln(w)
	}
}

func yearLabel(y *int) string {
	if y == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *y)
}

type pageData struct {
	Warnings     []string
	KeptCount    int
	RemovedCount int
	Kept         []keptView
	Removed      []removedView
}

type keptView struct {
	Identifier string
	Title      string
	Year       string
	Excerpt    template.HTML
}

type removedView struct {
	Title   string
	Year    string
	Match   string
	Snippet template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Corpus spot-check</title>
<style>
body { font-family: sans-serif; margin: 1.5em; }
.cols { display: flex; gap: 2em; }
.col { flex: 1; min-width: 0; }
.item { border-bottom: 1px solid #ddd; padding: 0.5em 0; }
.meta { color: #666; font-size: 0.85em; }
.text { white-space: pre-wrap; font-family: serif; }
.warn { background: #fff3cd; padding: 0.5em; margin-bottom: 0.5em; }
</style>
</head>
<body>
<h1>Corpus spot-check</h1>
{{range .Warnings}}<div class="warn">{{.}}</div>
{{end}}<form method="post" action="/api/reload"><button type="submit">Reload</button></form>
<div class="cols">
<div class="col">
<h2>Kept ({{.KeptCount}} total)</h2>
{{range .Kept}}<div class="item">
<div class="meta">{{.Identifier}} | {{.Year}} | {{.Title}}</div>
<div class="text">{{.Excerpt}}</div>
</div>
{{else}}<p>No kept records.</p>
{{end}}</div>
<div class="col">
<h2>Removed ({{.RemovedCount}} loaded)</h2>
{{range .Removed}}<div class="item">
<div class="meta">{{.Year}} | {{.Title}} | match: {{.Match}}</div>
<div class="text">{{.Snippet}}</div>
</div>
{{else}}<p>No rejection samples.</p>
{{end}}</div>
</div>
</body>
</html>
`))

func renderPage(w io.Writer, data pageData) error {
	return pageTemplate.Execute(w, data)
}

func keptViews(rows []KeptRow) []keptView {
	out := make([]keptView, 0, len(rows))
	for _, r := range rows {
		out = append(out, keptView{
			Identifier: r.Identifier,
			Title:      r.Title,
			Year:       yearLabel(r.PublicationYear),
			Excerpt:    HighlightHTML(r.Excerpt),
		})
	}
	return out
}

func removedViews(entries []model.AuditEntry) []removedView {
	out := make([]removedView, 0, len(entries))
	for _, e := range entries {
		match := "-"
		if e.Match != nil {
			match = *e.Match
		}
		out = append(out, removedView{
			Title:   e.ShortBookTitle,
			Year:    yearLabel(e.PublicationDate),
			Match:   match,
			Snippet: HighlightHTML(e.Snippet),
		})
	}
	return out
}
