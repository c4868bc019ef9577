package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"sitemap-terms/pkg/scanner"
)

// MarkdownWriter writes a summary table, one section per term and the
// list of unresolved domains.
type MarkdownWriter struct {
	output io.Writer
}

func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

func (w *MarkdownWriter) Write(report *scanner.Report) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Sitemap Term Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID + "`"},
			{"Started", report.StartedAt.Format(time.RFC3339)},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Domains", strconv.Itoa(len(report.Domains))},
			{"Unresolved", strconv.Itoa(len(report.Failed))},
		},
	})
	md.PlainText("")

	w.writeDomains(md, report)
	w.writeTerms(md, report)

	md.H2("Unresolved Domains")
	md.PlainText("")
	if len(report.Failed) == 0 {
		md.PlainText("Every domain was resolved.")
	} else {
		md.BulletList(report.Failed...)
	}
	md.PlainText("")

	return md.Build()
}

func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, report *scanner.Report) {
	if len(report.Domains) == 0 {
		return
	}
	md.H2("Domains")
	md.PlainText("")

	rows := make([][]string, len(report.Domains))
	for i, d := range report.Domains {
		cause := d.Cause
		if cause == "" {
			cause = "-"
		}
		rows[i] = []string{d.Domain, d.Status, strconv.Itoa(d.URLCount), strconv.Itoa(d.Fetched), cause}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Status", "URLs", "Sitemaps fetched", "Cause"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeTerms(md *markdown.Markdown, report *scanner.Report) {
	if report.Matches == nil {
		return
	}
	for _, entry := range report.Matches.Terms {
		md.H2("Term: " + entry.Term)
		md.PlainText("")
		if len(entry.Domains) == 0 {
			md.PlainText("No matching links.")
			md.PlainText("")
			continue
		}

		var rows [][]string
		for _, d := range entry.Domains {
			for _, u := range d.URLs {
				rows = append(rows, []string{d.Domain, u})
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Domain", "URL"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}
