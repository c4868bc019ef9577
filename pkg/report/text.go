package report

import (
	"bufio"
	"io"

	"sitemap-terms/pkg/scanner"
)

// TextWriter writes the plain layout: one heading per term, one
// "<domain> -> <url>" line per match, then the unresolved domains.
type TextWriter struct {
	output io.Writer
}

func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{output: output}
}

func (w *TextWriter) Write(report *scanner.Report) error {
	bw := bufio.NewWriter(w.output)

	if report.Matches != nil {
		for _, entry := range report.Matches.Terms {
			bw.WriteString("Links for the following term: " + entry.Term + "\n")
			for _, d := range entry.Domains {
				for _, u := range d.URLs {
					bw.WriteString("\t" + d.Domain + "\t->\t" + u + "\n")
				}
			}
			bw.WriteString("\n")
		}
	}

	bw.WriteString("List of websites that couldn't be scraped:\n")
	for _, domain := range report.Failed {
		bw.WriteString(domain + "\n")
	}
	return bw.Flush()
}
