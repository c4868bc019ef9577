package report

import (
	"encoding/json"
	"io"

	"sitemap-terms/pkg/scanner"
)

// JSONWriter writes the report as indented JSON.
type JSONWriter struct {
	output io.Writer
	indent string
}

func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{output: output, indent: "  "}
}

func (w *JSONWriter) Write(report *scanner.Report) error {
	enc := json.NewEncoder(w.output)
	enc.SetIndent("", w.indent)
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}
