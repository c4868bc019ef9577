package report

import (
	"io"

	"gopkg.in/yaml.v3"

	"sitemap-terms/pkg/scanner"
)

type YAMLWriter struct {
	output io.Writer
}

func NewYAMLWriter(output io.Writer) *YAMLWriter {
	return &YAMLWriter{output: output}
}

func (w *YAMLWriter) Write(report *scanner.Report) error {
	enc := yaml.NewEncoder(w.output)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
