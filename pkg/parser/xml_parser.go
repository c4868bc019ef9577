package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmptyDocument is returned when the body holds no XML element at all.
var ErrEmptyDocument = errors.New("document has no root element")

type locEntry struct {
	Loc string `xml:"loc"`
}

// DecodeDocument classifies a sitemap body by its root element and collects
// the <loc> of every direct <url> (urlset) or <sitemap> (sitemapindex) entry.
// An unrecognised root is not an error: the document comes back with
// DocumentUnknown and decoding stops right after the root element.
func DecodeDocument(data []byte) (*Document, error) {
	decoder := xml.NewDecoder(newBOMReader(data))
	decoder.CharsetReader = charsetReader
	decoder.Entity = xml.HTMLEntity

	doc := &Document{}
	entry := ""
	depth := 0

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				doc.Root = t.Name.Local
				doc.Type, entry = classifyRoot(t.Name.Local)
				if doc.Type == DocumentUnknown {
					return doc, nil
				}
				continue
			}
			if depth == 2 && t.Name.Local == entry {
				var e locEntry
				if err := decoder.DecodeElement(&e, &t); err != nil {
					return nil, fmt.Errorf("failed to parse <%s> entry: %w", entry, err)
				}
				depth--
				if loc := strings.TrimSpace(e.Loc); loc != "" {
					doc.Locs = append(doc.Locs, loc)
				}
			}
		case xml.EndElement:
			depth--
		}
	}

	if doc.Root == "" {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

func classifyRoot(local string) (DocumentType, string) {
	switch strings.ToLower(local) {
	case "urlset":
		return DocumentURLSet, "url"
	case "sitemapindex":
		return DocumentSitemapIndex, "sitemap"
	default:
		return DocumentUnknown, ""
	}
}

// newBOMReader transcodes UTF-16 bodies to UTF-8 when they carry a BOM and
// strips a UTF-8 BOM; anything else passes through untouched.
func newBOMReader(data []byte) io.Reader {
	return transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(transform.Nop))
}

// charsetReader handles non UTF-8 XML declarations. UTF-16 labels are ignored
// because the BOM reader has already produced UTF-8 by then.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	if strings.HasPrefix(strings.ToLower(label), "utf-16") {
		return input, nil
	}
	r, err := charset.NewReaderLabel(label, input)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return r, nil
}
