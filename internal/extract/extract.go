package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Kind is the resume file format.
type Kind string

const (
	KindPDF      Kind = "pdf"
	KindDocument Kind = "document"
)

// ErrUnsupportedFormat is returned for files that are neither PDF nor DOCX.
var ErrUnsupportedFormat = errors.New("unsupported resume format")

// KindFromName detects the format from the file extension, case-insensitively.
func KindFromName(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, nil
	case ".docx":
		return KindDocument, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
	}
}

// Supported reports whether the file name has a resume extension.
func Supported(name string) bool {
	_, err := KindFromName(name)
	return err == nil
}

// File extracts plain text from a resume on disk, detecting its kind by extension.
func File(path string) (string, error) {
	kind, err := KindFromName(path)
	if err != nil {
		return "", err
	}
	return Extract(path, kind)
}

// Extract returns the plain text of the resume. Layout is not preserved.
func Extract(path string, kind Kind) (string, error) {
	switch kind {
	case KindPDF:
		return extractPDF(path)
	case KindDocument:
		return extractDocx(path)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, kind)
	}
}

// Extractor adapts File to the interface consumed by the ranker.
type Extractor struct{}

func (Extractor) Extract(path string) (string, error) {
	return File(path)
}

func extractPDF(path string) (text string, err error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	// the pdf reader panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("read pdf %s: %v", filepath.Base(path), r)
		}
	}()

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		builder.WriteString(content)
	}

	return strings.TrimSpace(builder.String()), nil
}

func extractDocx(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	paragraphs, err := documentParagraphs(doc.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("read docx %s: %w", filepath.Base(path), err)
	}

	return strings.Join(paragraphs, "\n"), nil
}

// documentParagraphs walks word/document.xml and returns the text of every
// non-empty w:p element in the order the paragraphs start. Paragraphs nested in
// text boxes are listed after the paragraph that holds them.
func documentParagraphs(content string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	type paragraph struct {
		slot int
		text strings.Builder
	}

	var (
		slots  []string
		open   []*paragraph
		inText bool
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		var current *paragraph
		if len(open) > 0 {
			current = open[len(open)-1]
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				slots = append(slots, "")
				open = append(open, &paragraph{slot: len(slots) - 1})
			case "t":
				inText = true
			case "tab":
				if current != nil {
					current.text.WriteString("\t")
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				if current != nil {
					slots[current.slot] = current.text.String()
					open = open[:len(open)-1]
				}
			}
		case xml.CharData:
			if inText && current != nil {
				current.text.Write(el)
			}
		}
	}

	paragraphs := make([]string, 0, len(slots))
	for _, text := range slots {
		if strings.TrimSpace(text) != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	return paragraphs, nil
}
