package document

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// PDFExtractor extracts text from PDF documents using MuPDF
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDF text extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractText pulls the text of every page and joins the pages with
// newlines. A page that fails to render contributes an empty string so a
// single bad page does not sink the whole document.
func (e *PDFExtractor) ExtractText(data []byte, contentType string) (string, error) {
	if !isPDFFormat(data) && !isPDFMimeType(contentType) {
		return "", fmt.Errorf("unsupported document format. Supported formats: PDF")
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

// Close closes the extractor and releases resources
func (e *PDFExtractor) Close() error {
	return nil
}

// isPDFFormat checks if the data starts with the PDF magic bytes
func isPDFFormat(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// isPDFMimeType checks if the MIME type indicates a PDF document
func isPDFMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "application/pdf" || strings.Contains(mimeType, "pdf")
}
