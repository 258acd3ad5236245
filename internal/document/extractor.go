// Package document extracts plain text from uploaded invoice files.
package document

// Extractor defines the interface for document text extraction operations
type Extractor interface {
	// ExtractText reads a document and returns its plain text content
	ExtractText(data []byte, contentType string) (string, error)
	// Close closes the extractor and releases resources
	Close() error
}
