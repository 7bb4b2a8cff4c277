package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxPDFSize bounds uploads accepted by ExtractPDF.
const MaxPDFSize = 10 << 20

// ErrNoText is returned when a PDF has no extractable text layer.
var ErrNoText = errors.New("no text content found in PDF")

// PDFError describes a failed PDF extraction.
type PDFError struct {
	Source  string
	Message string
	Cause   error
}

func (e *PDFError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pdf %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("pdf %s: %s", e.Source, e.Message)
}

func (e *PDFError) Unwrap() error {
	return e.Cause
}

// ExtractPDF reads every page's plain text from r, joins pages with a blank
// line and tidies the layout. Pages that fail to decode are skipped.
func ExtractPDF(r io.ReaderAt, size int64, source string) (string, *Metadata, error) {
	if size <= 0 {
		return "", nil, &PDFError{Source: source, Message: "empty file"}
	}
	if size > MaxPDFSize {
		return "", nil, &PDFError{Source: source, Message: fmt.Sprintf("file exceeds %d bytes", MaxPDFSize)}
	}

	parts, total, err := readPages(r, size)
	if err != nil {
		return "", nil, &PDFError{Source: source, Message: "failed to read PDF", Cause: err}
	}

	text := FixResumeLayout(strings.Join(parts, "\n\n"))
	if text == "" {
		return "", nil, &PDFError{Source: source, Message: "extraction produced no text", Cause: ErrNoText}
	}
	return text, NewMetadata(text, source, SourcePDF, total), nil
}

// readPages returns the plain text of each decodable page. The parser panics
// on some malformed input; that is reported as an error.
func readPages(r io.ReaderAt, size int64) (parts []string, total int, err error) {
	defer func() {
		if p := recover(); p != nil {
			parts, total, err = nil, 0, fmt.Errorf("malformed PDF: %v", p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, 0, err
	}

	total = reader.NumPage()
	parts = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		parts = append(parts, text)
	}
	return parts, total, nil
}

// ExtractPDFBytes is ExtractPDF over an in-memory upload.
func ExtractPDFBytes(data []byte, source string) (string, *Metadata, error) {
	return ExtractPDF(bytes.NewReader(data), int64(len(data)), source)
}

// ExtractPDFFile opens path and extracts its text.
func ExtractPDFFile(path string) (string, *Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return ExtractPDF(f, info.Size(), path)
}
