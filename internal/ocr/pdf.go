package ocr

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxPDFBytes bounds the PDF payload read into memory.
const MaxPDFBytes = 20 << 20

var pdfMagic = []byte("%PDF-")

// readPDFText returns the embedded text layer of a PDF. Scanned PDFs without
// a text layer are reported as unreadable since they are not rasterized here.
func readPDFText(r io.Reader) (text string, err error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPDFBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read pdf: %w", ErrImageUnreadable, err)
	}
	if len(data) > MaxPDFBytes {
		return "", fmt.Errorf("%w: pdf exceeds %d bytes", ErrImageUnreadable, MaxPDFBytes)
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: malformed pdf: %v", ErrImageUnreadable, rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageUnreadable, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageUnreadable, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageUnreadable, err)
	}
	text = strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("%w: pdf has no text layer", ErrImageUnreadable)
	}
	return text, nil
}
