package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// DefaultMaxDimension bounds the longer image side handed to the engine.
	DefaultMaxDimension = 4000
	// DefaultMaxPixels bounds width*height of an image before it is decoded.
	DefaultMaxPixels = 50_000_000
)

// Engine recognizes text in a PNG-encoded grayscale image.
type Engine interface {
	Recognize(ctx context.Context, png []byte) (string, error)
}

// Extractor normalizes an uploaded image and runs it through an Engine.
type Extractor struct {
	Engine       Engine
	MaxDimension int
	MaxPixels    int
}

// NewExtractor constructs an Extractor with default limits.
func NewExtractor(engine Engine) *Extractor {
	return &Extractor{Engine: engine, MaxDimension: DefaultMaxDimension, MaxPixels: DefaultMaxPixels}
}

// ExtractText decodes r, converts it to grayscale and returns the recognized
// text. PDFs with a text layer are read directly without the engine. Empty
// text from an image is a valid result.
func (e *Extractor) ExtractText(ctx context.Context, r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(pdfMagic)); bytes.Equal(head, pdfMagic) {
		return readPDFText(br)
	}
	if e == nil || e.Engine == nil {
		return "", fmt.Errorf("%w: no engine configured", ErrEngine)
	}
	src, err := e.checkSize(br)
	if err != nil {
		return "", err
	}
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageUnreadable, err)
	}

	if limit := e.MaxDimension; limit > 0 {
		b := img.Bounds()
		if b.Dx() > limit || b.Dy() > limit {
			img = imaging.Fit(img, limit, limit, imaging.Lanczos)
		}
	}
	gray := imaging.Grayscale(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return "", fmt.Errorf("%w: encode png: %w", ErrEngine, err)
	}

	text, err := e.Engine.Recognize(ctx, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEngine, err)
	}
	return strings.TrimSpace(text), nil
}

// checkSize reads the image header and rejects images above MaxPixels
// without decoding pixel data. The returned reader replays the header.
func (e *Extractor) checkSize(r io.Reader) (io.Reader, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageUnreadable, err)
	}
	limit := e.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(limit) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageUnreadable, cfg.Width, cfg.Height, limit)
	}
	return io.MultiReader(&head, r), nil
}
