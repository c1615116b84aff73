package ocr

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

type recordingEngine struct {
	text  string
	err   error
	input []byte
}

func (e *recordingEngine) Recognize(_ context.Context, png []byte) (string, error) {
	e.input = png
	return e.text, e.err
}

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextPassesGrayscalePNGToEngine(t *testing.T) {
	engine := &recordingEngine{text: "  GOVERNMENT OF INDIA\n"}
	ex := NewExtractor(engine)

	text, err := ex.ExtractText(context.Background(), bytes.NewReader(samplePNG(t, 8, 4)))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "GOVERNMENT OF INDIA" {
		t.Fatalf("unexpected text %q", text)
	}

	decoded, err := imaging.Decode(bytes.NewReader(engine.input))
	if err != nil {
		t.Fatalf("engine input is not an image: %v", err)
	}
	r, g, b, _ := decoded.At(0, 0).RGBA()
	if r != g || g != b {
		t.Fatalf("expected grayscale pixel, got r=%d g=%d b=%d", r, g, b)
	}
}

func TestExtractTextDownscalesLargeImages(t *testing.T) {
	engine := &recordingEngine{}
	ex := &Extractor{Engine: engine, MaxDimension: 10}

	if _, err := ex.ExtractText(context.Background(), bytes.NewReader(samplePNG(t, 40, 20))); err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	decoded, err := imaging.Decode(bytes.NewReader(engine.input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 10 || b.Dy() != 5 {
		t.Fatalf("expected 10x5, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestExtractTextEmptyIsValid(t *testing.T) {
	ex := NewExtractor(&recordingEngine{text: ""})
	text, err := ex.ExtractText(context.Background(), bytes.NewReader(samplePNG(t, 2, 2)))
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestExtractTextErrors(t *testing.T) {
	ex := NewExtractor(&recordingEngine{})
	if _, err := ex.ExtractText(context.Background(), strings.NewReader("not an image")); !errors.Is(err, ErrImageUnreadable) {
		t.Fatalf("expected ErrImageUnreadable, got %v", err)
	}

	failing := NewExtractor(&recordingEngine{err: errors.New("boom")})
	if _, err := failing.ExtractText(context.Background(), bytes.NewReader(samplePNG(t, 2, 2))); !errors.Is(err, ErrEngine) {
		t.Fatalf("expected ErrEngine, got %v", err)
	}

	var none *Extractor
	if _, err := none.ExtractText(context.Background(), bytes.NewReader(samplePNG(t, 2, 2))); !errors.Is(err, ErrEngine) {
		t.Fatalf("expected ErrEngine for nil extractor, got %v", err)
	}
}

// pngHeader returns a PNG signature and IHDR chunk for an 8-bit grayscale
// image of the given size, with no pixel data.
func pngHeader(w, h uint32) []byte {
	var ihdr bytes.Buffer
	ihdr.WriteString("IHDR")
	_ = binary.Write(&ihdr, binary.BigEndian, w)
	_ = binary.Write(&ihdr, binary.BigEndian, h)
	ihdr.Write([]byte{8, 0, 0, 0, 0})

	var out bytes.Buffer
	out.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&out, binary.BigEndian, uint32(ihdr.Len()-4))
	out.Write(ihdr.Bytes())
	_ = binary.Write(&out, binary.BigEndian, crc32.ChecksumIEEE(ihdr.Bytes()))
	return out.Bytes()
}

func TestExtractTextRejectsOversizedImageBeforeDecoding(t *testing.T) {
	engine := &recordingEngine{text: "never"}
	ex := NewExtractor(engine)

	_, err := ex.ExtractText(context.Background(), bytes.NewReader(pngHeader(16000, 16000)))
	if !errors.Is(err, ErrImageUnreadable) {
		t.Fatalf("expected ErrImageUnreadable, got %v", err)
	}
	if engine.input != nil {
		t.Fatalf("engine should not run for oversized images")
	}
}

func TestExtractTextHonorsPixelBudget(t *testing.T) {
	ex := &Extractor{Engine: &recordingEngine{}, MaxPixels: 100}
	if _, err := ex.ExtractText(context.Background(), bytes.NewReader(samplePNG(t, 20, 10))); !errors.Is(err, ErrImageUnreadable) {
		t.Fatalf("expected 200px image to exceed a 100px budget, got %v", err)
	}
	if _, err := ex.ExtractText(context.Background(), bytes.NewReader(samplePNG(t, 10, 10))); err != nil {
		t.Fatalf("expected 100px image to pass, got %v", err)
	}
}

func TestTesseractEngineRunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub requires a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "tesseract")
	body := "#!/bin/sh\ncat > /dev/null\necho \"lang=$4\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	engine := NewTesseractEngine(script, "hin")
	text, err := engine.Recognize(context.Background(), []byte("png"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if strings.TrimSpace(text) != "lang=hin" {
		t.Fatalf("unexpected output %q", text)
	}

	failing := filepath.Join(dir, "failing")
	if err := os.WriteFile(failing, []byte("#!/bin/sh\necho 'no such language' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	_, err = NewTesseractEngine(failing, "").Recognize(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "no such language") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
