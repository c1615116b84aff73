package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// TesseractEngine shells out to the tesseract CLI, reading the image from
// stdin and the text from stdout.
type TesseractEngine struct {
	Path     string
	Language string
}

// NewTesseractEngine applies defaults for an empty binary path or language.
func NewTesseractEngine(path, language string) *TesseractEngine {
	if strings.TrimSpace(path) == "" {
		path = "tesseract"
	}
	if strings.TrimSpace(language) == "" {
		language = "eng"
	}
	return &TesseractEngine{Path: path, Language: language}
}

func (t *TesseractEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	cmd := exec.CommandContext(ctx, t.Path, "stdin", "stdout", "-l", t.Language)
	cmd.Stdin = bytes.NewReader(png)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("tesseract: %w", err)
		}
		return "", fmt.Errorf("tesseract: %w: %s", err, msg)
	}
	return stdout.String(), nil
}
