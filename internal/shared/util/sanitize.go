package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameLen caps sanitized names in bytes.
const MaxFileNameLen = 200

// ErrInvalidFileName is returned for names that are empty after cleaning or
// that try to walk out of their directory.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens path separators to underscores and drops control
// characters. Long names are cut down while the extension is kept.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", ErrInvalidFileName
	}
	return truncateName(cleaned), nil
}

func truncateName(name string) string {
	if len(name) <= MaxFileNameLen {
		return name
	}
	ext := path.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	base := name[:MaxFileNameLen-len(ext)]
	for !utf8.ValidString(base) {
		base = base[:len(base)-1]
	}
	return base + ext
}
