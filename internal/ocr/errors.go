package ocr

import "errors"

var (
	// ErrImageUnreadable means the input could not be decoded as an image.
	ErrImageUnreadable = errors.New("image unreadable")

	// ErrEngine means the OCR engine failed on a decodable image.
	ErrEngine = errors.New("ocr engine failed")
)
