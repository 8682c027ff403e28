package preview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
)

// ErrUnknownFormat is returned for an output format other than png or webp
var ErrUnknownFormat = errors.New("unknown image format")

// Encode writes img as png or webp
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
	case "webp":
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("encode webp: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// ContentType returns the MIME type for format
func ContentType(format string) string {
	if format == "webp" {
		return "image/webp"
	}
	return "image/png"
}
