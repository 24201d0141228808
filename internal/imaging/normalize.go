// Package imaging prepares uploaded photos for the vision model: it decodes
// the transport encoding, bounds the resolution, and recompresses. Gemini
// Vision has a cost and accuracy sweet spot around moderate resolutions, so
// oversized uploads only add latency.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxWidth bounds the normalized image width.
	DefaultMaxWidth = 800

	// DefaultJPEGQuality is the recompression quality for normalized images.
	DefaultJPEGQuality = 80
)

// DecodeDataURL decodes a base64 image string into raw bytes. A leading
// data-URL scheme tag ("data:image/<fmt>;base64,") is stripped when present.
func DecodeDataURL(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if idx := strings.Index(encoded, ","); idx >= 0 {
			encoded = encoded[idx+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	return data, nil
}

// Normalize decodes an image (JPEG, PNG, GIF, or WebP), downscales it so the
// width does not exceed maxWidth (aspect ratio preserved, never upscaled),
// and re-encodes it as JPEG at the given quality. Returns the encoded bytes
// and their MIME type.
func Normalize(data []byte, maxWidth, quality int) ([]byte, string, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	if origWidth > maxWidth {
		newHeight := int(float64(origHeight) * float64(maxWidth) / float64(origWidth))
		if newHeight < 1 {
			newHeight = 1
		}
		resized := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}

	log.Debug().
		Str("format", format).
		Int("orig_width", origWidth).
		Int("orig_height", origHeight).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Int("output_size", buf.Len()).
		Msg("Image normalized")

	return buf.Bytes(), "image/jpeg", nil
}
