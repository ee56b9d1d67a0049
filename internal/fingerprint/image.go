package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// PreparedImage is an upload ready to be sent to an extractor.
type PreparedImage struct {
	Data   []byte
	Format string
	Width  int // of the original image
	Height int
	// Scale maps coordinates in Data back to the original image (original = prepared * Scale).
	Scale float64
}

// PrepareImage validates that data is a decodable image and, when its longest side
// exceeds maxSize, downscales it and re-encodes it as JPEG. Images that already fit
// are passed through byte for byte. maxSize <= 0 disables downscaling.
func PrepareImage(data []byte, maxSize int) (*PreparedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	prepared := &PreparedImage{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height, Scale: 1}
	if maxSize <= 0 || (cfg.Width <= maxSize && cfg.Height <= maxSize) {
		return prepared, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	var newWidth, newHeight int
	if cfg.Width > cfg.Height {
		newWidth = maxSize
		newHeight = max(1, int(float64(cfg.Height)*float64(maxSize)/float64(cfg.Width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(cfg.Width)*float64(maxSize)/float64(cfg.Height)))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}

	prepared.Data = buf.Bytes()
	prepared.Format = "jpeg"
	prepared.Scale = float64(cfg.Width) / float64(newWidth)
	return prepared, nil
}
