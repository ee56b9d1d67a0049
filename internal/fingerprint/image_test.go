package fingerprint

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestPrepareImage_PassThrough(t *testing.T) {
	data := createTestPNG(t, 64, 32)

	prepared, err := PrepareImage(data, 100)
	if err != nil {
		t.Fatalf("PrepareImage() error: %v", err)
	}
	if !bytes.Equal(prepared.Data, data) {
		t.Error("expected small image to be passed through unchanged")
	}
	if prepared.Format != "png" || prepared.Width != 64 || prepared.Height != 32 || prepared.Scale != 1 {
		t.Errorf("unexpected metadata: %+v", prepared)
	}
}

func TestPrepareImage_Downscale(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxSize       int
		wantW, wantH  int
		wantScale     float64
	}{
		{"landscape", 400, 200, 100, 100, 50, 4},
		{"portrait", 150, 300, 100, 50, 100, 3},
		{"square", 200, 200, 50, 50, 50, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prepared, err := PrepareImage(createTestPNG(t, tc.width, tc.height), tc.maxSize)
			if err != nil {
				t.Fatalf("PrepareImage() error: %v", err)
			}
			if prepared.Format != "jpeg" {
				t.Errorf("expected jpeg, got %s", prepared.Format)
			}
			if prepared.Scale != tc.wantScale {
				t.Errorf("expected scale %v, got %v", tc.wantScale, prepared.Scale)
			}
			cfg, err := jpeg.DecodeConfig(bytes.NewReader(prepared.Data))
			if err != nil {
				t.Fatalf("resized data is not a JPEG: %v", err)
			}
			if cfg.Width != tc.wantW || cfg.Height != tc.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tc.wantW, tc.wantH, cfg.Width, cfg.Height)
			}
			if prepared.Width != tc.width || prepared.Height != tc.height {
				t.Errorf("expected original size to be kept, got %dx%d", prepared.Width, prepared.Height)
			}
		})
	}
}

func TestPrepareImage_Invalid(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("definitely not an image")} {
		if _, err := PrepareImage(data, 100); !errors.Is(err, ErrInvalidImage) {
			t.Errorf("PrepareImage(%q) error = %v, want ErrInvalidImage", data, err)
		}
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"gif", []byte("GIF89a\x00\x00"), "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBP"), "image/webp"},
		{"bmp", []byte{0x42, 0x4D, 0, 0, 0, 0, 0, 0}, "image/bmp"},
		{"short", []byte{0xFF}, "application/octet-stream"},
		{"unknown", []byte("plaintext"), "application/octet-stream"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := detectMIMEType(tc.data); got != tc.want {
				t.Errorf("detectMIMEType() = %s, want %s", got, tc.want)
			}
		})
	}
}
