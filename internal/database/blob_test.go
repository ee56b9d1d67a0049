package database

import (
	"math"
	"testing"
)

func TestEncodeEmbedding(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, math.MaxFloat32}
	b := EncodeEmbedding(vec)
	if len(b) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(b))
	}
	// 1.5 = 0x3FC00000, little-endian
	if b[4] != 0x00 || b[7] != 0x3F {
		t.Errorf("unexpected byte order: % x", b[4:8])
	}

	got, err := DecodeEmbedding(b)
	if err != nil {
		t.Fatalf("DecodeEmbedding() error: %v", err)
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], vec[i])
		}
	}
}

func TestDecodeEmbedding_InvalidLength(t *testing.T) {
	if _, err := DecodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for 3-byte blob")
	}
}
